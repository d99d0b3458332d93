package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"shortlink-proxy/internal/apperrors"
	"shortlink-proxy/internal/i18n"
	"shortlink-proxy/internal/middleware"
	"shortlink-proxy/response"
)

// RouterDeps 组装路由所需的依赖
type RouterDeps struct {
	ShortLinks *ShortLinkHandler
	Translator *i18n.Translator
	Logger     *zap.Logger
}

// NewRouter 路由表：/、/new、/list、/p/*、/metrics，其余一律 404
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	// /p/abc/ 这类路径由通配路由自己处理，不做跳转
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	r.Use(middleware.RecoveryMiddleware(deps.Logger))
	r.Use(middleware.ZapGinLogger(deps.Logger))
	r.Use(middleware.PrometheusMetrics())
	r.Use(middleware.I18nMiddleware(deps.Translator))
	// 注册全局错误中间件
	r.Use(middleware.GlobalErrorMiddleware(deps.Logger))

	h := deps.ShortLinks
	r.GET("/", h.Landing)
	r.GET("/new", h.CreateShortLink)
	r.GET("/list", h.ListShortLinks)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	p := r.Group("/p", middleware.CorsMiddleware())
	{
		p.GET("/*code", h.ProxyShortLink)
		p.OPTIONS("/*code", response.NoContent)
	}

	r.NoRoute(NotFound)
	return r
}

func notFoundError() *apperrors.AppError {
	return apperrors.NotFound("error.not_found", "Not found")
}
