package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"shortlink-proxy/internal/apperrors"
	"shortlink-proxy/response"
)

// GlobalErrorMiddleware 全局错误中间件，把 c.Error 收集的错误渲染成纯文本
func GlobalErrorMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		// 流式输出已开始，状态码无法再修改
		if c.Writer.Written() {
			logger.Warn("Error after response started",
				zap.String("path", c.Request.URL.Path),
				zap.String("error", c.Errors.String()),
			)
			return
		}

		for _, err := range c.Errors {
			var appErr *apperrors.AppError
			if errors.As(err.Err, &appErr) {
				if appErr.Kind == apperrors.KindSystem {
					logger.Error("Request failed",
						zap.String("path", c.Request.URL.Path),
						zap.Error(appErr),
					)
				}
				response.Error(c, appErr)
				return
			}
		}

		// 默认处理未定义的错误
		logger.Error("Unhandled error",
			zap.String("path", c.Request.URL.Path),
			zap.String("error", c.Errors.String()),
		)
		response.InternalError(c)
	}
}
