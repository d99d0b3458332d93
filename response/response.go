package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"shortlink-proxy/internal/apperrors"
	"shortlink-proxy/internal/i18n"
)

const (
	TextContentType = "text/plain; charset=utf-8"
	HTMLContentType = "text/html; charset=utf-8"
)

// Text 纯文本响应，所有接口（含错误）统一使用
func Text(c *gin.Context, status int, body string) {
	c.Data(status, TextContentType, []byte(body))
}

// HTML 首页的 HTML 版本
func HTML(c *gin.Context, status int, body string) {
	c.Data(status, HTMLContentType, []byte(body))
}

// Error 按请求语言输出 AppError 的消息
func Error(c *gin.Context, err *apperrors.AppError) {
	msg := i18n.T(c.Request.Context(), err.MessageID, err.Data, err.Message)
	c.Abort()
	Text(c, err.Code, msg)
}

// InternalError 未分类错误统一返回 500，不暴露细节
func InternalError(c *gin.Context) {
	Error(c, apperrors.SystemError(nil))
}

// NoContent CORS 预检
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
