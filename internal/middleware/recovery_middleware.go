package middleware

import (
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"shortlink-proxy/response"
)

// RecoveryMiddleware 捕获 panic，用 zap 记录后返回 500
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error("Panic recovered",
			zap.Any("panic", recovered),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Stack("stack"),
		)
		if c.Writer.Written() {
			c.Abort()
			return
		}
		response.InternalError(c)
	})
}
