package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CorsMiddleware 代理路由的跨域中间件，浏览器播放器可跨域发起 Range 请求
func CorsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Range")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		// 如果是预检请求（OPTIONS），直接返回 204
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
