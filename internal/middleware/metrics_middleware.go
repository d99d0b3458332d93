package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"shortlink-proxy/internal/metrics"
)

// PrometheusMetrics 按路由模板统计请求，未匹配的路径归为 unmatched 避免标签爆炸
func PrometheusMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
