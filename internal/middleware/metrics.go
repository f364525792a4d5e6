package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/novaticstar/hoosgottime/internal/service"
)

// Metrics records per-request counters and latency histograms. The route
// template is used as the path label to keep cardinality bounded.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
