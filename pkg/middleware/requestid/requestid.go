package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// Header carries the caller-supplied or generated request ID.
	Header     = "X-Request-ID"
	contextKey = "request_id"
)

// maxInboundLength bounds caller-supplied IDs so a hostile client cannot
// bloat every log line.
const maxInboundLength = 64

// Middleware tags each request with an ID so one schedule run can be traced
// across the request log and the service logs. A sane inbound header is
// honored, anything else is replaced with a fresh UUID.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(Header)
		if reqID == "" || len(reqID) > maxInboundLength {
			reqID = uuid.NewString()
		}

		c.Set(contextKey, reqID)
		c.Writer.Header().Set(Header, reqID)

		c.Next()
	}
}

// Value returns the request ID stored in the Gin context.
func Value(c *gin.Context) string {
	if v, exists := c.Get(contextKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
