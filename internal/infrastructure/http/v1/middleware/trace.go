package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "brigade/internal/core/context"
)

const requestIDHeader = "X-Request-ID"

// Trace attaches a request ID to the context, honoring one supplied by the
// caller, and echoes it back in the response header.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = appctx.NewRequestID()
		}

		ctx := appctx.WithTrace(c.Request.Context(), &appctx.TraceContext{
			RequestID: requestID,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Set("request_id", requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()
	}
}
