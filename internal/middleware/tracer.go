package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultTraceIDHeader default trace id header name
	DefaultTraceIDHeader = "X-Trace-ID"
	// TraceIDKey context key holding the trace id
	TraceIDKey = "trace_id"
)

// TraceMiddleware takes the trace id from the request header or generates
// one, stores it in both contexts, and echoes it in the response header.
func TraceMiddleware(headerName string) gin.HandlerFunc {
	if headerName == "" {
		headerName = DefaultTraceIDHeader
	}
	return func(c *gin.Context) {
		traceID := c.GetHeader(headerName)
		if traceID == "" {
			traceID = generateTraceID()
		}

		c.Set(TraceIDKey, traceID)
		ctx := context.WithValue(c.Request.Context(), TraceIDKey, traceID)
		c.Request = c.Request.WithContext(ctx)

		c.Header(headerName, traceID)
		c.Next()
	}
}

func generateTraceID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// GetTraceID reads the trace id set by TraceMiddleware.
func GetTraceID(c *gin.Context) string {
	return c.GetString(TraceIDKey)
}
