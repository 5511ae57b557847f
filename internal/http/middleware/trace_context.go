package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	ctxTraceID   = "trace_id"
	ctxRequestID = "request_id"
)

// AttachTraceContext tags every request with a request id and the active
// trace id, echoing both in response headers.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.New().String()
		}
		traceID := ""
		if spanCtx := trace.SpanContextFromContext(c.Request.Context()); spanCtx.HasTraceID() {
			traceID = spanCtx.TraceID().String()
		}
		if traceID == "" {
			traceID = strings.TrimSpace(c.GetHeader(headerTraceID))
		}
		c.Set(ctxRequestID, reqID)
		c.Writer.Header().Set(headerRequestID, reqID)
		if traceID != "" {
			c.Set(ctxTraceID, traceID)
			c.Writer.Header().Set(headerTraceID, traceID)
		}
		c.Next()
	}
}
