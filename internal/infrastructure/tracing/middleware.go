package tracing

import (
	"github.com/gin-gonic/gin"
)

// Trace context headers.
const (
	HeaderTraceID = "X-Trace-ID"
	HeaderSpanID  = "X-Span-ID"
)

// HTTPMiddleware opens a span per request, named after the route
// template. A request carrying X-Trace-ID (and optionally X-Span-ID)
// continues that trace. The ids are echoed in the response headers.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if traceID := c.GetHeader(HeaderTraceID); traceID != "" {
			ctx = withSpan(ctx, TraceID(traceID), SpanID(c.GetHeader(HeaderSpanID)))
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+route)
		span.SetTag("http.path", c.Request.URL.Path)
		c.Request = c.Request.WithContext(ctx)

		c.Header(HeaderTraceID, string(span.TraceID))
		c.Header(HeaderSpanID, string(span.SpanID))

		c.Next()

		span.SetStatus(c.Writer.Status())
		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}
		span.End()
	}
}
