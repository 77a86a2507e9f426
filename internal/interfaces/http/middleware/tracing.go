package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// Tracing starts a server span per request with otelgin, named after the
// route pattern
func Tracing(serviceName string, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return otelgin.Middleware(serviceName)
}

// SpanAttributes copies request and owner IDs onto the server span and marks
// 5xx responses as errors. It must run inside Tracing; otelgin restores the
// parent context once the chain returns.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			annotateSpan(c, span)
		}
	}
}

func annotateSpan(c *gin.Context, span trace.Span) {
	if id := GetRequestID(c); id != "" {
		span.SetAttributes(attribute.String("request_id", id))
	}
	if owner := GetOwnerID(c); owner != "" {
		span.SetAttributes(attribute.String(telemetry.SpanAttrOwnerID, owner))
	}
	if status := c.Writer.Status(); status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
}
