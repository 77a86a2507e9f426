package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/grafana/pyroscope-go"
)

// Profiling tags CPU samples taken while serving a request with its method
// and route pattern, so profiles can be filtered per endpoint
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		labels := pyroscope.Labels(
			"method", c.Request.Method,
			"route", routePattern(c),
		)
		pyroscope.TagWrapper(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
