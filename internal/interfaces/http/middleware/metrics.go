package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// unmatchedRoute labels requests that hit no registered route
const unmatchedRoute = "unmatched"

// HTTPObserver records one finished request
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, d time.Duration)
}

// HTTPMetrics records request counts and latency by route pattern. Paths in
// skipPaths (such as /metrics itself) are not recorded.
func HTTPMetrics(observer HTTPObserver, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		observer.ObserveHTTP(c.Request.Method, routePattern(c), c.Writer.Status(), time.Since(start))
	}
}

// routePattern keeps label cardinality bounded by using the registered
// pattern (/api/v1/orders/:id) instead of the raw path
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}
