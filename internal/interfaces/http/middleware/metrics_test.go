package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observation struct {
	method string
	route  string
	status int
}

type recordingObserver struct {
	mu  sync.Mutex
	obs []observation
}

func (r *recordingObserver) ObserveHTTP(method, route string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, observation{method, route, status})
}

func TestHTTPMetrics(t *testing.T) {
	observer := &recordingObserver{}

	router := gin.New()
	router.Use(HTTPMetrics(observer, "/metrics"))
	router.GET("/orders/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/orders/1", "/orders/2", "/metrics", "/missing"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Len(t, observer.obs, 3)
	assert.Equal(t, observation{"GET", "/orders/:id", http.StatusNotFound}, observer.obs[0])
	assert.Equal(t, observation{"GET", "/orders/:id", http.StatusNotFound}, observer.obs[1])
	assert.Equal(t, observation{"GET", unmatchedRoute, http.StatusNotFound}, observer.obs[2])
}

func TestProfiling_PassesThrough(t *testing.T) {
	for _, enabled := range []bool{false, true} {
		router := gin.New()
		router.Use(Profiling(enabled))
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusAccepted) })

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusAccepted, rec.Code)
	}
}
