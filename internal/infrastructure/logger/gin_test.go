package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("request_id", "req-7"); c.Next() })
	r.Use(GinMiddleware(zap.New(core)))

	var seen string
	r.GET("/orders", func(c *gin.Context) {
		seen = GetRequestID(c.Request.Context())
		L(c.Request.Context()).Info("listing orders")
		c.Status(http.StatusOK)
	})
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders?page=2", nil))
	assert.Equal(t, "req-7", seen)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := logs.All()
	assert.Len(t, entries, 3)
	assert.Equal(t, "listing orders", entries[0].Message)
	assert.Equal(t, "req-7", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "page=2", entries[1].ContextMap()["query"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	r := gin.New()
	r.Use(Recovery(zap.New(core)))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())
}
