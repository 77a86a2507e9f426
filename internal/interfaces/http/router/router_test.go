package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func reply(body string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, body) }
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	products := NewDomainGroup("products", "/products").GET("", reply("products"))
	carts := NewDomainGroup("cart", "/cart").GET("", reply("cart"))

	mounted := NewRouter(engine, WithAPIVersion("v2")).Register(products).Register(carts).Setup()
	assert.Equal(t, []RouteInfo{
		{Group: "cart", Method: http.MethodGet, Path: "/api/v2/cart"},
		{Group: "products", Method: http.MethodGet, Path: "/api/v2/products"},
	}, mounted)

	w := serve(engine, http.MethodGet, "/api/v2/products")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "products", w.Body.String())
	assert.Equal(t, "cart", serve(engine, http.MethodGet, "/api/v2/cart").Body.String())
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/cart").Code)
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("orders", "/orders")
		assert.Equal(t, "orders", g.Name())
		assert.Equal(t, "/orders", g.Prefix())
	})

	t.Run("registers every method", func(t *testing.T) {
		engine := gin.New()
		NewDomainGroup("items", "/items").
			GET("/:id", reply("get")).
			POST("", reply("post")).
			PUT("/:id", reply("put")).
			DELETE("/:id", reply("delete")).
			Handle(http.MethodPatch, "/:id", reply("patch")).
			RegisterRoutes(engine.Group("/api/v1"))

		tests := []struct {
			method string
			path   string
			want   string
		}{
			{http.MethodGet, "/api/v1/items/1", "get"},
			{http.MethodPost, "/api/v1/items", "post"},
			{http.MethodPut, "/api/v1/items/1", "put"},
			{http.MethodDelete, "/api/v1/items/1", "delete"},
			{http.MethodPatch, "/api/v1/items/1", "patch"},
		}
		for _, tt := range tests {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code, "%s %s", tt.method, tt.path)
			assert.Equal(t, tt.want, w.Body.String())
		}
	})

	t.Run("subgroup middleware stays in the subgroup", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("payments", "/payments").GET("/callback/success", reply("public"))
		g.Group("owner", "").
			Use(func(c *gin.Context) {
				c.AbortWithStatus(http.StatusUnauthorized)
			}).
			GET("/:payment_key", reply("private"))
		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/payments/callback/success").Code)
		assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/payments/pk_1").Code)
	})

	t.Run("inventory marks guarded subgroups", func(t *testing.T) {
		deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
		g := NewDomainGroup("payments", "/payments").GET("/callback/fail", reply("public"))
		g.Group("owner", "").RequireAuth(deny).
			POST("/confirm", reply("confirm")).
			GET("", reply("list"))

		assert.Equal(t, []RouteInfo{
			{Group: "payments", Method: http.MethodGet, Path: "/api/v1/payments/callback/fail"},
			{Group: "owner", Method: http.MethodPost, Path: "/api/v1/payments/confirm", Protected: true},
			{Group: "owner", Method: http.MethodGet, Path: "/api/v1/payments", Protected: true},
		}, g.Routes("/api/v1"))
	})
}

func TestJoinPath(t *testing.T) {
	tests := []struct{ base, rel, want string }{
		{"/api/v1", "", "/api/v1"},
		{"/api/v1", "/orders", "/api/v1/orders"},
		{"/api/v1/orders", "/:id", "/api/v1/orders/:id"},
		{"/api/v1", "/items/", "/api/v1/items/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, joinPath(tt.base, tt.rel))
	}
}
