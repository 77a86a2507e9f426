package router

import (
	"net/http"
	"path"
	"sort"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar mounts a set of routes on a gin group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouteLister is implemented by registrars that can describe what they mount
type RouteLister interface {
	Routes(base string) []RouteInfo
}

// RouteInfo describes one mounted endpoint
type RouteInfo struct {
	Group     string
	Method    string
	Path      string
	Protected bool
}

// Router mounts registrars under /api/{version}
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion sets the version segment of the base path
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.apiVersion = version }
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues registrars for Setup
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// BasePath is the prefix every registrar is mounted under
func (r *Router) BasePath() string {
	return "/api/" + r.apiVersion
}

// Setup mounts every registrar and returns the inventory of what was mounted.
// Registrars that do not implement RouteLister are mounted but not listed.
func (r *Router) Setup() []RouteInfo {
	api := r.engine.Group(r.BasePath())
	var mounted []RouteInfo
	for _, reg := range r.registrars {
		reg.RegisterRoutes(api)
		if l, ok := reg.(RouteLister); ok {
			mounted = append(mounted, l.Routes(r.BasePath())...)
		}
	}
	sort.SliceStable(mounted, func(i, j int) bool {
		if mounted[i].Path != mounted[j].Path {
			return mounted[i].Path < mounted[j].Path
		}
		return mounted[i].Method < mounted[j].Method
	})
	return mounted
}

type endpoint struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// DomainGroup collects the routes of one resource under a shared prefix.
// Middleware set on a subgroup does not leak to the parent's routes.
type DomainGroup struct {
	name       string
	prefix     string
	guarded    bool
	middleware []gin.HandlerFunc
	endpoints  []endpoint
	children   []*DomainGroup
}

func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

func (dg *DomainGroup) Name() string   { return dg.name }
func (dg *DomainGroup) Prefix() string { return dg.prefix }

// Use appends middleware to the group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// RequireAuth puts guard in front of every route of the group and its
// subgroups and marks them as protected in the inventory
func (dg *DomainGroup) RequireAuth(guard gin.HandlerFunc) *DomainGroup {
	dg.guarded = true
	return dg.Use(guard)
}

func (dg *DomainGroup) Handle(method, relativePath string, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.endpoints = append(dg.endpoints, endpoint{method: method, path: relativePath, handlers: handlers})
	return dg
}

func (dg *DomainGroup) GET(p string, h ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodGet, p, h...)
}

func (dg *DomainGroup) POST(p string, h ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPost, p, h...)
}

func (dg *DomainGroup) PUT(p string, h ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPut, p, h...)
}

func (dg *DomainGroup) DELETE(p string, h ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodDelete, p, h...)
}

// Group adds a subgroup nested under this group's prefix
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	child := NewDomainGroup(name, prefix)
	dg.children = append(dg.children, child)
	return child
}

// RegisterRoutes implements RouteRegistrar
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix, dg.middleware...)
	for _, e := range dg.endpoints {
		group.Handle(e.method, e.path, e.handlers...)
	}
	for _, child := range dg.children {
		child.RegisterRoutes(group)
	}
}

// Routes implements RouteLister
func (dg *DomainGroup) Routes(base string) []RouteInfo {
	return dg.collect(base, false)
}

func (dg *DomainGroup) collect(base string, inherited bool) []RouteInfo {
	prefix := joinPath(base, dg.prefix)
	guarded := inherited || dg.guarded
	out := make([]RouteInfo, 0, len(dg.endpoints))
	for _, e := range dg.endpoints {
		out = append(out, RouteInfo{
			Group:     dg.name,
			Method:    e.method,
			Path:      joinPath(prefix, e.path),
			Protected: guarded,
		})
	}
	for _, child := range dg.children {
		out = append(out, child.collect(prefix, guarded)...)
	}
	return out
}

// joinPath mirrors how gin concatenates group and route paths
func joinPath(base, rel string) string {
	if rel == "" {
		return base
	}
	joined := path.Join(base, rel)
	if rel[len(rel)-1] == '/' && joined[len(joined)-1] != '/' {
		return joined + "/"
	}
	return joined
}
