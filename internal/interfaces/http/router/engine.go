package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

const metricsPath = "/metrics"

// EngineDeps is everything NewEngine mounts
type EngineDeps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  middleware.HTTPObserver
	Exporter http.Handler // Prometheus exposition; /metrics is not mounted when nil
	Auth     gin.HandlerFunc
	Handlers Handlers
}

// NewEngine builds the gin engine with the full middleware chain and every route
func NewEngine(d EngineDeps) (*gin.Engine, error) {
	cfg := d.Config
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		return nil, err
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		logger.Recovery(d.Logger),
		middleware.RequestID(),
		logger.GinMiddleware(d.Logger),
		middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled),
		middleware.SpanAttributes(),
		middleware.Profiling(cfg.Telemetry.ProfilingEnabled),
	)
	if d.Metrics != nil {
		engine.Use(middleware.HTTPMetrics(d.Metrics, metricsPath, "/health"))
	}
	engine.Use(
		middleware.CORSWithConfig(cors),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Timeout(cfg.HTTP.RequestTimeout),
	)

	engine.GET("/health", d.Handlers.System.Health)
	if d.Exporter != nil {
		engine.GET(metricsPath, gin.WrapH(d.Exporter))
	}
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger.Enabled, cfg.Swagger.AllowedIPs),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	mounted := NewRouter(engine, WithAPIVersion("v1")).
		Register(APIGroups(d.Handlers, d.Auth)...).
		Setup()
	for _, r := range mounted {
		d.Logger.Debug("route mounted",
			zap.String("group", r.Group),
			zap.String("method", r.Method),
			zap.String("path", r.Path),
			zap.Bool("protected", r.Protected),
		)
	}
	return engine, nil
}
