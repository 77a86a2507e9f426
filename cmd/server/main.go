package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/storefront/backend/docs"
	cartapp "github.com/storefront/backend/internal/application/cart"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	orderapp "github.com/storefront/backend/internal/application/order"
	paymentapp "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	paymentinfra "github.com/storefront/backend/internal/infrastructure/payment"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 30 * time.Second

//	@title			Storefront API
//	@version		1.0
//	@description	Cart, order settlement and payment reconciliation for the storefront

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	// OTLP log export is teed into the zap logger when telemetry is enabled
	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry)
	if err != nil {
		panic("Failed to initialize log exporter: " + err.Error())
	}
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}, logProvider.Core(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()
	zap.ReplaceGlobals(log)

	log.Info("Starting storefront backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
		if err := logProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down log provider", zap.Error(err))
		}
	}()
	prom := telemetry.NewPrometheusMetrics()

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.NewDBTracing(cfg.Telemetry.DBSlowQueryThresh, log).Register(db.DB); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}
	if _, err := telemetry.RegisterPoolMetrics(meterProvider.Meter("storefront/db"), db.SQL()); err != nil {
		log.Warn("Failed to register pool metrics", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Events: services write to the outbox; the processor drains it into the bus
	serializer := event.NewEventSerializer()
	event.RegisterStorefrontEvents(serializer)
	outboxPublisher := event.NewOutboxPublisher(db.DB, serializer, cfg.Event.MaxRetries)

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		_ = idempotencyStore.Close()
	}()

	eventBus := event.NewInMemoryEventBus(log)
	compensationHandler := orderapp.NewCompensationHandler(orderRepo, log)
	eventBus.Subscribe(event.NewIdempotentHandler(compensationHandler, idempotencyStore, "compensation:", log))

	relay, err := newBrokerRelay(cfg, serializer, log)
	if err != nil {
		log.Fatal("Failed to connect event broker", zap.Error(err))
	}
	if relay != nil {
		defer func() {
			if err := relay.Close(); err != nil {
				log.Error("Error closing event broker relay", zap.Error(err))
			}
		}()
		eventBus.Subscribe(event.NewIdempotentHandler(relay, idempotencyStore, "relay:"+cfg.Event.Broker+":", log))
		log.Info("Event broker relay enabled", zap.String("broker", cfg.Event.Broker))
	}

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	if cfg.Event.ProcessorEnabled {
		processorConfig := event.OutboxProcessorConfigFrom(cfg.Event)
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, serializer, processorConfig, log)
		outboxProcessor.SetObserver(prom)
		if err := outboxProcessor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
	}
	if err := prom.WatchOutbox(outboxRepo, log); err != nil {
		log.Warn("Failed to register outbox metrics", zap.Error(err))
	}

	// Payment gateway
	gateway, err := paymentinfra.NewGateway(paymentinfra.TossConfigFromAppConfig(&cfg.Payment), log)
	if err != nil {
		log.Fatal("Invalid payment gateway configuration", zap.Error(err))
	}

	// Application services
	productService := catalogapp.NewProductService(productRepo)
	cartService := cartapp.NewCartService(cartRepo, productRepo)

	settlementService := orderapp.NewSettlementService(cartRepo, productRepo, orderRepo, log)
	settlementService.SetEventPublisher(outboxPublisher)
	settlementService.SetMetrics(prom)
	if cfg.Settlement.Transactional {
		settlementService.WithTransactionScope(persistence.NewGormTransactionScope(db.DB, outboxPublisher.TxPublisher))
		log.Info("Order settlement runs in a single transaction")
	}
	queryService := orderapp.NewQueryService(orderRepo, log)
	queryService.SetEventPublisher(outboxPublisher)

	reconciliationService := paymentapp.NewReconciliationService(paymentRepo, orderRepo, gateway, log).
		WithIdempotencyStore(idempotencyStore, cfg.Payment.ClaimTTL)
	reconciliationService.SetEventPublisher(outboxPublisher)

	// HTTP
	engine, err := router.NewEngine(router.EngineDeps{
		Config:   cfg,
		Logger:   log,
		Metrics:  prom,
		Exporter: prom.Handler(),
		Auth:     middleware.JWTAuth(auth.NewVerifier(cfg.JWT), log),
		Handlers: router.Handlers{
			Products: handler.NewProductHandler(productService),
			Carts:    handler.NewCartHandler(cartService),
			Orders:   handler.NewOrderHandler(settlementService, queryService),
			Payments: handler.NewPaymentHandler(reconciliationService, handler.RedirectConfig{
				SuccessBase: cfg.Payment.SuccessRedirect,
				FailBase:    cfg.Payment.FailRedirect,
			}),
			System: handler.NewSystemHandler(cfg.App.Name, version, db),
		},
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// brokerRelay forwards bus events to an external broker
type brokerRelay interface {
	shared.EventHandler
	Close() error
}

// newBrokerRelay connects the configured broker; nil when event.broker is none
func newBrokerRelay(cfg *config.Config, serializer *event.EventSerializer, log *zap.Logger) (brokerRelay, error) {
	switch cfg.Event.Broker {
	case config.BrokerRabbitMQ:
		return event.NewRabbitMQRelay(cfg.RabbitMQ, serializer, log)
	case config.BrokerKafka:
		return event.NewKafkaRelay(event.NewKafkaWriter(cfg.Kafka), cfg.Kafka, serializer, log), nil
	default:
		return nil, nil
	}
}
