package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	httpapi "github.com/shestoi/iapdemo/internal/api/http"
	"github.com/shestoi/iapdemo/internal/catalog"
	"github.com/shestoi/iapdemo/internal/config"
	eventkafka "github.com/shestoi/iapdemo/internal/event/kafka"
	"github.com/shestoi/iapdemo/internal/identifiers"
	"github.com/shestoi/iapdemo/internal/notify"
	"github.com/shestoi/iapdemo/internal/presentation"
	"github.com/shestoi/iapdemo/internal/purchase"
	"github.com/shestoi/iapdemo/internal/repository"
	"github.com/shestoi/iapdemo/internal/repository/memory"
	"github.com/shestoi/iapdemo/internal/repository/postgres"
	redisledger "github.com/shestoi/iapdemo/internal/repository/redis"
	"github.com/shestoi/iapdemo/internal/service"
	"github.com/shestoi/iapdemo/internal/storekit/local"
	platformlogging "github.com/shestoi/iapdemo/platform/logging"
	platformobservability "github.com/shestoi/iapdemo/platform/observability"
	platformshutdown "github.com/shestoi/iapdemo/platform/shutdown"
)

const serviceName = "storefront"

// ledger is a finished-transaction store the readiness probe can ping.
type ledger interface {
	repository.FinishedTransactionStore
	Ping(ctx context.Context) error
}

// App holds everything needed to run and gracefully stop the storefront.
type App struct {
	logger      *zap.Logger
	httpServer  *http.Server
	storefront  *service.Storefront
	shutdownMgr *platformshutdown.Manager
	readiness   func() bool
	wg          sync.WaitGroup
}

// Build wires the storefront dependencies.
func Build(cfg config.Config) (*App, error) {
	const op = "app.Build"

	logger, err := platformlogging.New(platformlogging.Config{
		ServiceName: serviceName,
		Env:         string(cfg.AppEnv),
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Building storefront",
		zap.String("op", op),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("ledger_backend", string(cfg.LedgerBackend)))

	// traces and metrics, noop when OTEL_ENABLED=false
	otelShutdown, err := platformobservability.Init(context.Background(), platformobservability.Config{
		Enabled:               cfg.OTelEnabled,
		OTLPEndpoint:          cfg.OTelEndpoint,
		SamplingRatio:         cfg.OTelSamplingRatio,
		ServiceName:           serviceName,
		DeploymentEnvironment: string(cfg.AppEnv),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: observability: %w", op, err)
	}

	metrics, err := newMetricsRecorder(otel.Meter(serviceName))
	if err != nil {
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("%s: metrics: %w", op, err)
	}

	shutdownMgr := platformshutdown.New(cfg.ShutdownTimeout, logger)
	// registered first so it runs last and flushes everything recorded during shutdown
	shutdownMgr.Add("otel", otelShutdown)

	store, closeLedger, err := buildLedger(cfg, logger)
	if err != nil {
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("%s: ledger: %w", op, err)
	}
	shutdownMgr.Add("ledger", closeLedger)

	readiness := func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return store.Ping(ctx) == nil
	}

	storeKitCfg, err := local.LoadConfig(cfg.StoreKitConfig)
	if err != nil {
		_ = closeLedger(context.Background())
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("%s: storekit config: %w", op, err)
	}
	backend := local.New(storeKitCfg, logger.Named("storekit"))
	shutdownMgr.Add("storekit", platformshutdown.Close(backend))

	hub := notify.NewHub(logger, 0)

	catalogMgr := catalog.NewManager(logger, backend, hub, metrics)
	coordinator := purchase.NewCoordinator(logger, backend, store, hub, metrics)

	hub.Subscribe(func(ctx context.Context, e notify.Event) {
		platformobservability.L(ctx, logger).Info("notification",
			zap.String("kind", string(e.Kind)),
			zap.String("status", e.Status),
			zap.String("text", presentation.Describe(e, catalogMgr.TitleForIdentifier)))
	})

	if cfg.Kafka.Enabled {
		publisher := eventkafka.NewNotificationPublisher(logger, cfg.Kafka)
		unsubscribe := hub.Subscribe(publisher.Handle)
		shutdownMgr.Add("kafka_publisher", func(ctx context.Context) error {
			unsubscribe()
			return publisher.Close()
		})
		logger.Info("Kafka notification sink enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}

	storefront := service.NewStorefront(
		logger,
		catalogMgr,
		coordinator,
		hub,
		hub,
		identifiers.Load,
		cfg.ProductIDsPath,
	)

	handler := httpapi.NewHandler(storefront, logger)
	router := httpapi.NewRouter(handler, readiness, logger)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	shutdownMgr.Add("http_server", platformshutdown.ShutdownHTTPServer(httpServer))

	return &App{
		logger:      logger,
		httpServer:  httpServer,
		storefront:  storefront,
		shutdownMgr: shutdownMgr,
		readiness:   readiness,
	}, nil
}

// buildLedger opens the store selected by LEDGER_BACKEND and returns its close function.
func buildLedger(cfg config.Config, logger *zap.Logger) (ledger, func(context.Context) error, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cfg.LedgerBackend {
	case config.LedgerRedis:
		opts, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := goredis.NewClient(opts)
		store := redisledger.NewFinishedTransactionStore(client, cfg.LedgerTTL, logger)
		if err := store.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		logger.Info("Redis connection established")
		return store, platformshutdown.Close(client), nil

	case config.LedgerPostgres:
		if err := postgres.Migrate(ctx, cfg.PostgresDSN); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := postgres.NewFinishedTransactionStore(pool)
		if err := store.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("PostgreSQL connection established")
		return store, platformshutdown.ClosePool(pool), nil

	case config.LedgerMemory:
		logger.Warn("Using in-memory ledger, finished transactions are lost on restart")
		return memory.NewFinishedTransactionStore(), func(context.Context) error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}
}

// Run serves HTTP, requests the product list once and blocks until shutdown.
func (a *App) Run() error {
	defer platformlogging.Sync(a.logger)

	a.logger.Info("Starting storefront", zap.String("addr", a.httpServer.Addr))
	a.logger.Info("Health check available", zap.String("url", "http://"+a.httpServer.Addr+"/health"))

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	if !a.readiness() {
		a.logger.Warn("Ledger is not reachable yet")
	}

	if err := a.storefront.Refresh(context.Background()); err != nil {
		a.logger.Warn("Initial product request was not sent", zap.Error(err))
	}

	a.shutdownMgr.Wait()

	a.wg.Wait()
	a.logger.Info("Storefront stopped")
	return nil
}
