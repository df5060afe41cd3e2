package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	leadershipservice "backoffice/contexts/leadership-governance/leadership-service"
	"backoffice/contexts/leadership-governance/leadership-service/adapters/audit"
	"backoffice/contexts/leadership-governance/leadership-service/adapters/metrics"
	postgresadapter "backoffice/contexts/leadership-governance/leadership-service/adapters/postgres"
	"backoffice/contexts/leadership-governance/leadership-service/ports"
	"backoffice/internal/platform/config"
	"backoffice/internal/platform/db"
	"backoffice/internal/platform/httpserver"
	"backoffice/internal/platform/messaging"
	"backoffice/internal/platform/telemetry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

// App owns the process-wide resources shared by the API and the worker loop.
type App struct {
	cfg             config.Config
	database        *db.Database
	bus             *messaging.Bus
	module          leadershipservice.Module
	metricsHandler  http.Handler
	shutdownTracing telemetry.ShutdownFunc
	logger          *slog.Logger
}

func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", cfg.ServiceName)

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.TracingExporter, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	database, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, err
	}

	var (
		observer       ports.Metrics = metrics.Noop{}
		metricsHandler http.Handler
	)
	if cfg.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		observer = metrics.NewPrometheus(registry)
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}

	bus := messaging.NewBus(cfg.OutboxBatchSize, logger)
	repo := postgresadapter.NewRepository(database.DB, logger)
	module := leadershipservice.NewModule(leadershipservice.Dependencies{
		Positions:       repo,
		Members:         repo,
		Operators:       repo,
		Elections:       repo,
		Candidates:      repo,
		Votes:           repo,
		Appointments:    repo,
		Finalizer:       repo,
		Outbox:          repo,
		Publisher:       bus,
		Subscriber:      bus,
		Audit:           audit.LogSink{Logger: logger},
		Metrics:         observer,
		Clock:           postgresadapter.SystemClock{},
		IDGen:           postgresadapter.UUIDGenerator{},
		OutboxBatchSize: cfg.OutboxBatchSize,
		Logger:          logger,
	})

	if err := grantOperators(ctx, repo, cfg.OperatorIDs); err != nil {
		bus.Close()
		_ = database.Close()
		_ = shutdownTracing(ctx)
		return nil, err
	}

	return &App{
		cfg:             cfg,
		database:        database,
		bus:             bus,
		module:          module,
		metricsHandler:  metricsHandler,
		shutdownTracing: shutdownTracing,
		logger:          logger,
	}, nil
}

// Migrate creates or updates the leadership schema and exits.
func Migrate(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.AutoMigrate = true
	database, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return database.Close()
}

// RunAPI serves HTTP until ctx is cancelled.
func (a *App) RunAPI(ctx context.Context) error {
	server := httpserver.New(a.module, a.metricsHandler, a.logger.With("process", "api"), normalizeAddr(a.cfg.HTTPPort))
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"http_port", a.cfg.HTTPPort,
	)
	return server.Run(ctx, a.cfg.ShutdownTimeout)
}

// RunWorker relays the outbox onto the event bus on every poll tick and runs
// the succession consumer until ctx is cancelled.
func (a *App) RunWorker(ctx context.Context) error {
	logger := a.logger.With("process", "worker")
	if err := a.module.Succession.Start(ctx); err != nil {
		return err
	}

	pollInterval := a.cfg.OutboxPollInterval
	if pollInterval <= 0 {
		pollInterval = leadershipservice.DefaultOutboxPollInterval
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", pollInterval.String(),
	)

	for {
		if _, err := a.module.OutboxRelay.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, messaging.ErrBusClosed) {
				return nil
			}
			logger.Warn("outbox relay cycle failed",
				"event", "bootstrap_worker_relay_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (a *App) Close() error {
	var errs []error
	if a.bus != nil {
		a.bus.Close()
	}
	if a.database != nil {
		if err := a.database.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownTracing(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func openDatabase(ctx context.Context, cfg config.Config, logger *slog.Logger) (*db.Database, error) {
	database, err := db.Connect(db.Options{
		Driver:      cfg.DatabaseDriver,
		PostgresDSN: cfg.PostgresDSN,
		SQLitePath:  cfg.SQLitePath,
		Tracing:     cfg.TracingExporter != config.TracingNone,
	})
	if err != nil {
		return nil, err
	}
	if !cfg.AutoMigrate {
		return database, nil
	}
	if err := postgresadapter.Migrate(ctx, database.DB); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("migrate leadership schema: %w", err)
	}
	logger.Info("leadership schema migrated",
		"event", "bootstrap_schema_migrated",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"driver", cfg.DatabaseDriver,
	)
	return database, nil
}

func grantOperators(ctx context.Context, repo *postgresadapter.Repository, operatorIDs []string) error {
	now := time.Now().UTC()
	for _, id := range operatorIDs {
		if err := repo.GrantOperator(ctx, id, now); err != nil {
			return fmt.Errorf("grant operator %s: %w", id, err)
		}
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
