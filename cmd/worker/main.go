package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/studio/internal/app"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/studio/pkg/config"
	"github.com/felixgeelhaar/studio/pkg/observability"
)

func main() {
	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logCfg := observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel)
	logCfg.Component = "worker"
	logger := observability.NewLogger(logCfg)
	slog.SetDefault(logger)

	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting studio worker", "broker", cfg.Broker)
	if cfg.Broker == config.BrokerInProcess {
		logger.Warn("BROKER=inprocess delivers only inside this process; the API server does not reach this worker")
	}

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	messaging, err := container.NewMessaging()
	if err != nil {
		logger.Error("failed to configure messaging", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := messaging.Close(); err != nil {
			logger.Warn("failed to close messaging", "error", err)
		}
	}()

	processor := messaging.Processor
	container.Health.Register("outbox", outboxChecker(processor))

	if messaging.Listener != nil {
		go func() {
			if err := messaging.Listener.Start(ctx); err != nil {
				logger.Error("event listener stopped", "error", err)
				cancel()
			}
		}()
	}

	logger.Info("starting outbox processor",
		"poll_interval", cfg.OutboxPollInterval,
		"batch_size", cfg.OutboxBatchSize,
		"max_retries", cfg.OutboxMaxRetries,
	)
	if err := processor.Start(ctx); err != nil {
		logger.Error("failed to start outbox processor", "error", err)
		os.Exit(1)
	}

	go runCleanup(ctx, container.OutboxRepo, cfg, logger)
	go runStats(ctx, container, processor, cfg.OutboxStatsInterval, logger)

	if cfg.WorkerHealthAddr != "" {
		startHealthServer(ctx, cfg.WorkerHealthAddr, container.Health, processor, logger)
	}

	// Wait for shutdown
	<-ctx.Done()
	logger.Info("shutting down worker")
	processor.Stop()
	logger.Info("worker stopped")
}

// outboxChecker reports a stopped processor as unhealthy and a failing
// latest batch as degraded.
func outboxChecker(p *outbox.Processor) observability.HealthChecker {
	return func(ctx context.Context) observability.HealthCheckResult {
		stats := p.GetStats()
		if !stats.IsRunning {
			return observability.HealthCheckResult{Status: observability.HealthStatusUnhealthy, Message: "outbox processor is not running"}
		}
		if stats.LastErrorAt != nil && (stats.LastProcessedAt == nil || stats.LastErrorAt.After(*stats.LastProcessedAt)) {
			return observability.HealthCheckResult{Status: observability.HealthStatusDegraded, Message: stats.LastError}
		}
		return observability.HealthCheckResult{Status: observability.HealthStatusHealthy, Message: "outbox processor running"}
	}
}

func runCleanup(ctx context.Context, store outbox.Store, cfg *config.Config, logger *slog.Logger) {
	ticker := time.NewTicker(cfg.OutboxCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -cfg.OutboxRetentionDays)
			deleted, err := store.PurgePublished(ctx, cutoff)
			if err != nil {
				logger.Error("outbox cleanup failed", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("outbox cleanup completed", "deleted", deleted, "retention_days", cfg.OutboxRetentionDays)
			}
		}
	}
}

func runStats(ctx context.Context, container *app.Container, p *outbox.Processor, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			container.RecordOutboxStats(p)
			stats := p.GetStats()
			logger.Info("outbox stats",
				"running", stats.IsRunning,
				"published", stats.PublishedCount,
				"failed", stats.FailedCount,
				"dead", stats.DeadCount,
				"lag_seconds", stats.LagSeconds,
				"oldest_message_at", stats.OldestMessageAt,
				"last_processed_at", stats.LastProcessedAt,
				"last_error_at", stats.LastErrorAt,
				"last_error", stats.LastError,
			)
		}
	}
}

func startHealthServer(ctx context.Context, addr string, health *observability.HealthRegistry, p *outbox.Processor, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		stats := p.GetStats()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":            "ok",
			"running":           stats.IsRunning,
			"published":         stats.PublishedCount,
			"failed":            stats.FailedCount,
			"dead":              stats.DeadCount,
			"last_processed_at": stats.LastProcessedAt,
			"last_error_at":     stats.LastErrorAt,
			"last_error":        stats.LastError,
		})
	})
	mux.Handle("GET /readyz", health.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("health server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("health server shutdown error", "error", err)
		}
	}()
}
