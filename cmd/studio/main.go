package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/studio/adapter/cli"
	"github.com/felixgeelhaar/studio/adapter/cli/coach"
	"github.com/felixgeelhaar/studio/adapter/cli/member"
	"github.com/felixgeelhaar/studio/adapter/cli/plan"
	"github.com/felixgeelhaar/studio/internal/app"
	"github.com/felixgeelhaar/studio/pkg/config"
	"github.com/felixgeelhaar/studio/pkg/observability"
)

func main() {
	// Create context cancelled on shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel))
	slog.SetDefault(logger)
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		// Commands that need the database report ErrNoApp.
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		cli.SetApp(cli.NewApp(container))
	}

	// Register commands
	cli.AddCommand(member.Cmd)
	cli.AddCommand(coach.Cmd)
	cli.AddCommand(plan.Cmd)

	err = cli.Execute(ctx)
	if container != nil {
		container.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}
