package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/felixgeelhaar/studio/adapter/api"
	"github.com/felixgeelhaar/studio/pkg/config"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Run the HTTP API on API_ADDR until interrupted.

With BROKER=inprocess the outbox processor and the integration
consumers run inside this process; other brokers leave them to
the worker.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		c := app.Container
		cfg := c.Config
		ctx := cmd.Context()

		if cfg.Broker == config.BrokerInProcess && cfg.OutboxProcessorEnabled {
			messaging, err := c.NewMessaging()
			if err != nil {
				return fmt.Errorf("failed to configure messaging: %w", err)
			}
			defer func() {
				if err := messaging.Close(); err != nil {
					Logger().Warn("failed to close messaging", "error", err)
				}
			}()
			go func() {
				if err := messaging.Listener.Start(ctx); err != nil {
					Logger().Error("event listener stopped", "error", err)
				}
			}()
			if err := messaging.Processor.Start(ctx); err != nil {
				return fmt.Errorf("failed to start outbox processor: %w", err)
			}
		}

		serverConfig := api.DefaultServerConfig()
		serverConfig.Addr = cfg.APIAddr
		server := api.NewServer(serverConfig, api.Services{
			Members:    c.Members,
			Coaches:    c.Coaches,
			Plans:      c.Plans,
			UnitOfWork: c.UnitOfWork,
			Health:     c.Health,
			Metrics:    c.Metrics,
		}, Logger())

		errCh := make(chan error, 1)
		go func() { errCh <- server.Start() }()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("API server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
