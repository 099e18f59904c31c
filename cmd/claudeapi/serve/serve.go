package servecmder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/claudeapi/api"
	"github.com/papercomputeco/claudeapi/cmd/claudeapi/bootstrap"
	"github.com/papercomputeco/claudeapi/pkg/config"
	"github.com/papercomputeco/claudeapi/pkg/logger"
)

const serveLongDesc string = `Run the HTTP API server.

Conversations are kept in memory for the lifetime of the process.
ANTHROPIC_API_KEY must be set in the environment or in a .env file.

Examples:
  claudeapi serve
  claudeapi serve --port 9000
  claudeapi serve --config ./claudeapi.toml --debug`

const serveShortDesc string = "Run the HTTP API server"

const shutdownTimeout = 10 * time.Second

type serveCommander struct {
	host string
	port int
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVar(&cmder.host, "host", "", "Host to listen on (default: API_SERVER_HOST or 0.0.0.0)")
	cmd.Flags().IntVarP(&cmder.port, "port", "p", 0, "Port to listen on (default: API_SERVER_PORT or 8000)")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if c.host != "" {
		cfg.Host = c.host
	}
	if c.port != 0 {
		cfg.Port = c.port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.NewLogger(debug)
	defer log.Sync()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	service, err := bootstrap.NewService(cfg, log, reg)
	if err != nil {
		return err
	}

	srv, err := api.NewServer(api.Config{ListenAddr: cfg.Addr()}, service, reg, log)
	if err != nil {
		return fmt.Errorf("could not create API server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("could not shut down API server: %w", err)
		}
		return nil
	}
}
