package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/testerpub/internal/api"
	"github.com/shaharia-lab/testerpub/internal/build"
	"github.com/shaharia-lab/testerpub/internal/config"
	"github.com/shaharia-lab/testerpub/internal/server"
)

// NewServeCmd returns the "serve" subcommand that starts the HTTP relay.
func NewServeCmd(cfg *config.AppConfig) *cobra.Command {
	var port int
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP relay",
		Long: `Start an HTTP server that accepts tester events and publishes them on the
broker. Endpoints:

  POST /api/events                     publish (session_id in the body)
  POST /api/sessions/{sessionID}/events publish for a session
  POST /api/logs                       log and publish
  GET  /health                         liveness and broker state
  GET  /metrics                        Prometheus metrics`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// CLI flags override env config.
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("transport") {
				cfg.Transport = transport
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return runServe(cmd, cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", cfg.Port, "HTTP server port (overrides PORT env var)")
	cmd.Flags().StringVar(&transport, "transport", cfg.Transport, "Broker transport: redis or memory (overrides TESTERPUB_TRANSPORT)")
	return cmd
}

func runServe(cmd *cobra.Command, cfg *config.AppConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	pub, err := a.publisher(ctx)
	if err != nil {
		return err
	}

	srv := server.New(api.New(pub, a.logger), cfg.Port, a.logger, a.registry, a.connector.Status)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", build.String())
	fmt.Fprintf(out, "Relay listening on http://localhost:%d (transport %s at %s)\n", cfg.Port, cfg.Transport, a.address)
	fmt.Fprintf(out, "Logs: %s\n\n", filepath.Join(cfg.LogDir(), "system.log"))

	a.logger.Info("server ready", "port", cfg.Port, "transport", cfg.Transport)
	return srv.Run(ctx)
}
