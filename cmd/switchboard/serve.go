package main

import (
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aretw0/switchboard/internal/cli"
	"github.com/aretw0/switchboard/internal/config"
	httpapi "github.com/aretw0/switchboard/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the session API, the SSE event stream and Prometheus metrics over HTTP.
Stops gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		cfg, err := cli.LoadConfig(globals)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		cfg.Engine.Metrics = true

		st, err := config.Build(sigCtx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		handler := httpapi.NewHandler(st.Engine,
			httpapi.WithLogger(st.Logger),
			httpapi.WithMetricsHandler(promhttp.HandlerFor(st.Registry, promhttp.HandlerOpts{})),
		)

		ln, err := net.Listen("tcp", cfg.Server.Addr)
		if err != nil {
			return err
		}
		srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
		return cli.Serve(sigCtx, srv, ln, cfg.Server.ShutdownTimeout, st.Logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides server.addr)")
}
