package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/form-tools-mcp/internal/extract"
	"github.com/ironsheep/form-tools-mcp/internal/metrics"
	"github.com/ironsheep/form-tools-mcp/internal/server"
)

const metricsShutdownTimeout = 5 * time.Second

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP tool server on stdin/stdout",
	Long: `Start a JSON-RPC 2.0 MCP server over stdio exposing form_extract,
form_template_validate, form_template_bootstrap, image_ocr_full and
image_info. Logs go to stderr.

With --metrics-addr a Prometheus /metrics endpoint is served over HTTP.

Examples:
  form-mcp serve
  form-mcp serve --metrics-addr :9090 --workers 4`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		metricsAddr := cfg.Server.MetricsAddr
		if cmd.Flags().Changed("metrics-addr") {
			metricsAddr, _ = cmd.Flags().GetString("metrics-addr")
		}

		workers := cfg.Extract.Workers
		if cmd.Flags().Changed("workers") {
			workers, _ = cmd.Flags().GetInt("workers")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		opts := []server.Option{
			server.WithLogger(slog.Default()),
			server.WithVersion(version),
			server.WithBootstrapDefaults(cfg.Bootstrap.DPI, cfg.Bootstrap.Language),
			server.WithExtractOptions(
				extract.WithWorkers(workers),
				extract.WithGridSegmentation(cfg.Extract.SegmentGrids),
				extract.WithPage(cfg.Extract.Page),
			),
		}

		rec, err := newRecognizer(cfg)
		if err != nil {
			slog.Warn("OCR unavailable, OCR tools will fail", "error", err)
		} else {
			defer func() { _ = rec.Close() }()
			opts = append(opts, server.WithOCR(rec))
		}

		if metricsAddr != "" {
			metricsServer := startMetricsServer(metricsAddr)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
				defer cancel()
				if err := metricsServer.Shutdown(shutdownCtx); err != nil {
					slog.Error("metrics server shutdown error", "error", err)
				}
			}()
		}

		slog.Info("starting MCP server", "version", version, "ocr", err == nil)
		if err := server.New(opts...).Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		slog.Info("MCP server stopped")
		return nil
	},
}

func startMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "error", err)
		}
	}()
	return srv
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("metrics-addr", "", "listen address for the Prometheus /metrics endpoint (disabled if empty)")
	serveCmd.Flags().Int("workers", 1, "fields recognized concurrently per extraction")
}
