package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"reqbench/pkg/benchmark"
	"reqbench/pkg/config"
	"reqbench/pkg/httpbench"
	"reqbench/pkg/logger"
	"reqbench/pkg/metrics"
	"reqbench/pkg/ui"
)

const shutdownTimeout = 5 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a demo server with profiling enabled",
	Long: `Run a small HTTP server whose pages are profiled. HTML pages carry the
report widget; every request is exported to Prometheus at the metrics path.`,
	Example: `  reqbench serve --addr :9000
  curl -s localhost:9000/ | grep benchmark-panel`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().String("memory-source", "", "memory probe (rusage, runtime)")
	serveCmd.Flags().Bool("enabled", true, "enable profiling")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	handler, err := newServerHandler(cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.LogComponentStart("server", map[string]interface{}{
		"addr":      cfg.Server.Addr,
		"profiling": cfg.Benchmark.IsEnabled(),
		"metrics":   cfg.Server.MetricsPath,
	})
	ui.PrintInfo("Listening", cfg.Server.Addr)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.LogComponentStop("server", "signal")
	return nil
}

// newServerHandler wires the demo pages, the widget routes and metrics
func newServerHandler(cfg *config.Config) (http.Handler, error) {
	reg := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)

	mw, err := httpbench.New(cfg.Benchmark, httpbench.WithRecorder(recorder))
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	httpbench.Routes(mux, cfg.Benchmark)
	if cfg.Server.MetricsPath != "" {
		mux.Handle("GET "+cfg.Server.MetricsPath, metrics.HTTPHandler(reg))
	}
	mux.HandleFunc("GET /api/items", demoItems)
	mux.HandleFunc("GET /{$}", demoPage)

	return mw.Wrap(mux), nil
}

type demoItem struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func loadItems(ctx context.Context, n int) []demoItem {
	items := make([]demoItem, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, demoItem{ID: i, Name: fmt.Sprintf("item-%03d", i)})
	}
	time.Sleep(15 * time.Millisecond)
	benchmark.Checkpoint(ctx, "items loaded")
	return items
}

func demoItems(w http.ResponseWriter, r *http.Request) {
	items := loadItems(r.Context(), 50)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(items)
}

func demoPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items := loadItems(ctx, 200)

	time.Sleep(5 * time.Millisecond)
	benchmark.Checkpoint(ctx, "template prepared")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, "<!DOCTYPE html>\n<html><head><title>reqbench</title></head><body>\n<h1>reqbench demo</h1>\n<ul>\n")
	for _, item := range items {
		fmt.Fprintf(w, "<li>%d %s</li>\n", item.ID, item.Name)
	}
	_, _ = io.WriteString(w, "</ul>\n</body></html>\n")
	benchmark.Checkpoint(ctx)
}
