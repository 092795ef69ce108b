package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/pthm/hxnav"
	"github.com/pthm/hxnav/internal/demo"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the demo blog server",
	Long:  `Serves the demo blog with server rendering, exposing Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}
		logger := newLogger(cmd, cfg)

		handler, err := newServeHandler(cfg, logger, prometheus.NewRegistry())
		if err != nil {
			return err
		}
		return listen(cmd.Context(), &http.Server{Addr: cfg.Addr, Handler: handler}, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address; overrides the config")
}

// newServeHandler mounts the metrics endpoint and the demo blog.
func newServeHandler(cfg *hxnav.Config, logger *slog.Logger, reg *prometheus.Registry) (http.Handler, error) {
	reg.MustRegister(collectors.NewGoCollector())

	srv, err := hxnav.NewServer(cfg, demo.NewRoutes(demo.NewSampleStore()),
		hxnav.WithLogger(logger),
		hxnav.WithMetrics(hxnav.NewMetrics(reg)),
		hxnav.WithOnRouteHandled(func(rh hxnav.RouteHandled) {
			logger.Info("route handled", "route", rh.Route, "path", rh.Request.URL.Path, "status", rh.Status)
		}),
	)
	if err != nil {
		return nil, err
	}

	mux := chi.NewRouter()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := hxnav.Render(w, r, statusPage(hxnav.RequestID(r))); err != nil {
			logger.Error("render status page", "error", err)
		}
	})
	return srv.Middleware(mux), nil
}

// statusPage is the health check body.
func statusPage(requestID string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<!DOCTYPE html><html><head><title>hxnav</title></head>`+
			`<body><p>ok</p><p>version %s</p><p>request %s</p></body></html>`,
			templ.EscapeString(version), templ.EscapeString(requestID))
		return err
	})
}

// listen serves until ctx ends or the process is signalled, then shuts down
// gracefully.
func listen(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown did not complete", "error", err)
			return srv.Close()
		}
		return nil
	}
}
