package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/reliabilitypro/reliabilitypro/pkg/asset"
	"github.com/reliabilitypro/reliabilitypro/pkg/health"
	"github.com/reliabilitypro/reliabilitypro/pkg/logging"
	"github.com/reliabilitypro/reliabilitypro/server/internal/alerts"
	"github.com/reliabilitypro/reliabilitypro/server/internal/api"
	"github.com/reliabilitypro/reliabilitypro/server/internal/auth"
	"github.com/reliabilitypro/reliabilitypro/server/internal/config"
	"github.com/reliabilitypro/reliabilitypro/server/internal/metrics"
	"github.com/reliabilitypro/reliabilitypro/server/internal/receiver"
	"github.com/reliabilitypro/reliabilitypro/server/internal/store"
	"github.com/reliabilitypro/reliabilitypro/server/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is main without os.Exit, so deferred cleanup such as closing the
// rotated log file happens on every return path.
func run(args []string) int {
	fs := flag.NewFlagSet("reliabilitypro-server", flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "path to config file")
	uiDir := fs.String("ui-dir", "", "serve the board UI static files from this directory; leave empty to disable")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	closer, err := logging.Setup(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		return 1
	}
	defer closer.Close()

	catalog, err := cfg.Catalog()
	if err != nil {
		slog.Error("failed to build asset catalog", "err", err)
		return 1
	}
	toolkit := health.NewToolkit(cfg.Thresholds)

	slog.Info("reliabilitypro-server starting",
		"config", *configPath,
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"assets", catalog.Len(),
		"report_ttl", cfg.Server.Report.TTL,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	board := store.New(cfg.Server.Report.TTL)
	sessions := store.NewSessions(cfg.Server.Session.TTL)

	alertEngine := alerts.New(cfg.Server.Alerts, m)
	defer alertEngine.Close() //nolint:errcheck

	catalogFn := func() *asset.Catalog { return catalog }
	handler := api.New(api.Deps{
		Store:    board,
		Sessions: sessions,
		Catalog:  catalogFn,
		Toolkit:  func() *health.Toolkit { return toolkit },
		Alerts:   alertEngine,
		Metrics:  m,
	})
	hub := ws.New(func() any { return handler.Snapshot() }, cfg.Server.BroadcastInterval, m)

	requireKey := auth.APIKey(cfg.Server.Auth.Mode, cfg.Server.Auth.EffectiveHeader(), cfg.Server.Auth.Key())

	mux := http.NewServeMux()
	mux.Handle("/api/v1/reports", requireKey(receiver.New(board, catalogFn, alertEngine, m)))
	mux.Handle("/api/", requireKey(handler))
	mux.Handle("/ws/stream", hub)
	if cfg.Server.Metrics.Enabled {
		mux.Handle(cfg.Server.Metrics.Path, m.Handler())
	}

	// The "/" catch-all serves index.html for unknown paths (SPA routing).
	if *uiDir != "" {
		files := http.FileServer(http.Dir(*uiDir))
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if _, err := os.Stat(*uiDir + r.URL.Path); os.IsNotExist(err) {
				http.ServeFile(w, r, *uiDir+"/index.html")
				return
			}
			files.ServeHTTP(w, r)
		})
		slog.Info("serving UI static files", "dir", *uiDir)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		board.Run(ctx)
		return nil
	})
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	code := 0
	if err := g.Wait(); err != nil {
		slog.Error("server stopped with error", "err", err)
		code = 1
	}
	slog.Info("reliabilitypro-server shutting down", "reports", board.Count(), "sessions", sessions.Len())
	return code
}
