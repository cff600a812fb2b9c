package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reliabilitypro/reliabilitypro/agent/internal/config"
	"github.com/reliabilitypro/reliabilitypro/agent/internal/shipper"
	"github.com/reliabilitypro/reliabilitypro/pkg/health"
	"github.com/reliabilitypro/reliabilitypro/pkg/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is main without os.Exit, so the rotated log file is closed on every
// return path.
func run(args []string) int {
	fs := flag.NewFlagSet("reliabilitypro-agent", flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "path to config file")
	once := fs.Bool("once", false, "run a single inspection cycle, print the reports and exit")
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

	slog.Info("reliabilitypro-agent starting", "config", *configPath)
	slog.Info("config loaded",
		"server_endpoint", cfg.Agent.ServerEndpoint,
		"sources", len(cfg.Agent.Sources),
		"inspect_interval", cfg.Agent.InspectInterval,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	insp, err := newInspector(cfg)
	if err != nil {
		slog.Error("failed to build inspector", "err", err)
		return 1
	}

	if *once {
		return runOnce(ctx, insp)
	}

	ship := shipper.New(cfg.Agent)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ship.Run(ctx)
		return nil
	})

	g.Go(func() error {
		err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			if err := insp.reload(updated); err != nil {
				slog.Error("config reload rejected", "err", err)
				return
			}
			slog.Info("config hot-reloaded", "sources", len(updated.Agent.Sources))
		})
		if err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.Agent.InspectInterval)
		defer ticker.Stop()
		for {
			for _, r := range insp.cycle(ctx, time.Now().UTC()) {
				ship.Ship(r)
				slog.Debug("queued report", "asset", r.AssetTag, "condition", r.Condition())
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	_ = g.Wait()
	slog.Info("reliabilitypro-agent shutting down", "unsent", ship.Pending())
	return 0
}

// runOnce prints one cycle's reports as JSON. The exit code is 2 when any
// asset is critical and 1 when any source failed.
func runOnce(ctx context.Context, insp *inspector) int {
	reports := insp.cycle(ctx, time.Now().UTC())
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		slog.Error("encode reports", "err", err)
		return 1
	}
	code := 0
	for _, r := range reports {
		if r.ErrorMessage != "" && code == 0 {
			code = 1
		}
		if r.Condition() == health.ConditionCritical {
			code = 2
		}
	}
	return code
}
