package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reliabilitypro/reliabilitypro/agent/internal/collector"
	"github.com/reliabilitypro/reliabilitypro/agent/internal/compute"
	"github.com/reliabilitypro/reliabilitypro/agent/internal/config"
	"github.com/reliabilitypro/reliabilitypro/pkg/report"
)

// inspector owns the collectors and the engine. reload swaps both.
type inspector struct {
	mu         sync.Mutex
	engine     *compute.Engine
	collectors []sourceCollector
}

type sourceCollector struct {
	src config.Source
	c   collector.Collector
}

func newInspector(cfg *config.Config) (*inspector, error) {
	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}
	insp := &inspector{engine: compute.NewEngine(catalog, cfg.Thresholds)}
	insp.collectors = buildCollectors(cfg.Agent.Sources)
	if len(insp.collectors) == 0 {
		slog.Warn("no sources configured, agent will idle")
	}
	return insp, nil
}

func buildCollectors(sources []config.Source) []sourceCollector {
	var out []sourceCollector
	for _, src := range sources {
		c, err := collector.New(src)
		if err != nil {
			slog.Error("skipping source, could not build collector", "source", src.ID, "err", err)
			continue
		}
		out = append(out, sourceCollector{src: src, c: c})
		slog.Info("registered source", "id", src.ID, "type", src.Type, "asset", src.Asset)
	}
	return out
}

func (insp *inspector) reload(cfg *config.Config) error {
	catalog, err := cfg.Catalog()
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	collectors := buildCollectors(cfg.Agent.Sources)

	insp.mu.Lock()
	defer insp.mu.Unlock()
	insp.engine.Reconfigure(catalog, cfg.Thresholds)
	insp.collectors = collectors
	return nil
}

// cycle collects from every source concurrently and returns one report per
// source, in source order.
func (insp *inspector) cycle(ctx context.Context, now time.Time) []*report.Report {
	insp.mu.Lock()
	collectors := insp.collectors
	engine := insp.engine
	insp.mu.Unlock()

	samples := make([]*collector.Sample, len(collectors))
	g, gctx := errgroup.WithContext(ctx)
	for i, sc := range collectors {
		i, sc := i, sc
		g.Go(func() error {
			s, err := sc.c.Collect(gctx)
			if err != nil {
				s = &collector.Sample{SourceID: sc.src.ID, SourceType: sc.src.Type, AssetTag: sc.src.Asset, Err: err}
			}
			samples[i] = s
			return nil
		})
	}
	_ = g.Wait()

	reports := make([]*report.Report, 0, len(samples))
	for _, s := range samples {
		reports = append(reports, engine.Process(s, now))
	}
	return reports
}
