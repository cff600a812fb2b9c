package compute

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/reliabilitypro/reliabilitypro/agent/internal/collector"
	"github.com/reliabilitypro/reliabilitypro/pkg/asset"
	"github.com/reliabilitypro/reliabilitypro/pkg/health"
	"github.com/reliabilitypro/reliabilitypro/pkg/report"
)

// Engine maintains per-asset diagnostic sessions and per-source uptime
// across collection cycles.
//
// All exported methods are safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	catalog  *asset.Catalog
	tk       *health.Toolkit
	sessions map[string]*health.Session
	uptimes  map[string]*uptime
}

// NewEngine returns an Engine diagnosing the assets in catalog with the
// thresholds in cfg.
func NewEngine(catalog *asset.Catalog, cfg health.Config) *Engine {
	return &Engine{
		catalog:  catalog,
		tk:       health.NewToolkit(cfg),
		sessions: make(map[string]*health.Session),
		uptimes:  make(map[string]*uptime),
	}
}

// Reconfigure swaps the catalog and thresholds. Sessions are discarded so
// the next cycle is assessed entirely under the new limits; uptime history
// survives.
func (e *Engine) Reconfigure(catalog *asset.Catalog, cfg health.Config) {
	tk := health.NewToolkit(cfg)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.catalog = catalog
	e.tk = tk
	e.sessions = make(map[string]*health.Session)
}

// Process runs every domain present in s through the asset's session and
// returns the resulting report. It never returns nil: a failed collection
// or a rejected measurement yields a report with ErrorMessage set, carrying
// whatever the session already knew.
func (e *Engine) Process(s *collector.Sample, now time.Time) *report.Report {
	e.mu.Lock()
	defer e.mu.Unlock()

	up := e.uptimeFor(s.SourceID)
	up.record(s.Err == nil)

	sess, err := e.sessionFor(s.AssetTag)
	if err != nil {
		slog.Warn("compute: unknown asset", "source", s.SourceID, "asset", s.AssetTag, "err", err)
		return &report.Report{
			AssetTag:     s.AssetTag,
			Source:       s.SourceID,
			Timestamp:    now,
			UptimePct:    up.pct(),
			ErrorMessage: err.Error(),
		}
	}

	if s.Err != nil {
		slog.Warn("compute: collection failed", "source", s.SourceID, "asset", s.AssetTag, "err", s.Err)
		err = s.Err
	} else {
		err = run(sess, s)
		if err != nil {
			slog.Warn("compute: measurement rejected", "source", s.SourceID, "asset", s.AssetTag, "err", err)
		}
	}

	out := report.FromSession(sess, s.SourceID, now)
	out.UptimePct = up.pct()
	if err != nil {
		out.ErrorMessage = err.Error()
	}
	return out
}

// run feeds each measured domain to the session. A rejected domain does not
// stop the others.
func run(sess *health.Session, s *collector.Sample) error {
	var errs []error
	if s.Vibration != nil {
		if _, err := sess.RunVibration(*s.Vibration, s.Temperatures, s.Noise); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Electrical != nil {
		if _, err := sess.RunElectrical(*s.Electrical); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Hydraulic != nil {
		if s.Design == nil {
			errs = append(errs, fmt.Errorf("hydraulic readings without a design point"))
		} else if _, err := sess.RunHydraulic(*s.Hydraulic, *s.Design); err != nil {
			errs = append(errs, err)
		}
	}
	if len(s.Peaks) > 0 {
		if _, err := sess.RunSpectrum(s.Peaks); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Visual != nil {
		if _, err := sess.RunVisual(*s.Visual); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Assets returns the tags with an open session.
func (e *Engine) Assets() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	tags := make([]string, 0, len(e.sessions))
	for tag := range e.sessions {
		tags = append(tags, tag)
	}
	return tags
}

func (e *Engine) sessionFor(tag string) (*health.Session, error) {
	if sess, ok := e.sessions[tag]; ok {
		return sess, nil
	}
	a, err := e.catalog.Get(tag)
	if err != nil {
		return nil, err
	}
	sess := health.NewSessionWith(a, e.tk)
	e.sessions[tag] = sess
	return sess, nil
}

func (e *Engine) uptimeFor(id string) *uptime {
	if u, ok := e.uptimes[id]; ok {
		return u
	}
	u := &uptime{}
	e.uptimes[id] = u
	return u
}
