package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reliabilitypro/reliabilitypro/pkg/report"
	"github.com/reliabilitypro/reliabilitypro/server/internal/config"
)

const defaultCooldown = 15 * time.Minute

// Alert states.
const (
	StateFiring   = "firing"
	StateResolved = "resolved"
)

// Alert represents a single alert event produced by the rule engine.
type Alert struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	AssetTag   string     `json:"asset_tag"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"`
}

// Recorder is notified of every firing.
type Recorder interface {
	AlertFired(rule, severity string)
}

// Engine evaluates alert rules against incoming reports and delivers
// notifications when rules fire or resolve.
//
// Engine is safe for concurrent use.
type Engine struct {
	rules    []config.AlertRule
	webhooks []config.WebhookConfig
	amqp     map[int]*amqpPublisher
	rec      Recorder

	mu       sync.Mutex
	active   map[string]*Alert    // key: "ruleName:assetTag"
	lastFire map[string]time.Time // last fire time per key (for cooldown)
	client   *http.Client
	now      func() time.Time
	wg       sync.WaitGroup
}

// New creates an Engine from the server alert configuration. Rules whose
// condition does not parse are dropped with an error log. rec may be nil.
func New(cfg config.AlertsConfig, rec Recorder) *Engine {
	e := &Engine{
		webhooks: cfg.Webhooks,
		amqp:     make(map[int]*amqpPublisher),
		rec:      rec,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
	for _, r := range cfg.Rules {
		if err := ValidateCondition(r.Condition); err != nil {
			slog.Error("alerts: ignoring rule", "rule", r.Name, "err", err)
			continue
		}
		e.rules = append(e.rules, r)
	}
	for i, wh := range cfg.Webhooks {
		if wh.Type == "amqp" {
			e.amqp[i] = newAMQPPublisher(wh)
		}
	}
	return e
}

// Evaluate tests all configured rules against r.
// Alerts that fire are stored and delivery is triggered asynchronously.
// Alerts that were firing but whose condition is now false are resolved.
// A rule whose field is absent from r leaves its alert untouched.
func (e *Engine) Evaluate(r *report.Report) {
	if len(e.rules) == 0 {
		return
	}

	now := e.now()
	for _, rule := range e.rules {
		key := rule.Name + ":" + r.AssetTag
		fires, value, known := evalCondition(rule.Condition, r)
		if !known {
			continue
		}

		e.mu.Lock()
		if fires {
			e.fire(rule, r.AssetTag, key, value, now)
		} else {
			e.resolve(rule, key, now)
		}
		e.mu.Unlock()
	}
}

// fire must be called with e.mu held.
func (e *Engine) fire(rule config.AlertRule, tag, key string, value float64, now time.Time) {
	if _, firing := e.active[key]; firing {
		return
	}
	cooldown := rule.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	if last, ok := e.lastFire[key]; ok && now.Sub(last) < cooldown {
		return
	}
	sev := rule.Severity
	if sev == "" {
		sev = "warning"
	}
	a := &Alert{
		ID:       uuid.NewString(),
		RuleName: rule.Name,
		AssetTag: tag,
		Severity: sev,
		Value:    value,
		Message:  fmt.Sprintf("[%s] %s fired on %s: %s (value %.2f)", sev, rule.Name, tag, rule.Condition, value),
		FiredAt:  now,
		State:    StateFiring,
	}
	e.active[key] = a
	e.lastFire[key] = now

	slog.Warn("alert fired", "rule", rule.Name, "asset", tag, "value", value, "severity", sev)
	if e.rec != nil {
		e.rec.AlertFired(rule.Name, sev)
	}
	e.dispatch(*a)
}

// resolve must be called with e.mu held.
func (e *Engine) resolve(rule config.AlertRule, key string, now time.Time) {
	a, ok := e.active[key]
	if !ok {
		return
	}
	delete(e.active, key)
	resolved := now
	a.State = StateResolved
	a.ResolvedAt = &resolved

	slog.Info("alert resolved", "rule", rule.Name, "asset", a.AssetTag)
	e.dispatch(*a)
}

func (e *Engine) dispatch(a Alert) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.deliver(&a)
	}()
}

// Active returns copies of all currently firing alerts, newest first.
func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*Alert, 0, len(e.active))
	for _, a := range e.active {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiredAt.After(out[j].FiredAt) })
	return out
}

// Close waits for pending deliveries and closes broker connections.
func (e *Engine) Close() error {
	e.wg.Wait()
	for _, p := range e.amqp {
		p.close()
	}
	return nil
}
