package shipper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/reliabilitypro/reliabilitypro/agent/internal/config"
	"github.com/reliabilitypro/reliabilitypro/pkg/report"
)

const (
	backoffInitial    = 1 * time.Second
	backoffMax        = 60 * time.Second
	backoffMultiplier = 2.0
	sendTimeout       = 10 * time.Second

	// ReportsPath is the server's ingestion endpoint.
	ReportsPath = "/api/v1/reports"
)

// permanentError marks a report the server will never accept.
type permanentError struct {
	status int
	msg    string
}

func (e *permanentError) Error() string {
	return fmt.Sprintf("server rejected report: %d %s", e.status, e.msg)
}

// Shipper buffers reports and posts them to the server.
// Ship() is non-blocking; when the buffer is full the oldest report is evicted.
// Run() must be called in a goroutine to drain the buffer.
type Shipper struct {
	cfg    config.AgentConfig
	url    string
	buf    chan *report.Report
	client *http.Client
	sleep  func(ctx context.Context, d time.Duration) bool // injectable for tests
}

// New creates a Shipper using the given agent config.
func New(cfg config.AgentConfig) *Shipper {
	return &Shipper{
		cfg:    cfg,
		url:    strings.TrimRight(cfg.ServerEndpoint, "/") + ReportsPath,
		buf:    make(chan *report.Report, cfg.BufferSize),
		client: &http.Client{Timeout: sendTimeout},
		sleep:  sleepCtx,
	}
}

// Ship enqueues r. If the buffer is full the oldest entry is evicted to make room.
func (s *Shipper) Ship(r *report.Report) {
	select {
	case s.buf <- r:
	default:
		select {
		case old := <-s.buf:
			slog.Warn("shipper: buffer full, evicted oldest report",
				"asset", old.AssetTag, "buffer_cap", cap(s.buf))
		default:
		}
		select {
		case s.buf <- r:
		default:
		}
	}
}

// Pending returns the number of buffered reports.
func (s *Shipper) Pending() int { return len(s.buf) }

// Run drains the buffer, posting reports to the server. After a transient
// failure the report is retried after a backoff delay. Run blocks until ctx
// is cancelled.
func (s *Shipper) Run(ctx context.Context) {
	bo := newBackoff()
	for {
		var r *report.Report
		select {
		case <-ctx.Done():
			return
		case r = <-s.buf:
		}

		for {
			err := s.send(ctx, r)
			if err == nil {
				bo.reset()
				slog.Debug("shipper: report delivered", "asset", r.AssetTag)
				break
			}
			var perm *permanentError
			if errors.As(err, &perm) {
				slog.Error("shipper: permanent send error, discarding report",
					"asset", r.AssetTag, "err", err)
				break
			}
			if ctx.Err() != nil {
				return
			}
			wait := bo.next()
			slog.Warn("shipper: send failed, will retry",
				"endpoint", s.url, "asset", r.AssetTag, "err", err, "retry_in", wait)
			if !s.sleep(ctx, wait) {
				return
			}
		}
	}
}

// send posts one report. 4xx responses are permanent.
func (s *Shipper) send(ctx context.Context, r *report.Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return &permanentError{msg: fmt.Sprintf("encode: %v", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return &permanentError{msg: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.ServerAuth.Mode == "apikey" {
		req.Header.Set(s.cfg.ServerAuth.EffectiveHeader(), s.cfg.ServerAuth.Key())
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		return &permanentError{status: resp.StatusCode, msg: strings.TrimSpace(string(msg))}
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// backoff implements truncated exponential backoff with jitter.
type backoff struct {
	current time.Duration
}

func newBackoff() *backoff {
	return &backoff{current: backoffInitial}
}

// next returns the current backoff duration and advances the internal state.
func (b *backoff) next() time.Duration {
	d := b.current
	// ±25 % jitter
	jitter := time.Duration(float64(b.current) * 0.25 * (rand.Float64()*2 - 1)) //nolint:gosec // not crypto
	d += jitter
	if d < 0 {
		d = 0
	}

	b.current = time.Duration(float64(b.current) * backoffMultiplier)
	if b.current > backoffMax {
		b.current = backoffMax
	}
	return d
}

func (b *backoff) reset() {
	b.current = backoffInitial
}
