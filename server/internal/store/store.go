package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/reliabilitypro/reliabilitypro/pkg/health"
	"github.com/reliabilitypro/reliabilitypro/pkg/report"
)

// Entry is a report together with the time it was last received.
type Entry struct {
	Report    *report.Report `json:"report"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Store is a thread-safe board of the latest report per asset tag.
// A background goroutine (Run) periodically evicts entries that have not
// been updated within the configured TTL.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Entry
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL. A zero TTL keeps entries forever.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Put stores or replaces the report for r.AssetTag.
// Callers must not modify r after calling Put.
func (s *Store) Put(r *report.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[r.AssetTag] = &Entry{
		Report:    r,
		UpdatedAt: s.now(),
	}
}

// Get returns the live Entry for tag.
func (s *Store) Get(tag string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[tag]
	if !ok || !s.live(e, s.now()) {
		return nil, false
	}
	return e, true
}

// List returns all live entries sorted by asset tag.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	out := make([]*Entry, 0, len(s.data))
	for _, e := range s.data {
		if s.live(e, now) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Report.AssetTag < out[j].Report.AssetTag })
	return out
}

// Summary counts live assets by verdict condition. Reports without a
// verdict count as unknown.
type Summary struct {
	Total    int `json:"total"`
	Good     int `json:"good"`
	Warning  int `json:"warning"`
	Critical int `json:"critical"`
	Unknown  int `json:"unknown"`
}

// Summary returns the fleet condition counts.
func (s *Store) Summary() Summary {
	var sum Summary
	for _, e := range s.List() {
		sum.Total++
		switch e.Report.Condition() {
		case health.ConditionGood:
			sum.Good++
		case health.ConditionWarning:
			sum.Warning++
		case health.ConditionCritical:
			sum.Critical++
		default:
			sum.Unknown++
		}
	}
	return sum
}

// Count returns the total number of entries currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes entries whose UpdatedAt is older than now minus TTL.
// It returns the number of entries removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for tag, e := range s.data {
		if !s.live(e, now) {
			delete(s.data, tag)
			removed++
		}
	}
	return removed
}

func (s *Store) live(e *Entry, now time.Time) bool {
	return s.ttl <= 0 || e.UpdatedAt.After(now.Add(-s.ttl))
}

// Run starts the background TTL eviction loop. It ticks at half the TTL interval
// (minimum 1 second) so entries are evicted promptly. Run blocks until ctx is
// cancelled.
func (s *Store) Run(ctx context.Context) {
	if s.ttl <= 0 {
		<-ctx.Done()
		return
	}
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale reports", "count", n)
			}
		}
	}
}
