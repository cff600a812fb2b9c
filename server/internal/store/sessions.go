package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/reliabilitypro/reliabilitypro/pkg/asset"
	"github.com/reliabilitypro/reliabilitypro/pkg/health"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

type sessionEntry struct {
	mu      sync.Mutex
	session *health.Session
	created time.Time
}

// Sessions holds interactive diagnosis sessions. A session expires after
// ttl without use.
type Sessions struct {
	cache *cache.Cache
}

// SessionInfo describes a session without exposing it.
type SessionInfo struct {
	ID        string    `json:"id"`
	AssetTag  string    `json:"asset_tag"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSessions creates a session store. A zero ttl never expires sessions.
func NewSessions(ttl time.Duration) *Sessions {
	exp, cleanup := ttl, ttl/2
	if ttl <= 0 {
		exp, cleanup = cache.NoExpiration, 0
	}
	return &Sessions{cache: cache.New(exp, cleanup)}
}

// Create opens a session for a sharing the analyzers in tk.
func (s *Sessions) Create(a *asset.Asset, tk *health.Toolkit) SessionInfo {
	id := uuid.NewString()
	e := &sessionEntry{session: health.NewSessionWith(a, tk), created: time.Now().UTC()}
	s.cache.Set(id, e, cache.DefaultExpiration)
	return SessionInfo{ID: id, AssetTag: a.Tag(), CreatedAt: e.created}
}

// With runs fn with exclusive access to the session and renews its expiry.
func (s *Sessions) With(id string, fn func(*health.Session) error) error {
	v, ok := s.cache.Get(id)
	if !ok {
		return fmt.Errorf("store: %q: %w", id, ErrSessionNotFound)
	}
	e := v.(*sessionEntry)
	s.cache.Set(id, e, cache.DefaultExpiration)

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// Delete closes a session.
func (s *Sessions) Delete(id string) error {
	if _, ok := s.cache.Get(id); !ok {
		return fmt.Errorf("store: %q: %w", id, ErrSessionNotFound)
	}
	s.cache.Delete(id)
	return nil
}

// Len returns the number of open sessions, including expired ones not yet
// cleaned up.
func (s *Sessions) Len() int { return s.cache.ItemCount() }
