package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionsConfig controls the in-memory lifetime of cart sessions.
type SessionsConfig struct {
	// KeyPrefix is prepended to the session id to form the snapshot key.
	KeyPrefix string
	// IdleTTL is how long an untouched cart stays in memory. Zero disables
	// eviction.
	IdleTTL time.Duration
}

type session struct {
	store    *Store
	lastSeen time.Time
}

// Sessions owns the carts of all live sessions. A cart is loaded from its
// snapshot on first access and dropped from memory after IdleTTL without
// access. A cart whose snapshot could not be written stays in memory until a
// retried write succeeds.
type Sessions struct {
	cfg       SessionsConfig
	persister Persister
	lg        *zap.Logger
	metrics   *Metrics
	now       func() time.Time

	mu     sync.Mutex
	stores map[string]*session
}

// NewSessions creates an empty registry.
func NewSessions(cfg SessionsConfig, persister Persister, lg *zap.Logger, m *Metrics) *Sessions {
	if persister == nil {
		persister = Discard{}
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Sessions{
		cfg:       cfg,
		persister: persister,
		lg:        lg,
		metrics:   m,
		now:       time.Now,
		stores:    make(map[string]*session),
	}
}

// Get returns the cart of the given session, loading it on first access.
func (s *Sessions) Get(ctx context.Context, sessionID string) *Store {
	if st := s.lookup(sessionID); st != nil {
		return st
	}

	// Load outside the lock so a slow backend does not stall other sessions.
	loaded := Open(ctx, s.cfg.KeyPrefix+sessionID, s.persister, s.lg, s.metrics)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.stores[sessionID]; ok {
		existing.lastSeen = s.now()
		return existing.store
	}
	s.stores[sessionID] = &session{store: loaded, lastSeen: s.now()}
	s.metrics.sessionDelta(ctx, 1)
	return loaded
}

func (s *Sessions) lookup(sessionID string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.stores[sessionID]
	if !ok {
		return nil
	}
	sess.lastSeen = s.now()
	return sess.store
}

// Len returns the number of carts held in memory.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stores)
}

// EvictIdle drops carts not accessed within IdleTTL of now and returns how
// many were dropped. Dirty carts are flushed first and kept if the write fails
// again.
func (s *Sessions) EvictIdle(ctx context.Context, now time.Time) int {
	if s.cfg.IdleTTL <= 0 {
		return 0
	}

	idle := make(map[string]*session)
	s.mu.Lock()
	for id, sess := range s.stores {
		if now.Sub(sess.lastSeen) >= s.cfg.IdleTTL {
			idle[id] = sess
		}
	}
	s.mu.Unlock()

	// Flush outside the lock so a slow backend does not stall other sessions.
	kept := 0
	for id, sess := range idle {
		if !sess.store.Flush(ctx) {
			delete(idle, id)
			kept++
		}
	}
	if kept > 0 {
		s.lg.Warn("Kept idle carts with unsaved changes", zap.Int("count", kept))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range idle {
		cur, ok := s.stores[id]
		if !ok || cur != sess || now.Sub(sess.lastSeen) < s.cfg.IdleTTL || sess.store.Dirty() {
			continue
		}
		delete(s.stores, id)
		evicted++
	}
	s.metrics.sessionDelta(ctx, -int64(evicted))
	return evicted
}

// Run evicts idle carts every interval until ctx is cancelled.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.EvictIdle(ctx, now); n > 0 {
				s.lg.Debug("Evicted idle carts", zap.Int("count", n))
			}
		}
	}
}
