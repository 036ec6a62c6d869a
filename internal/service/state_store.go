package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/idcard-api/internal/models"
	appErrors "github.com/noah-isme/idcard-api/pkg/errors"
)

// StateStore keeps one AppState per session in memory. Callers receive copies; mutations go
// through Update so every change replaces the stored value under the lock.
type StateStore struct {
	mu      sync.RWMutex
	states  map[string]*models.AppState
	ttl     time.Duration
	now     func() time.Time
	metrics *MetricsService
	logger  *zap.Logger
	onEvict []func(sessionID string)
}

// NewStateStore creates a store whose sessions expire after ttl without activity.
func NewStateStore(ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *StateStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StateStore{
		states:  make(map[string]*models.AppState),
		ttl:     ttl,
		now:     time.Now,
		metrics: metrics,
		logger:  logger,
	}
}

// OnEvict registers a callback run after a session is deleted or expires.
func (s *StateStore) OnEvict(fn func(sessionID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = append(s.onEvict, fn)
}

// Put inserts or replaces the state for its session and stamps the expiry.
func (s *StateStore) Put(state models.AppState) models.AppState {
	now := s.now().UTC()
	state.UpdatedAt = now
	state.Session.ExpiresAt = now.Add(s.ttl)

	s.mu.Lock()
	s.states[state.Session.ID] = &state
	n := len(s.states)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(n)
	return state
}

// Get returns a copy of the session state.
func (s *StateStore) Get(sessionID string) (models.AppState, error) {
	s.mu.RLock()
	st, ok := s.states[sessionID]
	var out models.AppState
	if ok {
		out = *st
	}
	s.mu.RUnlock()

	if !ok || s.expired(out) {
		return models.AppState{}, appErrors.ErrSessionNotFound
	}
	return out, nil
}

// Update applies fn to a copy of the state and stores the result. The idle expiry slides forward.
// When fn returns an error the stored state is left untouched.
func (s *StateStore) Update(sessionID string, fn func(*models.AppState) error) (models.AppState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[sessionID]
	if !ok || s.expired(*st) {
		return models.AppState{}, appErrors.ErrSessionNotFound
	}
	next := *st
	if err := fn(&next); err != nil {
		return models.AppState{}, err
	}
	now := s.now().UTC()
	next.Session.ID = sessionID
	next.UpdatedAt = now
	next.Session.ExpiresAt = now.Add(s.ttl)
	s.states[sessionID] = &next
	return next, nil
}

// Delete removes the session. It reports whether a session was present.
func (s *StateStore) Delete(sessionID string) bool {
	s.mu.Lock()
	_, ok := s.states[sessionID]
	delete(s.states, sessionID)
	n := len(s.states)
	hooks := s.onEvict
	s.mu.Unlock()

	if ok {
		s.metrics.SetActiveSessions(n)
		for _, fn := range hooks {
			fn(sessionID)
		}
	}
	return ok
}

// Len reports the number of stored sessions, expired ones included until swept.
func (s *StateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// Sweep drops expired sessions and returns how many were removed.
func (s *StateStore) Sweep() int {
	s.mu.Lock()
	var removed []string
	for id, st := range s.states {
		if s.expired(*st) {
			delete(s.states, id)
			removed = append(removed, id)
		}
	}
	n := len(s.states)
	hooks := s.onEvict
	s.mu.Unlock()

	s.metrics.SetActiveSessions(n)
	for _, id := range removed {
		for _, fn := range hooks {
			fn(id)
		}
	}
	return len(removed)
}

// RunJanitor sweeps expired sessions every interval until ctx is done.
func (s *StateStore) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Info("expired card sessions swept", zap.Int("count", n))
			}
		}
	}
}

func (s *StateStore) expired(st models.AppState) bool {
	return !st.Session.ExpiresAt.IsZero() && s.now().After(st.Session.ExpiresAt)
}
