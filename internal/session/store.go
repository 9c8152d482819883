package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"funnel_backend/platform/keylock"
	"funnel_backend/platform/logger"
)

// ErrLockTimeout is returned when a session lock cannot be obtained in time.
var ErrLockTimeout = errors.New("session lock timeout")

// Store persists sessions and serializes work per session id.
type Store interface {
	// Get returns the session or ok=false when none exists.
	Get(ctx context.Context, id string) (*Session, bool, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	// Lock blocks until the caller holds the session. The returned func
	// releases it.
	Lock(ctx context.Context, id string) (func(), error)
}

// MemoryStore keeps sessions in process memory and evicts idle ones.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	locks    *keylock.Map
	idleTTL  time.Duration
	now      func() time.Time
	log      *logger.Logger
}

func NewMemoryStore(idleTTL time.Duration, log *logger.Logger) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		locks:    keylock.New(),
		idleTTL:  idleTTL,
		now:      time.Now,
		log:      log,
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false, nil
	}
	if m.idle(s) {
		delete(m.sessions, id)
		return nil, false, nil
	}
	return s.Clone(), true, nil
}

func (m *MemoryStore) Put(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) Lock(ctx context.Context, id string) (func(), error) {
	unlock, err := m.locks.Lock(ctx, id)
	if err != nil {
		return nil, ErrLockTimeout
	}
	return unlock, nil
}

// EvictIdle drops every session idle longer than the TTL.
func (m *MemoryStore) EvictIdle() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if m.idle(s) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Run evicts idle sessions every interval until ctx is cancelled.
func (m *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	if m.idleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.EvictIdle(); n > 0 {
				m.log.Debug("idle sessions evicted", slog.Int("count", n))
			}
		}
	}
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MemoryStore) idle(s *Session) bool {
	return m.idleTTL > 0 && m.now().Sub(s.UpdatedAt) > m.idleTTL
}

var _ Store = (*MemoryStore)(nil)
