package reservation

import (
	"context"
	"sync"
	"time"
)

// Store persists at most one reservation per session.
type Store interface {
	Get(ctx context.Context, sessionID string) (Reservation, bool, error)
	// Put overwrites the reservation for r.SessionID.
	Put(ctx context.Context, r Reservation) error
	Delete(ctx context.Context, sessionID string) error
	// DeleteReservedBefore removes every reservation made before cutoff and
	// returns how many were removed.
	DeleteReservedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// MemoryStore keeps reservations in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]Reservation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Reservation)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (Reservation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[sessionID]
	return r, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, r Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[r.SessionID] = r
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, sessionID)
	return nil
}

func (s *MemoryStore) DeleteReservedBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, r := range s.items {
		if r.ReservedAt.Before(cutoff) {
			delete(s.items, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored reservations.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

var _ Store = (*MemoryStore)(nil)
