package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"funnel_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// Memory is the lead sink used without a database.
type Memory struct {
	mu    sync.Mutex
	leads []domain.Lead
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

func (m *Memory) Upsert(_ context.Context, c domain.Contact, intent string, score int) (uuid.UUID, error) {
	if c.Empty() {
		return uuid.Nil, domain.ErrNoContact
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for i := range m.leads {
		l := &m.leads[i]
		if !sameContact(*l, c) {
			continue
		}
		if l.Email == "" {
			l.Email = c.Email
		}
		if l.Phone == "" {
			l.Phone = c.Phone
		}
		if c.Name != "" {
			l.Name = c.Name
		}
		l.Intent = intent
		l.Score = max(l.Score, score)
		l.UpdatedAt = now
		return l.ID, nil
	}

	lead := domain.Lead{
		ID:        uuid.New(),
		Email:     c.Email,
		Phone:     c.Phone,
		Name:      c.Name,
		Intent:    intent,
		Score:     score,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.leads = append(m.leads, lead)
	return lead.ID, nil
}

// List returns a copy of all leads.
func (m *Memory) List() []domain.Lead {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Lead(nil), m.leads...)
}

func sameContact(l domain.Lead, c domain.Contact) bool {
	if c.Email != "" && strings.EqualFold(l.Email, c.Email) {
		return true
	}
	return c.Phone != "" && l.Phone == c.Phone
}

var _ domain.Sink = (*Memory)(nil)
