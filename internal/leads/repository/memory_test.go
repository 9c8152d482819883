package repository

import (
	"context"
	"errors"
	"testing"

	"funnel_backend/internal/leads/domain"
)

func TestMemoryUpsertDeduplicates(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	id1, err := m.Upsert(ctx, domain.Contact{Email: "jane@x.com"}, "BUYING", 40)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	id2, _ := m.Upsert(ctx, domain.Contact{Email: "JANE@x.com", Phone: "+447400123456"}, "LEAD_SUBMISSION", 20)
	if id1 != id2 {
		t.Fatalf("expected email match to reuse lead")
	}
	id3, _ := m.Upsert(ctx, domain.Contact{Phone: "+447400123456", Name: "Jane"}, "LEAD_SUBMISSION", 70)
	if id3 != id1 {
		t.Fatalf("expected phone match to reuse lead")
	}

	leads := m.List()
	if len(leads) != 1 {
		t.Fatalf("expected one lead, got %d", len(leads))
	}
	l := leads[0]
	if l.Score != 70 || l.Phone != "+447400123456" || l.Name != "Jane" || l.Email != "jane@x.com" {
		t.Fatalf("unexpected merged lead %+v", l)
	}

	if _, err := m.Upsert(ctx, domain.Contact{Email: "bob@x.com"}, "BUYING", 10); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if len(m.List()) != 2 {
		t.Fatalf("expected a second lead")
	}
}

func TestMemoryUpsertKeepsHigherScore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, _ = m.Upsert(ctx, domain.Contact{Email: "a@x.com"}, "BUYING", 80)
	_, _ = m.Upsert(ctx, domain.Contact{Email: "a@x.com"}, "CLOSING", 10)
	if got := m.List()[0].Score; got != 80 {
		t.Fatalf("expected score 80, got %d", got)
	}
}

func TestMemoryUpsertRequiresContact(t *testing.T) {
	if _, err := NewMemory().Upsert(context.Background(), domain.Contact{Name: "x"}, "BUYING", 0); !errors.Is(err, domain.ErrNoContact) {
		t.Fatalf("expected ErrNoContact, got %v", err)
	}
}
