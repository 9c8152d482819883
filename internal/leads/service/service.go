package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"funnel_backend/internal/events"
	"funnel_backend/internal/leads/domain"
	"funnel_backend/platform/apperr"
	"funnel_backend/platform/logger"
	"funnel_backend/platform/phone"
	"funnel_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Capture is one contact hand-over.
type Capture struct {
	SessionID string
	Contact   domain.Contact
	Intent    string
	Score     int
	Topic     string
	// Announce publishes LeadCaptured so sales gets a new-lead notice.
	Announce bool
}

// Service normalizes contacts, stores them and announces new leads.
type Service struct {
	sink    domain.Sink
	bus     events.Bus
	timeout time.Duration
	log     *logger.Logger
}

func New(sink domain.Sink, bus events.Bus, timeout time.Duration, log *logger.Logger) *Service {
	return &Service{sink: sink, bus: bus, timeout: timeout, log: log}
}

// Capture upserts the lead within the store timeout.
func (s *Service) Capture(ctx context.Context, in Capture) (uuid.UUID, error) {
	in.Contact = Normalize(in.Contact)
	if in.Contact.Empty() {
		return uuid.Nil, apperr.Validation("email or phone is required")
	}

	sctx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	id, err := s.sink.Upsert(sctx, in.Contact, in.Intent, in.Score)
	if err != nil {
		s.log.StoreError("leads.upsert", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return uuid.Nil, apperr.Wrap(apperr.KindUnavailable, "lead store timed out", err)
		}
		return uuid.Nil, apperr.Wrap(apperr.KindInternal, "failed to store lead", err)
	}

	s.log.Info("lead captured",
		slog.String("lead_id", id.String()),
		slog.String("session_id", in.SessionID),
		slog.Int("score", in.Score),
	)

	if in.Announce && s.bus != nil {
		s.bus.Publish(ctx, events.LeadCaptured{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    id,
			SessionID: in.SessionID,
			Email:     in.Contact.Email,
			Phone:     in.Contact.Phone,
			Name:      in.Contact.Name,
			Intent:    in.Intent,
			Score:     in.Score,
			Topic:     in.Topic,
		})
	}
	return id, nil
}

// Normalize lower-cases the email, formats the phone as E.164 and strips
// markup from the name.
func Normalize(c domain.Contact) domain.Contact {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = phone.NormalizeE164(c.Phone)
	c.Name = sanitize.Text(c.Name)
	return c
}
