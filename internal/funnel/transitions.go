package funnel

import (
	"context"
	"errors"
	"strings"

	"funnel_backend/internal/catalog/domain"
	"funnel_backend/internal/events"
	"funnel_backend/internal/intent"
	"funnel_backend/internal/reservation"
	"funnel_backend/internal/retrieval"
	"funnel_backend/internal/scoring"
	"funnel_backend/internal/session"
	"funnel_backend/platform/apperr"
	"funnel_backend/platform/phone"
)

// onProductInfo moves the shopper to interest and remembers the topic.
// A held or completed order is only abandoned for a different topic.
func (s *Service) onProductInfo(ctx context.Context, t *turn) error {
	sess := t.sess
	topic, recognized := s.deps.Topics.Match(t.text)

	if !recognized && s.deps.Continuation(t.text) {
		if sess.Stage == session.StageBrowsing || sess.Stage == session.StageFailed {
			s.setStage(t, session.StageInterest)
		}
		return nil
	}

	if sess.Stage.Advanced() || sess.Stage == session.StageCheckout {
		if !startsNewTopic(sess, topic, recognized) {
			return nil
		}
		if err := s.resetOrder(ctx, t); err != nil {
			return err
		}
	}

	if !recognized {
		topic = s.deps.Topics.Extract(t.text)
	}
	sess.LastTopic = topic
	s.setStage(t, session.StageInterest)
	return nil
}

// onBuying reserves stock for a buying message, or for an affirmation when a
// topic is remembered.
func (s *Service) onBuying(ctx context.Context, t *turn, affirmation bool) error {
	sess := t.sess
	topic, recognized := s.deps.Topics.Match(t.text)

	if affirmation {
		if sess.LastTopic == "" || sess.Stage.Advanced() {
			return nil
		}
		live, err := s.liveReservation(ctx, sess.ID)
		if err != nil {
			return err
		}
		if live != nil {
			s.setStage(t, session.StageCheckout)
			t.setNotice(retrieval.SourceReservation, reservationNotice(*live))
			return nil
		}
		topic, recognized = sess.LastTopic, true
	}

	if sess.Stage.Advanced() {
		if !startsNewTopic(sess, topic, recognized) {
			return nil
		}
		if err := s.resetOrder(ctx, t); err != nil {
			return err
		}
	}

	identifier := topic
	if !recognized {
		identifier = sess.LastTopic
		if identifier == "" {
			identifier = strings.ToLower(strings.TrimSpace(t.text))
		}
	}

	product, ok := s.findProduct(ctx, identifier)
	if !ok {
		return nil
	}

	switched := sess.SelectedProduct != nil && sess.SelectedProduct.SKU != product.SKU
	if switched {
		if err := s.resetOrder(ctx, t); err != nil {
			return err
		}
	}

	qty := t.qty
	if qty <= 0 {
		qty = max(sess.ReservedQty, 1)
	}

	if !switched {
		live, err := s.liveReservation(ctx, sess.ID)
		if err != nil {
			return err
		}
		if live != nil && live.SKU == product.SKU && live.Quantity == qty {
			s.setStage(t, session.StageCheckout)
			t.setNotice(retrieval.SourceReservation, reservationNotice(*live))
			return nil
		}
		if live != nil {
			if err := s.release(ctx, sess.ID); err != nil {
				return err
			}
		}
	}

	r, err := s.deps.Reservations.Reserve(ctx, sess.ID, product.SKU, qty)
	var short *reservation.InsufficientStockError
	switch {
	case err == nil:
		s.deps.Metrics.reservation("reserved")
		sess.SelectProduct(product)
		sess.LastTopic = identifier
		sess.ReservedQty = r.Quantity
		s.setStage(t, session.StageCheckout)
		t.setNotice(retrieval.SourceReservation, reservationNotice(r))
	case errors.As(err, &short):
		s.deps.Metrics.reservation("insufficient_stock")
		sess.SelectProduct(product)
		sess.LastTopic = identifier
		sess.ReservedQty = qty
		s.setStage(t, session.StageInterest)
		t.setNotice(retrieval.SourceNotice, insufficientNotice(short))
	case errors.Is(err, domain.ErrProductNotFound):
		s.deps.Metrics.reservation("not_found")
	default:
		s.deps.Metrics.reservation("error")
		s.log.StoreError("reservation.reserve", err)
		return apperr.Wrap(apperr.KindInternal, "failed to reserve stock", err)
	}
	return nil
}

// onContact stores contact details and, during checkout, turns the held
// reservation into an order.
func (s *Service) onContact(ctx context.Context, t *turn) error {
	sess := t.sess
	email, _ := intent.FindEmail(t.text)
	number, _ := phone.Find(t.text)
	newEmail := sess.CaptureEmail(email)
	newPhone := sess.CapturePhone(number)
	t.newContact = newEmail || newPhone
	if sess.Email != "" || sess.Phone != "" {
		scoring.CaptureContact(&sess.Lead)
	}

	if sess.Stage != session.StageCheckout && sess.Stage != session.StageInterest {
		if t.newContact {
			t.setNotice(retrieval.SourceNotice, contactSavedNotice)
		}
		return nil
	}

	live, err := s.liveReservation(ctx, sess.ID)
	if err != nil {
		return err
	}
	if live == nil {
		s.setStage(t, session.StageInterest)
		t.setNotice(retrieval.SourceNotice, expiredNotice)
		return nil
	}
	s.commit(ctx, t)
	return nil
}

// commit settles the order. Every failure is scoped to this session and
// reported through the notice; nothing is retried automatically.
func (s *Service) commit(ctx context.Context, t *turn) {
	sess := t.sess
	s.setStage(t, session.StageConverted)

	res, err := s.deps.Reservations.Commit(ctx, sess.ID)
	var short *reservation.InsufficientStockError
	switch {
	case err == nil:
		s.deps.Metrics.commit("completed")
		s.setStage(t, session.StageCompleted)
		t.order = &res
		t.setNotice(retrieval.SourceOrder, orderNotice(res.Reservation))
		s.publish(ctx, events.OrderCompleted{
			BaseEvent:   events.NewBaseEvent(),
			SessionID:   sess.ID,
			Email:       sess.Email,
			Phone:       sess.Phone,
			SKU:         res.Reservation.SKU,
			ProductName: res.Reservation.ProductName,
			Quantity:    res.Reservation.Quantity,
			UnitPrice:   res.Reservation.UnitPrice,
			Total:       res.Reservation.Total(),
		})
		sess.ResetOrder()
	case errors.As(err, &short):
		s.deps.Metrics.commit("insufficient_stock")
		s.failOrder(ctx, t, "insufficient_stock", soldOutNotice(short))
	case errors.Is(err, reservation.ErrCommitConflict):
		s.deps.Metrics.commit("conflict")
		s.failOrder(ctx, t, "conflict", conflictNotice)
	case errors.Is(err, reservation.ErrNoReservation), errors.Is(err, reservation.ErrReservationExpired):
		s.deps.Metrics.commit("expired")
		s.setStage(t, session.StageInterest)
		t.setNotice(retrieval.SourceNotice, expiredNotice)
	default:
		s.deps.Metrics.commit("error")
		s.log.Error("order commit failed", "session_id", sess.ID, "error", err)
		s.failOrder(ctx, t, "error", conflictNotice)
	}
}

// failOrder marks the order failed. The manager leaves the hold in place
// after a failed commit; releasing it here is intentional, and the shopper
// has to select the product again.
func (s *Service) failOrder(ctx context.Context, t *turn, reason, notice string) {
	sess := t.sess
	sku := ""
	if sess.SelectedProduct != nil {
		sku = sess.SelectedProduct.SKU
	}
	s.setStage(t, session.StageFailed)
	if err := s.deps.Reservations.Release(ctx, sess.ID); err != nil {
		s.log.StoreError("reservation.release", err)
	}
	sess.SelectedProduct = nil
	sess.ReservedQty = 0
	t.setNotice(retrieval.SourceNotice, notice)
	s.publish(ctx, events.OrderFailed{
		BaseEvent: events.NewBaseEvent(),
		SessionID: sess.ID,
		SKU:       sku,
		Reason:    reason,
	})
}

// resetOrder drops the hold and the negotiated product before a new topic.
func (s *Service) resetOrder(ctx context.Context, t *turn) error {
	if err := s.release(ctx, t.sess.ID); err != nil {
		return err
	}
	t.sess.ResetOrder()
	if t.sess.Stage.Advanced() {
		s.setStage(t, session.StageInterest)
	}
	return nil
}

func (s *Service) release(ctx context.Context, sessionID string) error {
	if err := s.deps.Reservations.Release(ctx, sessionID); err != nil {
		s.log.StoreError("reservation.release", err)
		return apperr.Wrap(apperr.KindInternal, "failed to release reservation", err)
	}
	return nil
}

// liveReservation returns nil when the session holds nothing or its hold
// has expired.
func (s *Service) liveReservation(ctx context.Context, sessionID string) (*reservation.Reservation, error) {
	r, err := s.deps.Reservations.Get(ctx, sessionID)
	switch {
	case err == nil:
		return &r, nil
	case errors.Is(err, reservation.ErrNoReservation), errors.Is(err, reservation.ErrReservationExpired):
		return nil, nil
	default:
		s.log.StoreError("reservation.get", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load reservation", err)
	}
}

func (s *Service) findProduct(ctx context.Context, identifier string) (domain.Product, bool) {
	if strings.TrimSpace(identifier) == "" {
		return domain.Product{}, false
	}
	sctx, cancel := s.bounded(ctx)
	defer cancel()

	p, err := s.deps.Products.FindProduct(sctx, identifier)
	if err != nil {
		if !errors.Is(err, domain.ErrProductNotFound) {
			s.log.StoreError("catalog.FindProduct", err)
		}
		return domain.Product{}, false
	}
	return p, true
}

// startsNewTopic reports whether a recognized topic leaves the current
// negotiation. With nothing negotiated any recognized topic is new.
func startsNewTopic(sess *session.Session, topic string, recognized bool) bool {
	if !recognized {
		return false
	}
	if sess.LastTopic == "" && sess.SelectedProduct == nil {
		return true
	}
	return sess.IsNewTopic(topic)
}
