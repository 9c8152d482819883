package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"funnel_backend/internal/events"
	"funnel_backend/internal/scheduler"
	"funnel_backend/platform/logger"

	"github.com/google/uuid"
)

type sent struct {
	to      string
	subject string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sent
}

func (r *recordingNotifier) Notify(_ context.Context, to, subject, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{to: to, subject: subject})
	return nil
}

func TestOrderCompletedNotifiesCustomerAndSales(t *testing.T) {
	n := &recordingNotifier{}
	bus := events.NewInMemoryBus(logger.Nop())
	New(n, "Frono", "sales@frono.test", logger.Nop()).RegisterHandlers(bus)

	bus.Publish(context.Background(), events.OrderCompleted{
		BaseEvent:   events.NewBaseEvent(),
		SessionID:   "s1",
		Email:       "jane@x.com",
		SKU:         "OFR-1",
		ProductName: "Oil Filled Radiator",
		Quantity:    2,
		UnitPrice:   50,
		Total:       100,
	})
	bus.Wait()

	if len(n.sent) != 2 {
		t.Fatalf("expected 2 notifications, got %+v", n.sent)
	}
	if n.sent[0].to != "jane@x.com" || n.sent[0].subject != "Your Frono Order Confirmation" {
		t.Fatalf("unexpected customer mail %+v", n.sent[0])
	}
	if n.sent[1].to != "sales@frono.test" || n.sent[1].subject != "New Order Received" {
		t.Fatalf("unexpected sales mail %+v", n.sent[1])
	}
}

func TestLeadCapturedWithoutSalesInbox(t *testing.T) {
	n := &recordingNotifier{}
	m := New(n, "Frono", "", logger.Nop())

	err := m.Handle(context.Background(), events.LeadCaptured{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    uuid.New(),
		Phone:     "+447400123456",
		Intent:    "LEAD_FORM",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(n.sent) != 0 {
		t.Fatalf("expected nothing sent without email or sales inbox, got %+v", n.sent)
	}
}

type fakeQueue struct {
	payloads []scheduler.SendEmailPayload
	err      error
}

func (f *fakeQueue) EnqueueEmail(_ context.Context, p scheduler.SendEmailPayload) error {
	f.payloads = append(f.payloads, p)
	return f.err
}

func TestQueueNotifierEnqueues(t *testing.T) {
	q := &fakeQueue{}
	if err := NewQueueNotifier(q).Notify(context.Background(), "a@x.com", "S", "<p>b</p>"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(q.payloads) != 1 || q.payloads[0].HTML != "<p>b</p>" {
		t.Fatalf("unexpected payloads %+v", q.payloads)
	}

	q.err = errors.New("redis down")
	if err := NewQueueNotifier(q).Notify(context.Background(), "a@x.com", "S", ""); err == nil {
		t.Fatalf("expected enqueue error")
	}
}

type slowSender struct {
	mu   sync.Mutex
	done int
}

func (s *slowSender) Send(ctx context.Context, _, _, _ string) error {
	select {
	case <-time.After(5 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	s.mu.Lock()
	s.done++
	s.mu.Unlock()
	return nil
}

func TestDirectNotifierSurvivesCallerCancel(t *testing.T) {
	sender := &slowSender{}
	n := NewDirectNotifier(sender, time.Second, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	if err := n.Notify(ctx, "a@x.com", "S", "B"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	cancel()
	n.Wait()

	if sender.done != 1 {
		t.Fatalf("expected detached send to finish, got %d", sender.done)
	}
}
