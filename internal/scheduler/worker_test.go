package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"funnel_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []SendEmailPayload
	err  error
}

func (r *recordingSender) Send(_ context.Context, to, subject, html string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, SendEmailPayload{To: to, Subject: subject, HTML: html})
	return nil
}

func TestHandleSendEmail(t *testing.T) {
	sender := &recordingSender{}
	w := &Worker{sender: sender, log: logger.Nop()}

	task, err := NewSendEmailTask(SendEmailPayload{To: "jane@x.com", Subject: "Hi", HTML: "<p>hi</p>"})
	if err != nil {
		t.Fatalf("task: %v", err)
	}
	if err := w.HandleSendEmail(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].Subject != "Hi" {
		t.Fatalf("unexpected sends %+v", sender.sent)
	}
}

func TestHandleSendEmailErrors(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	w := &Worker{sender: sender, log: logger.Nop()}

	bad := asynq.NewTask(TaskSendEmail, []byte("{"))
	if err := w.HandleSendEmail(context.Background(), bad); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected skip retry for malformed payload, got %v", err)
	}

	task, _ := NewSendEmailTask(SendEmailPayload{To: "jane@x.com"})
	if err := w.HandleSendEmail(context.Background(), task); err == nil {
		t.Fatalf("expected delivery error to surface for retry")
	}
}

type countingExpirer struct {
	mu    sync.Mutex
	calls int
}

func (c *countingExpirer) ExpireStale(context.Context, time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return 1, nil
}

func (c *countingExpirer) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestReservationSweepRunsUntilCancelled(t *testing.T) {
	exp := &countingExpirer{}
	sweep := NewReservationSweep(exp, logger.Nop(), 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	sweep.Run(ctx)

	if exp.Calls() < 2 {
		t.Fatalf("expected repeated sweeps, got %d", exp.Calls())
	}
}
