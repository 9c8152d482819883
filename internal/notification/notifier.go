package notification

import (
	"context"
	"sync"
	"time"

	"funnel_backend/internal/email"
	"funnel_backend/internal/scheduler"
	"funnel_backend/platform/logger"
)

const defaultSendTimeout = 20 * time.Second

// Notifier delivers one message. Implementations never block the caller on
// the delivery channel itself.
type Notifier interface {
	Notify(ctx context.Context, recipient, subject, body string) error
}

// EmailEnqueuer is the part of the asynq client the queue notifier needs.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload scheduler.SendEmailPayload) error
}

// QueueNotifier hands messages to the background worker.
type QueueNotifier struct {
	queue EmailEnqueuer
}

func NewQueueNotifier(queue EmailEnqueuer) *QueueNotifier {
	return &QueueNotifier{queue: queue}
}

func (n *QueueNotifier) Notify(ctx context.Context, recipient, subject, body string) error {
	return n.queue.EnqueueEmail(ctx, scheduler.SendEmailPayload{To: recipient, Subject: subject, HTML: body})
}

// DirectNotifier sends in a detached goroutine bounded by a timeout. It is
// used when no Redis is configured.
type DirectNotifier struct {
	sender  email.Sender
	timeout time.Duration
	log     *logger.Logger
	wg      sync.WaitGroup
}

func NewDirectNotifier(sender email.Sender, timeout time.Duration, log *logger.Logger) *DirectNotifier {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &DirectNotifier{sender: sender, timeout: timeout, log: log}
}

func (n *DirectNotifier) Notify(ctx context.Context, recipient, subject, body string) error {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		defer cancel()
		if err := n.sender.Send(sendCtx, recipient, subject, body); err != nil {
			n.log.Warn("email delivery failed", "error", err, "subject", subject)
		}
	}()
	return nil
}

// Wait blocks until in-flight sends finish.
func (n *DirectNotifier) Wait() {
	n.wg.Wait()
}
