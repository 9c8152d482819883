package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"funnel_backend/platform/logger"
)

type pinged struct{ BaseEvent }

func (pinged) EventName() string { return "test.pinged" }

func TestPublishRunsAllHandlers(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		bus.Subscribe("test.pinged", HandlerFunc(func(ctx context.Context, e Event) error {
			calls.Add(1)
			return nil
		}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, pinged{NewBaseEvent()})
	cancel()
	bus.Wait()

	if calls.Load() != 3 {
		t.Fatalf("expected 3 handler calls, got %d", calls.Load())
	}
}

func TestHandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	var ok atomic.Int32
	bus.Subscribe("test.pinged", HandlerFunc(func(ctx context.Context, e Event) error { return errors.New("boom") }))
	bus.Subscribe("test.pinged", HandlerFunc(func(ctx context.Context, e Event) error {
		ok.Add(1)
		return nil
	}))

	bus.Publish(context.Background(), pinged{NewBaseEvent()})
	bus.Wait()

	if ok.Load() != 1 {
		t.Fatalf("expected the healthy handler to run once, got %d", ok.Load())
	}
}

func TestNewBaseEventIsUnique(t *testing.T) {
	a, b := NewBaseEvent(), NewBaseEvent()
	if a.EventID() == b.EventID() {
		t.Fatal("expected distinct event ids")
	}
	if a.OccurredAt().IsZero() {
		t.Fatal("expected a timestamp")
	}
}
