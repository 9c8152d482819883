// Package notification provides event handlers for sending notifications in
// response to funnel events. Domain modules publish events and never know
// about email templates or delivery.
package notification

import (
	"context"

	"funnel_backend/internal/email"
	"funnel_backend/internal/events"
	"funnel_backend/platform/logger"
)

// Module renders and dispatches the funnel's notifications.
type Module struct {
	notifier   Notifier
	brand      string
	salesEmail string
	log        *logger.Logger
}

func New(notifier Notifier, brand, salesEmail string, log *logger.Logger) *Module {
	return &Module{notifier: notifier, brand: brand, salesEmail: salesEmail, log: log}
}

func (m *Module) Name() string { return "notification" }

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.OrderCompleted{}.EventName(), m)
	bus.Subscribe(events.LeadCaptured{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.OrderCompleted:
		return m.handleOrderCompleted(ctx, e)
	case events.LeadCaptured:
		return m.handleLeadCaptured(ctx, e)
	default:
		return nil
	}
}

func (m *Module) handleOrderCompleted(ctx context.Context, e events.OrderCompleted) error {
	order := email.Order{
		CustomerEmail: e.Email,
		ProductName:   e.ProductName,
		SKU:           e.SKU,
		Quantity:      e.Quantity,
		UnitPrice:     e.UnitPrice,
		Total:         e.Total,
	}

	if e.Email != "" {
		msg, err := email.OrderConfirmation(m.brand, order)
		if err != nil {
			return err
		}
		if err := m.notifier.Notify(ctx, e.Email, msg.Subject, msg.HTML); err != nil {
			m.log.Error("failed to dispatch order confirmation", "session_id", e.SessionID, "error", err)
			return err
		}
	}

	if m.salesEmail == "" {
		return nil
	}
	msg, err := email.SalesOrderNotification(m.brand, order)
	if err != nil {
		return err
	}
	if err := m.notifier.Notify(ctx, m.salesEmail, msg.Subject, msg.HTML); err != nil {
		m.log.Error("failed to dispatch sales order notification", "session_id", e.SessionID, "error", err)
		return err
	}
	m.log.Info("order notifications dispatched", "session_id", e.SessionID, "sku", e.SKU)
	return nil
}

func (m *Module) handleLeadCaptured(ctx context.Context, e events.LeadCaptured) error {
	lead := email.Lead{
		Email:  e.Email,
		Phone:  e.Phone,
		Name:   e.Name,
		Intent: e.Intent,
		Score:  e.Score,
		Topic:  e.Topic,
	}

	if e.Email != "" {
		msg, err := email.LeadAcknowledgement(m.brand, lead)
		if err != nil {
			return err
		}
		if err := m.notifier.Notify(ctx, e.Email, msg.Subject, msg.HTML); err != nil {
			m.log.Error("failed to dispatch lead acknowledgement", "lead_id", e.LeadID, "error", err)
			return err
		}
	}

	if m.salesEmail == "" {
		return nil
	}
	msg, err := email.SalesLeadNotification(m.brand, lead)
	if err != nil {
		return err
	}
	if err := m.notifier.Notify(ctx, m.salesEmail, msg.Subject, msg.HTML); err != nil {
		m.log.Error("failed to dispatch new lead notification", "lead_id", e.LeadID, "error", err)
		return err
	}
	return nil
}
