// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"funnel_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Funnel Domain Events
// =============================================================================

// OrderCompleted is published after a reservation was committed.
type OrderCompleted struct {
	BaseEvent
	SessionID   string  `json:"sessionId"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone,omitempty"`
	SKU         string  `json:"sku"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
}

func (e OrderCompleted) EventName() string { return "funnel.order.completed" }

// OrderFailed is published when a commit could not be applied.
type OrderFailed struct {
	BaseEvent
	SessionID string `json:"sessionId"`
	SKU       string `json:"sku"`
	Reason    string `json:"reason"`
}

func (e OrderFailed) EventName() string { return "funnel.order.failed" }

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCaptured is published when contact details were stored outside an
// order confirmation.
type LeadCaptured struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	SessionID string    `json:"sessionId,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Name      string    `json:"name,omitempty"`
	Intent    string    `json:"intent"`
	Score     int       `json:"score"`
	Topic     string    `json:"topic,omitempty"`
}

func (e LeadCaptured) EventName() string { return "leads.lead.captured" }
