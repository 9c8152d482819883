// Package leads provides the lead capture bounded context module.
package leads

import (
	"time"

	"funnel_backend/internal/events"
	apphttp "funnel_backend/internal/http"
	"funnel_backend/internal/leads/domain"
	"funnel_backend/internal/leads/handler"
	"funnel_backend/internal/leads/service"
	"funnel_backend/platform/logger"
	"funnel_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires lead capture over a sink.
func NewModule(sink domain.Sink, bus events.Bus, storeTimeout time.Duration, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(sink, bus, storeTimeout, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

func (m *Module) Name() string {
	return "leads"
}

// Service returns the capture service for the conversation core.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the public lead form.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/leads", m.handler.Create)
}

var _ apphttp.Module = (*Module)(nil)
