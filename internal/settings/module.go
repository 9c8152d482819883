// Package settings provides the runtime settings bounded context module.
package settings

import (
	"time"

	apphttp "funnel_backend/internal/http"
	"funnel_backend/internal/settings/domain"
	"funnel_backend/internal/settings/handler"
	"funnel_backend/internal/settings/service"
	"funnel_backend/platform/logger"
	"funnel_backend/platform/validator"
)

// Module is the settings bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the cached settings service over a repository.
func NewModule(repo domain.Repository, defaults domain.Settings, cacheTTL, storeTimeout time.Duration, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repo, defaults, cacheTTL, storeTimeout, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

func (m *Module) Name() string {
	return "settings"
}

// Service returns the settings service for the conversation core.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the admin settings endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.GET("/settings", m.handler.Get)
	ctx.Admin.PUT("/settings", m.handler.Update)
}

var _ apphttp.Module = (*Module)(nil)
