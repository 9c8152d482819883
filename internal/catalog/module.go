// Package catalog provides the catalog bounded context module.
package catalog

import (
	"funnel_backend/internal/catalog/handler"
	"funnel_backend/internal/catalog/service"
	apphttp "funnel_backend/internal/http"
	"funnel_backend/platform/logger"
	"funnel_backend/platform/validator"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	store   service.Store
}

// NewModule wires the catalog endpoints over a product store.
func NewModule(store service.Store, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(store, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		store:   store,
	}
}

func (m *Module) Name() string {
	return "catalog"
}

// Store returns the backing store for the conversation core.
func (m *Module) Store() service.Store {
	return m.store
}

// RegisterRoutes mounts catalog routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/products", m.handler.ListProducts)
	ctx.V1.GET("/products/:sku", m.handler.GetProduct)

	ctx.Admin.PUT("/products/:sku/stock", m.handler.SetStock)
}

var _ apphttp.Module = (*Module)(nil)
