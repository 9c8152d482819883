// Package chat provides the shopper chat endpoints.
package chat

import (
	"funnel_backend/internal/chat/handler"
	"funnel_backend/internal/chat/service"
	apphttp "funnel_backend/internal/http"
	"funnel_backend/internal/notification/sse"
	"funnel_backend/platform/logger"
	"funnel_backend/platform/validator"

	"google.golang.org/adk/model"
)

// Module is the chat module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	hub     *sse.Service
}

// NewModule wires chat over the funnel. llm may be nil.
func NewModule(f service.Funnel, llm model.LLM, settings service.SettingsSource, hub *sse.Service, opts service.Options, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(f, llm, settings, hub, opts, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		hub:     hub,
	}
}

func (m *Module) Name() string {
	return "chat"
}

// Service returns the chat service so shutdown can wait for streams.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the chat routes behind the chat rate limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	chat := ctx.V1.Group("/chat")
	if ctx.ChatRateLimiter != nil {
		chat.Use(ctx.ChatRateLimiter.RateLimit())
	}
	chat.POST("", m.handler.Chat)
	chat.POST("/stream", m.handler.Stream)

	ctx.V1.GET("/chat/stream/events/:sessionId", m.hub.Handler())
}

var _ apphttp.Module = (*Module)(nil)
