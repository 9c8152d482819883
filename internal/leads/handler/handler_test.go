package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"funnel_backend/internal/events"
	"funnel_backend/internal/leads/repository"
	"funnel_backend/internal/leads/service"
	"funnel_backend/platform/logger"
	"funnel_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

func newRouter(t *testing.T) (*gin.Engine, *repository.Memory, *events.InMemoryBus, *atomic.Int32) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sink := repository.NewMemory()
	bus := events.NewInMemoryBus(logger.Nop())
	var announced atomic.Int32
	bus.Subscribe(events.LeadCaptured{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		announced.Add(1)
		return nil
	}))

	h := New(service.New(sink, bus, time.Second, logger.Nop()), validator.New())
	r := gin.New()
	r.POST("/api/v1/leads", h.Create)
	return r, sink, bus, &announced
}

func TestCreateLead(t *testing.T) {
	r, sink, bus, announced := newRouter(t)

	body := `{"email":"Jane@X.com","phone":"07400 123456","name":"Jane"}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/leads", strings.NewReader(body)))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	bus.Wait()
	if announced.Load() != 1 {
		t.Fatalf("expected one LeadCaptured event, got %d", announced.Load())
	}

	leads := sink.List()
	if len(leads) != 1 || leads[0].Email != "jane@x.com" || leads[0].Phone != "+447400123456" {
		t.Fatalf("unexpected stored leads %+v", leads)
	}
}

func TestCreateLeadValidation(t *testing.T) {
	r, _, _, _ := newRouter(t)
	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"bad email", `{"email":"not-an-email"}`},
		{"no contact", `{"name":"Jane"}`},
		{"bad session id", `{"email":"a@x.com","sessionId":"has spaces"}`},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/leads", strings.NewReader(tc.body)))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, w.Code)
		}
	}
}
