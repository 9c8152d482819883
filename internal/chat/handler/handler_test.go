package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"funnel_backend/internal/chat/service"
	"funnel_backend/internal/chat/transport"
	"funnel_backend/internal/funnel"
	"funnel_backend/internal/intent"
	"funnel_backend/internal/notification/sse"
	"funnel_backend/internal/session"
	settingsdomain "funnel_backend/internal/settings/domain"
	"funnel_backend/platform/apperr"
	"funnel_backend/platform/logger"
	"funnel_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type stubFunnel struct {
	err error
}

func (s stubFunnel) HandleMessage(_ context.Context, sessionID, _ string) (funnel.Result, error) {
	if s.err != nil {
		return funnel.Result{}, s.err
	}
	return funnel.Result{Intent: intent.Browsing, Session: session.New(sessionID, time.Now())}, nil
}

func (stubFunnel) RecordReply(context.Context, string, string) error { return nil }

type stubSettings struct{}

func (stubSettings) Current(context.Context) settingsdomain.Settings {
	return settingsdomain.Defaults("Fro", nil)
}

func newRouter(f service.Funnel) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.New(f, nil, stubSettings{}, sse.New(8, logger.Nop()), service.Options{}, logger.Nop())
	h := New(svc, validator.New())
	r := gin.New()
	r.POST("/api/v1/chat", h.Chat)
	r.POST("/api/v1/chat/stream", h.Stream)
	return r
}

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestChatReturnsSafeReply(t *testing.T) {
	r := newRouter(stubFunnel{})

	w := post(r, "/api/v1/chat", `{"sessionId":"s-1","prompt":"what do you sell"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp transport.ChatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionID != "s-1" || resp.Reply != settingsdomain.DefaultSafeNoDataReply || resp.Stage != "browsing" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestChatValidation(t *testing.T) {
	r := newRouter(stubFunnel{})
	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing prompt", `{"sessionId":"s1"}`},
		{"prompt too long", `{"prompt":"` + strings.Repeat("a", 2001) + `"}`},
		{"bad session id", `{"sessionId":"has spaces","prompt":"hi"}`},
		{"session id too long", `{"sessionId":"` + strings.Repeat("a", 129) + `","prompt":"hi"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := post(r, "/api/v1/chat", tc.body); w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestChatMapsBusySession(t *testing.T) {
	r := newRouter(stubFunnel{err: apperr.Unavailable("session is busy, please retry")})

	w := post(r, "/api/v1/chat", `{"sessionId":"s1","prompt":"hi"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestStreamAccepted(t *testing.T) {
	r := newRouter(stubFunnel{})

	w := post(r, "/api/v1/chat/stream", `{"sessionId":"s1","prompt":"hi"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	var resp transport.StreamStarted
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "started" || resp.SessionID != "s1" {
		t.Fatalf("unexpected ack %+v", resp)
	}
}
