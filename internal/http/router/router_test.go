package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apphttp "funnel_backend/internal/http"
	"funnel_backend/platform/config"
	"funnel_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type adminModule struct{}

func (adminModule) Name() string { return "probe" }

func (adminModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	ctx.Admin.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
}

func newEngine(health apphttp.HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(&apphttp.App{
		Config:  &config.Config{JWTAccessSecret: "secret", CORSOrigins: []string{"http://localhost:3000"}},
		Logger:  logger.Nop(),
		Health:  health,
		Metrics: prometheus.NewRegistry(),
		Modules: []apphttp.Module{adminModule{}},
	})
}

func get(e *gin.Engine, path string) int {
	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w.Code
}

func TestRoutes(t *testing.T) {
	healthy := newEngine(nil)
	down := newEngine(pingFunc(func(context.Context) error { return errors.New("db down") }))

	cases := []struct {
		name   string
		engine *gin.Engine
		path   string
		want   int
	}{
		{"health", healthy, "/api/health", http.StatusOK},
		{"health failing", down, "/api/health", http.StatusServiceUnavailable},
		{"metrics", healthy, "/metrics", http.StatusOK},
		{"public module route", healthy, "/api/v1/ping", http.StatusOK},
		{"admin requires token", healthy, "/api/v1/admin/ping", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := get(tc.engine, tc.path); got != tc.want {
				t.Fatalf("GET %s: expected %d, got %d", tc.path, tc.want, got)
			}
		})
	}
}
