package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/healthpulse-backend/pkg/config"
	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReadyReportsChecks(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	handler := HealthReady(cfg, logger.Nop(), map[string]Pinger{
		"db":    pingerFunc(func(context.Context) error { return nil }),
		"redis": nil,
	})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("X-HealthPulse-Env"); got != "test" {
		t.Fatalf("unexpected env header %q", got)
	}
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decodeData(t, resp, &body)
	if body.Checks["db"] != "up" || body.Checks["redis"] != "disabled" {
		t.Fatalf("unexpected checks %+v", body.Checks)
	}
}

func TestHealthReadyFailsWhenDependencyDown(t *testing.T) {
	cfg := &config.Config{}
	handler := HealthReady(cfg, logger.Nop(), map[string]Pinger{
		"db": pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
	})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	if apiErr := decodeError(t, resp); apiErr.Code != "DEPENDENCY_ERROR" {
		t.Fatalf("unexpected code %s", apiErr.Code)
	}
}
