package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"adherence-push-backend/services"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealthHandlerHealth(t *testing.T) {
	tests := []struct {
		name       string
		mongo      Pinger
		redis      Pinger
		wantCode   int
		wantStatus string
		wantRedis  string
	}{
		{"tout va bien", fakePinger{}, fakePinger{}, http.StatusOK, "ok", "ok"},
		{"redis désactivé", fakePinger{}, nil, http.StatusOK, "ok", "disabled"},
		{"redis en erreur", fakePinger{}, fakePinger{err: errors.New("down")}, http.StatusOK, "ok", "error"},
		{"mongo en erreur", fakePinger{err: errors.New("down")}, nil, http.StatusServiceUnavailable, "degraded", "disabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler("test", tt.mongo, tt.redis, services.NewMetrics())

			rr := httptest.NewRecorder()
			handler.Health(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			if rr.Code != tt.wantCode {
				t.Errorf("Health() status = %v, want %v", rr.Code, tt.wantCode)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Health() Content-Type = %v, want application/json", ct)
			}

			var body map[string]interface{}
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("body JSON invalide: %v", err)
			}
			if body["status"] != tt.wantStatus {
				t.Errorf("status = %v, want %v", body["status"], tt.wantStatus)
			}
			if body["redis_status"] != tt.wantRedis {
				t.Errorf("redis_status = %v, want %v", body["redis_status"], tt.wantRedis)
			}
			for _, key := range []string{"env", "uptime", "go_version", "metrics"} {
				if _, ok := body[key]; !ok {
					t.Errorf("Health() body should contain %q", key)
				}
			}
		})
	}
}
