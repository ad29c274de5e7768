package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthCheckHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthCheckHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var status HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Status != "healthy" || status.Service != serviceName {
		t.Errorf("Unexpected status %+v", status)
	}
}

func TestReadinessHandler_AllHealthy(t *testing.T) {
	checks := map[string]HealthCheckFunc{
		"transcriber": func(ctx context.Context) (bool, error) { return true, nil },
	}

	rec := httptest.NewRecorder()
	ReadinessHandler(checks)(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var status HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Status != "ready" {
		t.Errorf("Expected 'ready', got '%s'", status.Status)
	}
	if status.Dependencies["transcriber"].Status != "healthy" {
		t.Errorf("Expected healthy transcriber, got %+v", status.Dependencies["transcriber"])
	}
}

func TestReadinessHandler_Unhealthy(t *testing.T) {
	checks := map[string]HealthCheckFunc{
		"transcriber": func(ctx context.Context) (bool, error) { return false, errors.New("connection refused") },
		"decoder":     func(ctx context.Context) (bool, error) { return true, nil },
	}

	rec := httptest.NewRecorder()
	ReadinessHandler(checks)(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", rec.Code)
	}
	var status HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Status != "not_ready" {
		t.Errorf("Expected 'not_ready', got '%s'", status.Status)
	}
	if status.Dependencies["transcriber"].Message != "connection refused" {
		t.Errorf("Expected error message, got %+v", status.Dependencies["transcriber"])
	}
	if status.Dependencies["decoder"].Status != "healthy" {
		t.Errorf("Expected healthy decoder, got %+v", status.Dependencies["decoder"])
	}
}

func TestRequestLogger_SetsCorrelationID(t *testing.T) {
	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(CorrelationHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Errorf("Expected 418, got %d", rec.Code)
	}
	if rec.Header().Get(CorrelationHeader) != "abc-123" {
		t.Errorf("Expected correlation header to be echoed, got '%s'", rec.Header().Get(CorrelationHeader))
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Header().Get(CorrelationHeader) == "" {
		t.Error("Expected a generated correlation ID")
	}
}
