package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

var errTestNotReady = errors.New("not ready")

func TestRouterHealthEndpoints(t *testing.T) {
	router := NewRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz: status %d", rec.Code)
	}
}

func TestRouterReadyzReportsFailures(t *testing.T) {
	router := NewRouter(WithHealthHandlers(NewHealthHandlers(map[string]ReadinessCheck{
		"machine": func(r *http.Request) error { return errTestNotReady },
	})))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing check: status %d", rec.Code)
	}
}

func TestRouterNotFoundEnvelope(t *testing.T) {
	router := NewRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("errors must be JSON, got %q", ct)
	}
}

func TestRouterUnconfiguredGroup(t *testing.T) {
	router := NewRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders/x", nil))
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 for unconfigured group, got %d", rec.Code)
	}
}
