package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deskboot/deskboot/internal/boot"
	"github.com/deskboot/deskboot/internal/config"
)

func TestHealthz(t *testing.T) {
	r := NewRouter(boot.New(config.Default()))
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("body = %v", body)
	}
}

func TestStatus(t *testing.T) {
	r := NewRouter(boot.New(config.Default()))
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		State        string            `json:"state"`
		Uptime       string            `json:"uptime"`
		Trace        []json.RawMessage `json:"trace"`
		Subordinates []json.RawMessage `json:"subordinates"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Chain has not started: empty state, no transitions, no subordinates.
	if body.State != "" || len(body.Trace) != 0 || len(body.Subordinates) != 0 {
		t.Fatalf("unexpected pre-boot status: %s", w.Body.String())
	}
	if body.Uptime == "" {
		t.Fatalf("uptime missing")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := NewRouter(boot.New(config.Default()))
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.Len() == 0 {
		t.Fatalf("empty metrics body")
	}
}
