package fermprofile

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewServerHandler(t *testing.T) {
	a, err := NewAnalyzer(DefaultConfig(), WithObservability(&stubObservability{}))
	if err != nil {
		t.Fatalf("NewAnalyzer returned error: %v", err)
	}
	srv, err := NewServer(a)
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /healthz, got %d", rec.Code)
	}

	body := `{"temperature_profile": [{"type": "constant", "setpoint": 30, "duration": 5}]}`
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/profiles/timeline", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from timeline, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewServerRequiresAnalyzer(t *testing.T) {
	if _, err := NewServer(nil); err == nil {
		t.Fatalf("expected error for nil analyzer")
	}
}
