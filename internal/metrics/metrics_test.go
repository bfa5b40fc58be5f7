package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/health", "/health"},
		{"/api/v1/sessions", "/api/v1/sessions"},
		{"/api/v1/sessions/", "/api/v1/sessions/"},
		{"/api/v1/sessions/6f1c", "/api/v1/sessions/{id}"},
		{"/api/v1/sessions/6f1c/children", "/api/v1/sessions/{id}/children"},
		{"/api/v1/display-options", "/api/v1/display-options"},
	}
	for _, tt := range tests {
		if got := RouteLabel(tt.in); got != tt.want {
			t.Errorf("RouteLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordNavigation("back")
	RecordDocumentLoad("file", 0, true)
	SetSessionsActive(2)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, name := range []string{
		"dfm_navigation_operations_total",
		"dfm_document_loads_total",
		"dfm_sessions_active 2",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %q", name)
		}
	}
}
