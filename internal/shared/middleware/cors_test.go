package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsOriginAllowed(t *testing.T) {
	tests := []struct {
		origin       string
		allowedHosts []string
		want         bool
	}{
		{"https://app.nexus.dev:8443", []string{"app.nexus.dev:8443"}, true},
		{"http://localhost:5173", []string{"localhost"}, true},
		{"https://App.Nexus.DEV", []string{"app.nexus.dev"}, true},
		{"https://app.nexus.dev", []string{"  app.nexus.dev  "}, true},
		{"https://evil.dev", []string{"app.nexus.dev"}, false},
		{"https://eu.app.nexus.dev", []string{"app.nexus.dev"}, false},
		{"://broken", []string{"app.nexus.dev"}, false},
		{"null", []string{"app.nexus.dev"}, false},
	}

	for _, tt := range tests {
		if got := isOriginAllowed(tt.origin, tt.allowedHosts); got != tt.want {
			t.Errorf("isOriginAllowed(%q, %v) = %v, want %v", tt.origin, tt.allowedHosts, got, tt.want)
		}
	}
}

func TestCORS(t *testing.T) {
	dashboard := []string{"app.nexus.dev"}

	tests := []struct {
		name            string
		allowedHosts    []string
		method          string
		path            string
		origin          string
		wantStatus      int
		wantAllowOrigin string
		wantCredentials bool
		wantNext        bool
	}{
		{
			name:            "Open API echoes wildcard",
			method:          http.MethodGet,
			path:            "/api/accounts/",
			origin:          "https://anything.dev",
			wantStatus:      http.StatusOK,
			wantAllowOrigin: "*",
			wantNext:        true,
		},
		{
			name:            "Dashboard origin gets credentials",
			allowedHosts:    dashboard,
			method:          http.MethodGet,
			path:            "/api/dashboard/founder-overview",
			origin:          "https://app.nexus.dev",
			wantStatus:      http.StatusOK,
			wantAllowOrigin: "https://app.nexus.dev",
			wantCredentials: true,
			wantNext:        true,
		},
		{
			name:         "Foreign origin rejected",
			allowedHosts: dashboard,
			method:       http.MethodPost,
			path:         "/api/transactions/",
			origin:       "https://evil.dev",
			wantStatus:   http.StatusForbidden,
		},
		{
			name:         "Server to server call without origin",
			allowedHosts: dashboard,
			method:       http.MethodPost,
			path:         "/api/recurring/run-now",
			wantStatus:   http.StatusOK,
			wantNext:     true,
		},
		{
			name:            "Preflight stops before handler",
			allowedHosts:    dashboard,
			method:          http.MethodOptions,
			path:            "/api/accounts/acc-1",
			origin:          "https://app.nexus.dev",
			wantStatus:      http.StatusNoContent,
			wantAllowOrigin: "https://app.nexus.dev",
			wantCredentials: true,
		},
		{
			name:            "Health is public",
			allowedHosts:    dashboard,
			method:          http.MethodGet,
			path:            "/health",
			origin:          "https://evil.dev",
			wantStatus:      http.StatusOK,
			wantAllowOrigin: "*",
			wantNext:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := httptest.NewRecorder()
			CORS(tt.allowedHosts)(next).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if called != tt.wantNext {
				t.Errorf("next called = %v, want %v", called, tt.wantNext)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllowOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantAllowOrigin)
			}
			if got := rr.Header().Get("Access-Control-Allow-Credentials") == "true"; got != tt.wantCredentials {
				t.Errorf("Allow-Credentials = %v, want %v", got, tt.wantCredentials)
			}
		})
	}
}
