package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name            string
		allowed         []string
		method          string
		origin          string
		wantStatus      int
		wantOrigin      string
		wantCredentials string
		wantNext        bool
	}{
		{
			name:       "wildcard echoes origin",
			allowed:    []string{"*"},
			method:     http.MethodGet,
			origin:     "http://localhost:3000",
			wantStatus: http.StatusOK,
			wantOrigin: "http://localhost:3000",
			wantNext:   true,
		},
		{
			name:            "listed origin gets credentials",
			allowed:         []string{"https://ci.example.com"},
			method:          http.MethodGet,
			origin:          "https://ci.example.com",
			wantStatus:      http.StatusOK,
			wantOrigin:      "https://ci.example.com",
			wantCredentials: "true",
			wantNext:        true,
		},
		{
			name:       "unlisted origin",
			allowed:    []string{"https://ci.example.com"},
			method:     http.MethodGet,
			origin:     "https://evil.example.com",
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name:       "no origin header",
			allowed:    []string{"*"},
			method:     http.MethodPost,
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name:       "preflight answered without handler",
			allowed:    []string{"*"},
			method:     http.MethodOptions,
			origin:     "http://localhost:3000",
			wantStatus: http.StatusNoContent,
			wantOrigin: "http://localhost:3000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			called := false
			h := CORS(CORSOptions{
				AllowedOrigins: tt.allowed,
				AllowedMethods: []string{http.MethodGet, http.MethodPost},
				AllowedHeaders: []string{"Content-Type", RequestIDHeader},
				MaxAge:         24 * time.Hour,
			})(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
				called = true
			}))
			req := httptest.NewRequest(tt.method, "/items", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := httptest.NewRecorder()

			// Act
			h.ServeHTTP(rr, req)

			// Assert
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if called != tt.wantNext {
				t.Errorf("next called = %v, want %v", called, tt.wantNext)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCredentials {
				t.Errorf("Allow-Credentials = %q, want %q", got, tt.wantCredentials)
			}
			if got := rr.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST" {
				t.Errorf("Allow-Methods = %q, want GET, POST", got)
			}
			if got := rr.Header().Get("Access-Control-Max-Age"); got != "86400" {
				t.Errorf("Max-Age = %q, want 86400", got)
			}
		})
	}
}
