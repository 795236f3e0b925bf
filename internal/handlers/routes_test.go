package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"colorize/api/internal/config"
	"colorize/api/internal/workspace"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.AppConfig{}
	registry := workspace.NewRegistry(cfg.Workspace, nil, nil, zerolog.Nop())
	handlerSet := NewHandlerSet(zerolog.Nop(), nil, nil, nil, registry, cfg)

	engine := gin.New()
	handlerSet.RegisterRoutes(engine.Group("/api"))
	return engine
}

func TestRouteRegistration(t *testing.T) {
	engine := newTestRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"register rejects empty body", http.MethodPost, "/api/v1/auth/register", "{}", http.StatusBadRequest},
		{"login rejects empty body", http.MethodPost, "/api/v1/auth/login", "{}", http.StatusBadRequest},
		{"workspace requires auth", http.MethodGet, "/api/v1/workspace", "", http.StatusUnauthorized},
		{"colorize requires auth", http.MethodPost, "/api/v1/workspace/colorize", "", http.StatusUnauthorized},
		{"account requires auth", http.MethodPut, "/api/v1/account/username", "{}", http.StatusUnauthorized},
		{"admin requires auth", http.MethodGet, "/api/v1/admin/users", "", http.StatusUnauthorized},
		{"unknown route", http.MethodGet, "/api/v1/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *strings.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			} else {
				body = strings.NewReader("")
			}

			req := httptest.NewRequest(tt.method, tt.path, body)
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.wantStatus)
			}
		})
	}
}
