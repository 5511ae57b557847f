package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/lawflow-backend/internal/http/handlers"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
)

func TestRouterHealthAndRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(RouterConfig{Log: logger.Nop(), HealthHandler: httpH.NewHealthHandler(nil)})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: status=%d body=%q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Request-Id"); got != "req-123" {
		t.Fatalf("request id: want=%q got=%q", "req-123", got)
	}
}

func TestRouterRegistersAPIRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.Nop()
	r := NewRouter(RouterConfig{
		Log:               log,
		CatalogHandler:    httpH.NewCatalogHandler(log, nil),
		ContentHandler:    httpH.NewContentHandler(log, nil),
		GenerationHandler: httpH.NewGenerationHandler(log, nil, nil),
		HealthHandler:     httpH.NewHealthHandler(nil),
	})

	want := map[string]bool{
		"GET /api/modules":                   false,
		"POST /api/modules":                  false,
		"PATCH /api/modules/:id":             false,
		"DELETE /api/modules/:id":            false,
		"POST /api/modules/:id/topics":       false,
		"DELETE /api/topics/:id":             false,
		"POST /api/topics/:id/content":       false,
		"DELETE /api/content/:id":            false,
		"GET /api/topics/:id/stages":         false,
		"POST /api/topics/:id/generations":   false,
		"POST /api/generations/:id/publish":  false,
		"POST /api/generations/:id/response": false,
		"POST /api/generations/:id/fail":     false,
		"DELETE /api/generations/:id":        false,
		"GET /healthz":                       false,
	}
	for _, ri := range r.Routes() {
		key := ri.Method + " " + ri.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for route, seen := range want {
		if !seen {
			t.Fatalf("route not registered: %s", route)
		}
	}
}
