package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/linkboard/internal/api/handler"
	"github.com/jmerrifield20/linkboard/internal/health"
)

type stubReadiness struct {
	ready bool
}

func (s stubReadiness) Ready() bool { return s.ready }

func (s stubReadiness) Snapshot() map[string]health.Status {
	return map[string]health.Status{"store": {Healthy: s.ready}}
}

func serveHealth(t *testing.T, h *handler.HealthHandler, path string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.Register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthz(t *testing.T) {
	w := serveHealth(t, handler.NewHealthHandler(stubReadiness{ready: false}), "/healthz")
	if w.Code != http.StatusOK {
		t.Errorf("liveness must not depend on dependencies, got %d", w.Code)
	}
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name string
		h    *handler.HealthHandler
		want int
	}{
		{"no checker", handler.NewHealthHandler(nil), http.StatusOK},
		{"ready", handler.NewHealthHandler(stubReadiness{ready: true}), http.StatusOK},
		{"degraded", handler.NewHealthHandler(stubReadiness{ready: false}), http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if w := serveHealth(t, tc.h, "/readyz"); w.Code != tc.want {
				t.Errorf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}
