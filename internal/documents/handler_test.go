package documents

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/shared/server/middleware"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(middleware.Auth(""))
	NewHandler(svc).RegisterRoutes(api)
	return router
}

func patchStatus(t *testing.T, router *gin.Engine, documentID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/documents/"+documentID+"/status", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-Id", "t1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestSetStatusRouteAppliesTransition(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env.svc)

	doc, _, err := env.svc.RegisterOrUpdate(context.Background(), "t1", registerInput("coi.pdf", []byte("bytes")))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	resp := patchStatus(t, router, doc.ID, `{"status":"processing"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	stored, err := env.svc.Get(context.Background(), "t1", doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != StatusProcessing {
		t.Fatalf("status not applied via route: %s", stored.Status)
	}

	resp = patchStatus(t, router, doc.ID, `{"status":"validated"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for illegal transition, got %d", resp.Code)
	}

	resp = patchStatus(t, router, "missing", `{"status":"processing"}`)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown document, got %d", resp.Code)
	}
}
