package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthRequiredRejectsMissingCookie(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, "/api/v1/products", "", false)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestAuthRequiredRejectsUnknownToken(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.AddCookie(&http.Cookie{Name: ts.srv.sessions.CookieName(), Value: "stale-token"})
	resp := httptest.NewRecorder()
	ts.srv.engine.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestAdminRoutesRunAuthorization(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, "/admin/reports/revenue", "", true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if got := ts.authz.calls; len(got) != 1 || got[0] != "report:report.view" {
		t.Fatalf("expected report.view authorization, got %v", got)
	}
}
