package server

import (
	"encoding/json"
	"net/http"
	"testing"

	authdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/auth/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/auth/password"
)

func TestLoginSetsSessionCookie(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, "/auth/login", `{"email":"admin@cakeraft.test","password":"secret"}`, false)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	cookies := resp.Result().Cookies()
	var found bool
	for _, cookie := range cookies {
		if cookie.Name == ts.srv.sessions.CookieName() && cookie.Value != "" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected session cookie, got %v", cookies)
	}

	var payload struct {
		Data UserResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.Email != "admin@cakeraft.test" || payload.Data.Role != "admin" {
		t.Fatalf("unexpected user payload: %+v", payload.Data)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ts := newTestServer(t)
	ts.auth.loginErr = authdomain.ErrInvalidCredentials

	resp := ts.request(t, http.MethodPost, "/auth/login", `{"email":"admin@cakeraft.test","password":"wrong"}`, false)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestMeRequiresSession(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, "/auth/me", "", false)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}

	resp = ts.request(t, http.MethodGet, "/auth/me", "", true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		Data UserResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.Data.MustChangePassword {
		t.Fatal("default admin without a password change should be flagged")
	}
}

func TestLogoutClearsSession(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, "/auth/logout", "", true)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.Code)
	}
	if ts.auth.logoutCalls != 1 {
		t.Fatalf("expected one logout call, got %d", ts.auth.logoutCalls)
	}
}

func TestChangePasswordValidatesInput(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name string
		body string
		code string
	}{
		{"missing current", `{"new_password":"longenough"}`, "required"},
		{"missing new", `{"current_password":"secret"}`, "required"},
		{"same password", `{"current_password":"secret","new_password":"secret"}`, "must_differ"},
		{"too short", `{"current_password":"secret","new_password":"short"}`, "weak_password"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := ts.request(t, http.MethodPost, "/auth/change-password", tc.body, true)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", resp.Code)
			}

			var payload struct {
				Error struct {
					Errors []ValidationError `json:"errors"`
				} `json:"error"`
			}
			if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if len(payload.Error.Errors) != 1 || payload.Error.Errors[0].Code != tc.code {
				t.Fatalf("expected code %q, got %+v", tc.code, payload.Error.Errors)
			}
		})
	}

	if ts.auth.changePassCalls != 0 {
		t.Fatalf("service should not be reached on validation failures, got %d calls", ts.auth.changePassCalls)
	}
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	ts := newTestServer(t)

	hash, err := password.Hash("secret")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	ts.auth.user.PasswordHash = &hash

	resp := ts.request(t, http.MethodPost, "/auth/change-password", `{"current_password":"wrong","new_password":"longenough"}`, true)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for wrong current password, got %d", resp.Code)
	}
	if ts.auth.changePassCalls != 0 {
		t.Fatal("service should not be reached with a wrong current password")
	}

	resp = ts.request(t, http.MethodPost, "/auth/change-password", `{"current_password":"secret","new_password":"longenough"}`, true)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", resp.Code, resp.Body.String())
	}
	if ts.auth.changePassCalls != 1 || ts.auth.lastNewPassword != "longenough" {
		t.Fatalf("unexpected service calls: %d %q", ts.auth.changePassCalls, ts.auth.lastNewPassword)
	}
}

func TestCreateUserDefaultsToStaffRole(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, "/admin/users", `{"email":"staff@cakeraft.test","password":"longenough","display_name":"Staff"}`, true)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if ts.auth.lastCreateUser.Role != authdomain.RoleStaff {
		t.Fatalf("expected staff role, got %q", ts.auth.lastCreateUser.Role)
	}
	if got := ts.authz.calls; len(got) == 0 || got[len(got)-1] != "user:user.manage" {
		t.Fatalf("expected user.manage authorization, got %v", got)
	}
}
