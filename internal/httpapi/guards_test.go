package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/plumeblog/plume/internal/auth"
	"github.com/plumeblog/plume/internal/rbac"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func principalRequest(p auth.Principal) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	return req.WithContext(auth.ContextWithPrincipal(context.Background(), p))
}

func TestRequireAuth(t *testing.T) {
	a := &API{}
	handler := a.requireAuth(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/test", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, principalRequest(auth.Principal{UserID: "u1"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("authenticated: expected 200, got %d", rr.Code)
	}
}

func TestRequireRoles(t *testing.T) {
	a := &API{}
	handler := a.requireRoles(rbac.RoleAdmin, rbac.RoleSuperAdmin)(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/test", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, principalRequest(auth.Principal{UserID: "u1", Roles: []string{rbac.RoleUser}}))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("plain user: expected 403, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, principalRequest(auth.Principal{UserID: "u1", Roles: []string{rbac.RoleUser, rbac.RoleAdmin}}))
	if rr.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", rr.Code)
	}
}

func TestRequirePermissions(t *testing.T) {
	a := &API{}
	handler := a.requirePermissions(rbac.PermPostDelete)(okHandler())

	perms := func(titles ...string) map[string]struct{} {
		m := make(map[string]struct{}, len(titles))
		for _, title := range titles {
			m[title] = struct{}{}
		}
		return m
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, principalRequest(auth.Principal{
		UserID:      "u1",
		Permissions: perms(rbac.PermPostRead, rbac.PermPostCreate),
	}))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("missing permission: expected 403, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, principalRequest(auth.Principal{
		UserID:      "u1",
		Permissions: perms(rbac.PermPostDelete),
	}))
	if rr.Code != http.StatusOK {
		t.Fatalf("holder: expected 200, got %d", rr.Code)
	}

	// CAN-ALL satisfies any requirement
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, principalRequest(auth.Principal{
		UserID:      "u1",
		Permissions: perms(rbac.PermCanAll),
	}))
	if rr.Code != http.StatusOK {
		t.Fatalf("can-all: expected 200, got %d", rr.Code)
	}
}

func TestWithAuthAnonymousPassThrough(t *testing.T) {
	e := newTestEnv(t)

	var sawPrincipal bool
	handler := e.api.withAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawPrincipal = auth.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// no Authorization header: request proceeds anonymously
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/test", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("anonymous: expected 200, got %d", rr.Code)
	}
	if sawPrincipal {
		t.Fatalf("anonymous request must not carry a principal")
	}
}

func TestWithAuthRejectsBadTokens(t *testing.T) {
	e := newTestEnv(t)
	handler := e.api.withAuth(okHandler())

	cases := []string{
		"Bearer not-a-jwt",
		"Bearer ",
		"Basic dXNlcjpwYXNz",
		"not-even-a-scheme",
	}
	for _, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
		req.Header.Set("Authorization", header)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rr.Code)
		}
	}
}

func TestWithAuthResolvesPrincipal(t *testing.T) {
	e := newTestEnv(t)
	userID, token := e.registerUser("reader@example.com", "secret")

	var got auth.Principal
	handler := e.api.withAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got.UserID != userID {
		t.Fatalf("principal user %q, want %q", got.UserID, userID)
	}
	if !got.HasPermission(rbac.PermPostRead) {
		t.Fatalf("USER role should grant %s", rbac.PermPostRead)
	}
	if got.HasPermission(rbac.PermPostDelete) {
		t.Fatalf("USER role must not grant %s", rbac.PermPostDelete)
	}
}

func TestGuardByRouteOptionsBypass(t *testing.T) {
	e := newTestEnv(t)
	handler := e.api.guardByRoute(okHandler())

	// no such template, but preflight never consults the table
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/nowhere", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
