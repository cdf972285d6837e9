package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/plumeblog/plume/internal/audit"
	"github.com/plumeblog/plume/internal/auth"
	"github.com/plumeblog/plume/internal/ban"
	"github.com/plumeblog/plume/internal/rbac"
	"github.com/plumeblog/plume/internal/routereg"
	"github.com/plumeblog/plume/internal/store/memory"
)

type testEnv struct {
	t       *testing.T
	store   *memory.Store
	rbac    *rbac.Service
	auth    *auth.Service
	bans    *ban.Service
	routes  *routereg.Service
	api     *API
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	resolver, err := rbac.NewService(store.Permissions(), store.Roles(), store.Users())
	if err != nil {
		t.Fatalf("rbac service: %v", err)
	}
	if err := resolver.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tokens, err := auth.NewTokenService("test-access-secret", "test-refresh-secret")
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	authSvc, err := auth.NewService(store.Users(), resolver, tokens, store.Tokens(), nil, "http://localhost:8080")
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	banSvc, err := ban.NewService(store.Bans(), store.Users(), resolver)
	if err != nil {
		t.Fatalf("ban service: %v", err)
	}

	slugs := routereg.NewSlugIndex(store.SlugSource())
	if err := slugs.Rebuild(ctx); err != nil {
		t.Fatalf("slug rebuild: %v", err)
	}
	registry := routereg.NewRegistry(store.Routes(), resolver, slugs)
	log := zap.NewNop().Sugar()
	routeSvc, err := routereg.NewService(store.Routes(), registry, resolver, log)
	if err != nil {
		t.Fatalf("route service: %v", err)
	}
	if err := routeSvc.EnsureRoutes(ctx, DefaultRoutes()); err != nil {
		t.Fatalf("route bootstrap: %v", err)
	}

	api := New(Deps{
		Log:      log,
		Trail:    audit.NewTrail(log),
		Auth:     authSvc,
		RBAC:     resolver,
		Bans:     banSvc,
		Routes:   routeSvc,
		Registry: registry,
		Version:  "test",
	})

	return &testEnv{
		t:       t,
		store:   store,
		rbac:    resolver,
		auth:    authSvc,
		bans:    banSvc,
		routes:  routeSvc,
		api:     api,
		handler: api.Handler(),
	}
}

// registerUser creates an account and promotes it to the given seeded roles.
// Returns the user id and a fresh access token reflecting the final role set.
func (e *testEnv) registerUser(email, password string, roleTitles ...string) (string, string) {
	e.t.Helper()
	ctx := context.Background()
	session, err := e.auth.Register(ctx, email, password)
	if err != nil {
		e.t.Fatalf("register %s: %v", email, err)
	}
	if len(roleTitles) > 0 {
		views, err := e.rbac.GetAllRoles(ctx)
		if err != nil {
			e.t.Fatalf("roles: %v", err)
		}
		for _, title := range roleTitles {
			for _, v := range views {
				if v.Title == title {
					if err := e.rbac.AssignRole(ctx, session.User.ID, v.ID); err != nil {
						e.t.Fatalf("assign %s: %v", title, err)
					}
				}
			}
		}
		// re-login so the principal resolution sees the new roles
		session, err = e.auth.Login(ctx, email, password)
		if err != nil {
			e.t.Fatalf("login %s: %v", email, err)
		}
	}
	return session.User.ID, session.AccessToken
}

func (e *testEnv) request(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)
	rr := e.request(http.MethodGet, "/healthz", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected X-Request-Id header")
	}
}

func TestRegistrationSetsRefreshCookie(t *testing.T) {
	e := newTestEnv(t)

	rr := e.request(http.MethodPost, "/api/user/registration", "", map[string]string{
		"email":    "reader@example.com",
		"password": "secret",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == refreshCookie {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatalf("expected %s cookie", refreshCookie)
	}
	if !cookie.HttpOnly {
		t.Fatalf("refresh cookie must be http-only")
	}
	if cookie.MaxAge != int((30 * 24 * 60 * 60)) {
		t.Fatalf("unexpected cookie max-age %d", cookie.MaxAge)
	}

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	decodeBody(t, rr, &resp)
	if resp.AccessToken == "" {
		t.Fatalf("expected access token in response")
	}
}

func TestRefreshRotatesCookie(t *testing.T) {
	e := newTestEnv(t)

	rr := e.request(http.MethodPost, "/api/user/registration", "", map[string]string{
		"email":    "reader@example.com",
		"password": "secret",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: %d", rr.Code)
	}
	var refresh *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == refreshCookie {
			refresh = c
		}
	}
	if refresh == nil {
		t.Fatalf("missing refresh cookie")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/user/refresh", nil)
	req.AddCookie(refresh)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// no cookie at all is a 401
	rec = httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/user/refresh", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh without cookie: expected 401, got %d", rec.Code)
	}
}

func TestMeRequiresAuthentication(t *testing.T) {
	e := newTestEnv(t)

	rr := e.request(http.MethodGet, "/api/user/me", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", rr.Code)
	}

	rr = e.request(http.MethodGet, "/api/user/me", "not-a-token", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", rr.Code)
	}

	_, token := e.registerUser("reader@example.com", "secret")
	rr = e.request(http.MethodGet, "/api/user/me", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("authenticated: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var me struct {
		Email string   `json:"email"`
		Roles []string `json:"roles"`
	}
	decodeBody(t, rr, &me)
	if me.Email != "reader@example.com" {
		t.Fatalf("unexpected email %q", me.Email)
	}
	if len(me.Roles) != 1 || me.Roles[0] != rbac.RoleUser {
		t.Fatalf("unexpected roles %v", me.Roles)
	}
}

func TestBannedUserIsRejected(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	userID, token := e.registerUser("target@example.com", "secret")
	adminID, _ := e.registerUser("admin@example.com", "secret", rbac.RoleAdmin)

	if _, err := e.bans.Issue(ctx, userID, adminID, ban.IssueRequest{BanDuration: "1h"}); err != nil {
		t.Fatalf("issue ban: %v", err)
	}

	rr := e.request(http.MethodGet, "/api/user/me", token, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("banned: expected 403, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestPermissionEndpointsRequirePermission(t *testing.T) {
	e := newTestEnv(t)

	_, userToken := e.registerUser("reader@example.com", "secret")
	_, adminToken := e.registerUser("admin@example.com", "secret", rbac.RoleAdmin)

	body := map[string]string{"title": "comment-create", "description": "create comments"}

	// plain USER lacks ROLE-CREATE
	rr := e.request(http.MethodPost, "/api/permission", userToken, body)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("user: expected 403, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = e.request(http.MethodPost, "/api/permission", adminToken, body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("admin: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var created rbac.Permission
	decodeBody(t, rr, &created)
	if created.Title != "COMMENT-CREATE" {
		t.Fatalf("unexpected title %q", created.Title)
	}

	// duplicate titles conflict
	rr = e.request(http.MethodPost, "/api/permission", adminToken, body)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", rr.Code)
	}
}

func TestProtectedRoleDeletionIsForbidden(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	_, adminToken := e.registerUser("admin@example.com", "secret", rbac.RoleAdmin)

	views, err := e.rbac.GetAllRoles(ctx)
	if err != nil {
		t.Fatalf("roles: %v", err)
	}
	var guestID string
	for _, v := range views {
		if v.Title == rbac.RoleGuest {
			guestID = v.ID
		}
	}

	rr := e.request(http.MethodDelete, "/api/role/"+guestID, adminToken, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestSettingsRoutesRequireSuperAdmin(t *testing.T) {
	e := newTestEnv(t)

	_, adminToken := e.registerUser("admin@example.com", "secret", rbac.RoleAdmin)
	_, superToken := e.registerUser("root@example.com", "secret", rbac.RoleSuperAdmin)

	rr := e.request(http.MethodGet, "/api/settings/routes", adminToken, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("admin: expected 403, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = e.request(http.MethodGet, "/api/settings/routes", superToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("super admin: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var routes []routereg.Route
	decodeBody(t, rr, &routes)
	if len(routes) == 0 {
		t.Fatalf("expected bootstrapped route table")
	}
}

func TestUnregisteredTemplateIsRejected(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.registerUser("reader@example.com", "secret")

	rr := e.request(http.MethodGet, "/api/unknown/thing", token, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unmatched template, got %d: %s", rr.Code, rr.Body.String())
	}

	// known template, unregistered method
	rr = e.request(http.MethodPatch, "/api/user/me", token, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for method mismatch, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAssignRoleOverHTTP(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	targetID, _ := e.registerUser("target@example.com", "secret")
	_, adminToken := e.registerUser("admin@example.com", "secret", rbac.RoleAdmin)

	views, err := e.rbac.GetAllRoles(ctx)
	if err != nil {
		t.Fatalf("roles: %v", err)
	}
	var managerID string
	for _, v := range views {
		if v.Title == rbac.RoleManager {
			managerID = v.ID
		}
	}

	rr := e.request(http.MethodPost, "/api/user/"+targetID+"/role", adminToken, map[string]string{
		"role_id": managerID,
	})
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}

	user, err := e.rbac.GetUser(ctx, targetID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	found := false
	for _, id := range user.Roles {
		if id == managerID {
			found = true
		}
	}
	if !found {
		t.Fatalf("manager role not assigned: %v", user.Roles)
	}
}

func TestBanLifecycleOverHTTP(t *testing.T) {
	e := newTestEnv(t)

	targetID, targetToken := e.registerUser("target@example.com", "secret")
	_, adminToken := e.registerUser("admin@example.com", "secret", rbac.RoleAdmin)

	rr := e.request(http.MethodPost, "/api/user/"+targetID+"/ban", adminToken, map[string]string{
		"ban_duration": "1h",
		"description":  "spamming",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("issue: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var issued ban.Ban
	decodeBody(t, rr, &issued)

	if rr := e.request(http.MethodGet, "/api/user/me", targetToken, nil); rr.Code != http.StatusForbidden {
		t.Fatalf("banned target: expected 403, got %d", rr.Code)
	}

	rr = e.request(http.MethodPost, "/api/ban/"+issued.ID+"/lift", adminToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("lift: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if rr := e.request(http.MethodGet, "/api/user/me", targetToken, nil); rr.Code != http.StatusOK {
		t.Fatalf("after lift: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestSuperAdminCannotBeBannedOverHTTP(t *testing.T) {
	e := newTestEnv(t)

	superID, _ := e.registerUser("root@example.com", "secret", rbac.RoleSuperAdmin)
	_, adminToken := e.registerUser("admin@example.com", "secret", rbac.RoleAdmin)

	rr := e.request(http.MethodPost, "/api/user/"+superID+"/ban", adminToken, map[string]string{
		"ban_duration": "1h",
	})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestEditorCanCreateButNotDeletePosts(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	perms, err := e.rbac.GetAllPermissions(ctx)
	if err != nil {
		t.Fatalf("permissions: %v", err)
	}
	var createID, deleteID string
	for _, p := range perms {
		switch p.Title {
		case rbac.PermPostCreate:
			createID = p.ID
		case rbac.PermPostDelete:
			deleteID = p.ID
		}
	}

	editor, err := e.rbac.CreateRole(ctx, "editor", "writes posts", []string{createID}, "")
	if err != nil {
		t.Fatalf("create role: %v", err)
	}
	if _, err := e.routes.CreateRoute(ctx, routereg.Route{
		RouteURL:       "/api/post",
		Method:         http.MethodPost,
		Controller:     "post",
		AccessPermList: []string{createID},
		IsCheckAuth:    true,
	}); err != nil {
		t.Fatalf("create route: %v", err)
	}
	if _, err := e.routes.CreateRoute(ctx, routereg.Route{
		RouteURL:       "/api/post/:id",
		Method:         http.MethodDelete,
		Params:         routereg.ParamID,
		Controller:     "post",
		AccessPermList: []string{deleteID},
		IsCheckAuth:    true,
	}); err != nil {
		t.Fatalf("create route: %v", err)
	}

	userID, _ := e.registerUser("editor@example.com", "secret")
	if err := e.rbac.AssignRole(ctx, userID, editor.ID); err != nil {
		t.Fatalf("assign editor: %v", err)
	}
	session, err := e.auth.Login(ctx, "editor@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// guard chain in isolation; the concrete post handlers live elsewhere
	handler := e.api.withAuth(e.api.guardByRoute(okHandler()))

	req := httptest.NewRequest(http.MethodPost, "/api/post", nil)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/post/"+userID, nil)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("delete: expected 403, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/user/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("missing CORS origin header")
	}
}
