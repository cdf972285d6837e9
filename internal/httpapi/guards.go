package httpapi

import (
	"net/http"

	"github.com/plumeblog/plume/internal/auth"
	"github.com/plumeblog/plume/internal/obs"
	"github.com/plumeblog/plume/internal/rbac"
)

// guardByRoute enforces whatever the route table declares for the request:
// authentication, then roles, then permissions, then the ban check. The
// request path is normalized to a template first; a request that matches no
// registered template is rejected outright, so the table is the single
// source of truth for the whole surface.
func (a *API) guardByRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		route, err := a.registry.Match(r.Method, r.URL.Path)
		if err != nil {
			a.handleServiceError(w, r, err)
			return
		}

		principal, authed := auth.PrincipalFromContext(r.Context())

		if route.IsCheckAuth && !authed {
			a.deny(w, r, "auth", http.StatusUnauthorized, "authentication required")
			return
		}
		if len(route.RoleTitles) > 0 {
			if !authed || !principal.HasAnyRole(route.RoleTitles...) {
				a.deny(w, r, "roles", http.StatusForbidden, "insufficient role")
				return
			}
			obs.RecordDecision("roles", true)
		}
		if len(route.PermTitles) > 0 {
			if !authed || !hasPermission(principal, route.PermTitles...) {
				a.deny(w, r, "permissions", http.StatusForbidden, "insufficient permissions")
				return
			}
			obs.RecordDecision("permissions", true)
		}
		if route.IsCheckBan && authed {
			banned, err := a.bans.IsBanned(r.Context(), principal.UserID)
			if err != nil {
				// fail closed on storage errors
				a.deny(w, r, "ban", http.StatusUnauthorized, "authorization unavailable")
				return
			}
			if banned {
				a.deny(w, r, "ban", http.StatusForbidden, "user is banned")
				return
			}
			obs.RecordDecision("ban", true)
		}

		next.ServeHTTP(w, r)
	})
}

// requireAuth rejects anonymous requests.
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.PrincipalFromContext(r.Context()); !ok {
			a.deny(w, r, "auth", http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireRoles passes when the principal's role titles intersect the list.
func (a *API) requireRoles(titles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				a.deny(w, r, "roles", http.StatusUnauthorized, "authentication required")
				return
			}
			if !principal.HasAnyRole(titles...) {
				a.deny(w, r, "roles", http.StatusForbidden, "insufficient role")
				return
			}
			obs.RecordDecision("roles", true)
			next.ServeHTTP(w, r)
		})
	}
}

// requirePermissions passes when the effective permission set intersects the
// list. CAN-ALL satisfies any requirement.
func (a *API) requirePermissions(titles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				a.deny(w, r, "permissions", http.StatusUnauthorized, "authentication required")
				return
			}
			if !hasPermission(principal, titles...) {
				a.deny(w, r, "permissions", http.StatusForbidden, "insufficient permissions")
				return
			}
			obs.RecordDecision("permissions", true)
			next.ServeHTTP(w, r)
		})
	}
}

// requireNotBanned rejects principals with any active ban.
func (a *API) requireNotBanned(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			a.deny(w, r, "ban", http.StatusUnauthorized, "authentication required")
			return
		}
		banned, err := a.bans.IsBanned(r.Context(), principal.UserID)
		if err != nil {
			a.deny(w, r, "ban", http.StatusUnauthorized, "authorization unavailable")
			return
		}
		if banned {
			a.deny(w, r, "ban", http.StatusForbidden, "user is banned")
			return
		}
		obs.RecordDecision("ban", true)
		next.ServeHTTP(w, r)
	})
}

func hasPermission(p auth.Principal, titles ...string) bool {
	return p.HasPermission(rbac.PermCanAll) || p.HasAnyPermission(titles...)
}

func (a *API) deny(w http.ResponseWriter, r *http.Request, guard string, code int, msg string) {
	obs.RecordDecision(guard, false)
	if a.log != nil {
		userID := ""
		if principal, ok := auth.PrincipalFromContext(r.Context()); ok {
			userID = principal.UserID
		}
		a.log.Warnw("access denied",
			"guard", guard,
			"method", r.Method,
			"path", r.URL.Path,
			"user_id", userID,
			"reason", msg,
		)
	}
	a.audit(r.Context(), "guard.deny", "guard", guard, "path", r.URL.Path, "reason", msg)
	writeError(w, r, code, msg)
}
