// Package httpapi is the HTTP layer: router wiring, authentication
// middleware and the guard chain in front of every handler.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/plumeblog/plume/internal/audit"
	"github.com/plumeblog/plume/internal/auth"
	"github.com/plumeblog/plume/internal/ban"
	"github.com/plumeblog/plume/internal/obs"
	"github.com/plumeblog/plume/internal/rbac"
	"github.com/plumeblog/plume/internal/routereg"
)

// ReadyProbe checks a downstream dependency for the readiness endpoint.
type ReadyProbe func(ctx context.Context) error

// Deps carries everything the HTTP layer needs. Auth, RBAC, routes and bans
// are required; Ready and Trail are optional.
type Deps struct {
	Log      *zap.SugaredLogger
	Trail    *audit.Trail
	Auth     *auth.Service
	RBAC     *rbac.Service
	Bans     *ban.Service
	Routes   *routereg.Service
	Registry *routereg.Registry
	Ready    ReadyProbe
	Version  string

	// CookieSecure marks the refresh cookie Secure; off in development.
	CookieSecure bool
}

// API is the HTTP layer.
type API struct {
	router       chi.Router
	log          *zap.SugaredLogger
	trail        *audit.Trail
	auth         *auth.Service
	rbac         *rbac.Service
	bans         *ban.Service
	routes       *routereg.Service
	registry     *routereg.Registry
	ready        ReadyProbe
	version      string
	cookieSecure bool
}

func New(deps Deps) *API {
	a := &API{
		router:       chi.NewRouter(),
		log:          deps.Log,
		trail:        deps.Trail,
		auth:         deps.Auth,
		rbac:         deps.RBAC,
		bans:         deps.Bans,
		routes:       deps.Routes,
		registry:     deps.Registry,
		ready:        deps.Ready,
		version:      deps.Version,
		cookieSecure: deps.CookieSecure,
	}

	r := a.router
	r.Use(RequestID)
	r.Use(a.logging)
	r.Use(SecurityHeaders)
	r.Use(CORS)
	r.Use(MaxBodyBytes(1 << 20))
	r.Use(RateLimit(20, 10))

	// health/ready/metrics live outside the guarded surface
	r.Get("/healthz", a.handleHealthz)
	r.Get("/readyz", a.handleReadyz)
	r.Handle("/metrics", obs.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(a.withAuth)
		api.Use(a.guardByRoute)

		api.Route("/user", func(user chi.Router) {
			user.Post("/registration", a.handleRegister)
			user.Post("/login", a.handleLogin)
			user.Post("/logout", a.handleLogout)
			user.Post("/refresh", a.handleRefresh)
			user.Get("/activate/{link}", a.handleActivate)
			user.With(a.requireAuth).Get("/me", a.handleMe)
			user.Get("/", a.handleListUsers)
			user.Post("/{id}/role", a.handleAssignRole)
			user.Delete("/{id}/role", a.handleRemoveRole)
			user.Get("/{id}/ban", a.handleListBans)
			user.With(a.requireNotBanned).Post("/{id}/ban", a.handleIssueBan)
		})

		api.Post("/ban/{id}/lift", a.handleLiftBan)

		api.Route("/permission", func(perm chi.Router) {
			perm.Post("/", a.handleCreatePermission)
			perm.Get("/", a.handleListPermissions)
			perm.Get("/{id}", a.handleGetPermission)
			perm.Put("/{id}", a.handleUpdatePermission)
			perm.Delete("/{id}", a.handleDeletePermission)
		})

		api.Route("/role", func(role chi.Router) {
			role.Post("/", a.handleCreateRole)
			role.Get("/", a.handleListRoles)
			role.Get("/{id}", a.handleGetRole)
			role.Put("/{id}", a.handleUpdateRole)
			role.Delete("/{id}", a.handleDeleteRole)
		})

		// settings: the route table itself; SUPER-ADMIN only on top of
		// whatever the table declares for these endpoints
		api.Route("/settings/routes", func(settings chi.Router) {
			settings.Use(a.requireRoles(rbac.RoleSuperAdmin))
			settings.Post("/", a.handleCreateRoute)
			settings.Get("/", a.handleListRoutes)
			settings.Post("/refresh", a.handleRefreshRoutes)
			settings.Get("/{id}", a.handleGetRoute)
			settings.Put("/{id}", a.handleUpdateRoute)
			settings.Delete("/{id}", a.handleDeleteRoute)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})

	return a
}

// Handler wraps the router with the metrics instrumentation.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.router)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "plume-api",
		"version": a.version,
	})
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if a.ready != nil {
		if err := a.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) audit(ctx context.Context, event string, fields ...any) {
	if a.trail != nil {
		a.trail.Event(ctx, event, fields...)
	}
}
