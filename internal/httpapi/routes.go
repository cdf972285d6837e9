package httpapi

import (
	"net/http"

	"github.com/plumeblog/plume/internal/rbac"
	"github.com/plumeblog/plume/internal/routereg"
)

// DefaultRoutes is the built-in route table: one entry per served endpoint,
// declaring the protection the guard applies. Written to storage at boot if
// missing; operators adjust policy through the settings endpoints afterward.
func DefaultRoutes() []routereg.DefaultRoute {
	return []routereg.DefaultRoute{
		// public account lifecycle
		{RouteURL: "/api/user/registration", Method: http.MethodPost, Controller: "user"},
		{RouteURL: "/api/user/login", Method: http.MethodPost, Controller: "user"},
		{RouteURL: "/api/user/logout", Method: http.MethodPost, Controller: "user"},
		{RouteURL: "/api/user/refresh", Method: http.MethodPost, Controller: "user"},
		{RouteURL: "/api/user/activate/:link", Method: http.MethodGet, Params: routereg.ParamLink, Controller: "user"},

		// authenticated self-service
		{RouteURL: "/api/user/me", Method: http.MethodGet, Controller: "user",
			IsCheckAuth: true, IsCheckBan: true},

		// user administration
		{RouteURL: "/api/user", Method: http.MethodGet, Controller: "user",
			IsCheckAuth: true, IsCheckBan: true,
			PermTitles: []string{rbac.PermUserRead}},
		{RouteURL: "/api/user/:id/role", Method: http.MethodPost, Params: routereg.ParamID, Controller: "user",
			IsCheckAuth: true, IsCheckBan: true,
			PermTitles: []string{rbac.PermUserUpdate}},
		{RouteURL: "/api/user/:id/role", Method: http.MethodDelete, Params: routereg.ParamID, Controller: "user",
			IsCheckAuth: true, IsCheckBan: true,
			PermTitles: []string{rbac.PermUserUpdate}},

		// bans
		{RouteURL: "/api/user/:id/ban", Method: http.MethodGet, Params: routereg.ParamID, Controller: "ban",
			IsCheckAuth: true, IsCheckBan: true,
			PermTitles: []string{rbac.PermUserRead}},
		{RouteURL: "/api/user/:id/ban", Method: http.MethodPost, Params: routereg.ParamID, Controller: "ban",
			IsCheckAuth: true, IsCheckBan: true,
			PermTitles: []string{rbac.PermUserUpdate}},
		{RouteURL: "/api/ban/:id/lift", Method: http.MethodPost, Params: routereg.ParamID, Controller: "ban",
			IsCheckAuth: true, IsCheckBan: true,
			PermTitles: []string{rbac.PermUserUpdate}},

		// permission registry
		{RouteURL: "/api/permission", Method: http.MethodPost, Controller: "permission",
			IsCheckAuth: true, IsCheckBan: true,
			PermTitles: []string{rbac.PermRoleCreate}},
		{RouteURL: "/api/permission", Method: http.MethodGet, Controller: "permission",
			IsCheckAuth: true, IsCheckBan: true,
			PermTitles: []string{rbac.PermRoleRead}},
		{RouteURL: "/api/permission/:id", Method: http.MethodGet, Params: routereg.ParamID, Controller: "permission",
			IsCheckAuth: true, IsCheckBan: true,
			PermTitles: []string{rbac.PermRoleRead}},
		{RouteURL: "/api/permission/:id", Method: http.MethodPut, Params: routereg.ParamID, Controller: "permission",
			IsCheckAuth: true, IsCheckBan: true,
			PermTitles: []string{rbac.PermRoleUpdate}},
		{RouteURL: "/api/permission/:id", Method: http.MethodDelete, Params: routereg.ParamID, Controller: "permission",
			IsCheckAuth: true, IsCheckBan: true,
			PermTitles: []string{rbac.PermRoleDelete}},

		// role registry
		{RouteURL: "/api/role", Method: http.MethodPost, Controller: "role",
			IsCheckAuth: true, IsCheckBan: true,
			PermTitles: []string{rbac.PermRoleCreate}},
		{RouteURL: "/api/role", Method: http.MethodGet, Controller: "role",
			IsCheckAuth: true, IsCheckBan: true,
			PermTitles: []string{rbac.PermRoleRead}},
		{RouteURL: "/api/role/:id", Method: http.MethodGet, Params: routereg.ParamID, Controller: "role",
			IsCheckAuth: true, IsCheckBan: true,
			PermTitles: []string{rbac.PermRoleRead}},
		{RouteURL: "/api/role/:id", Method: http.MethodPut, Params: routereg.ParamID, Controller: "role",
			IsCheckAuth: true, IsCheckBan: true,
			PermTitles: []string{rbac.PermRoleUpdate}},
		{RouteURL: "/api/role/:id", Method: http.MethodDelete, Params: routereg.ParamID, Controller: "role",
			IsCheckAuth: true, IsCheckBan: true,
			PermTitles: []string{rbac.PermRoleDelete}},

		// settings: the route table itself
		{RouteURL: "/api/settings/routes", Method: http.MethodPost, Controller: "settings",
			IsCheckAuth: true,
			RoleTitles:  []string{rbac.RoleSuperAdmin}},
		{RouteURL: "/api/settings/routes", Method: http.MethodGet, Controller: "settings",
			IsCheckAuth: true,
			RoleTitles:  []string{rbac.RoleSuperAdmin}},
		{RouteURL: "/api/settings/routes/refresh", Method: http.MethodPost, Controller: "settings",
			IsCheckAuth: true,
			RoleTitles:  []string{rbac.RoleSuperAdmin}},
		{RouteURL: "/api/settings/routes/:id", Method: http.MethodGet, Params: routereg.ParamID, Controller: "settings",
			IsCheckAuth: true,
			RoleTitles:  []string{rbac.RoleSuperAdmin}},
		{RouteURL: "/api/settings/routes/:id", Method: http.MethodPut, Params: routereg.ParamID, Controller: "settings",
			IsCheckAuth: true,
			RoleTitles:  []string{rbac.RoleSuperAdmin}},
		{RouteURL: "/api/settings/routes/:id", Method: http.MethodDelete, Params: routereg.ParamID, Controller: "settings",
			IsCheckAuth: true,
			RoleTitles:  []string{rbac.RoleSuperAdmin}},
	}
}
