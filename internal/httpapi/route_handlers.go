package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/plumeblog/plume/internal/routereg"
)

type routeRequest struct {
	RouteURL       string   `json:"route_url"`
	Method         string   `json:"method"`
	Description    string   `json:"description"`
	Params         string   `json:"params"`
	Controller     string   `json:"controller"`
	AccessPermList []string `json:"access_perm_list"`
	AccessRoleList []string `json:"access_role_list"`
	IsCheckAuth    bool     `json:"is_check_auth"`
	IsCheckBan     bool     `json:"is_check_ban"`
}

func (req routeRequest) toRoute() routereg.Route {
	return routereg.Route{
		RouteURL:       req.RouteURL,
		Method:         req.Method,
		Description:    req.Description,
		Params:         req.Params,
		Controller:     req.Controller,
		AccessPermList: req.AccessPermList,
		AccessRoleList: req.AccessRoleList,
		IsCheckAuth:    req.IsCheckAuth,
		IsCheckBan:     req.IsCheckBan,
	}
}

func (a *API) handleCreateRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	route, err := a.routes.CreateRoute(r.Context(), req.toRoute())
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	a.audit(r.Context(), "settings.route.create",
		"route_id", route.ID,
		"route_url", route.RouteURL,
		"route_method", route.Method,
	)
	writeJSON(w, http.StatusCreated, route)
}

func (a *API) handleListRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := a.routes.GetRoutes(r.Context())
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, routes)
}

func (a *API) handleGetRoute(w http.ResponseWriter, r *http.Request) {
	route, err := a.routes.GetRoute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, route)
}

func (a *API) handleUpdateRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	route, err := a.routes.UpdateRoute(r.Context(), chi.URLParam(r, "id"), req.toRoute())
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	a.audit(r.Context(), "settings.route.update", "route_id", route.ID)
	writeJSON(w, http.StatusOK, route)
}

func (a *API) handleDeleteRoute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.routes.DeleteRoute(r.Context(), id); err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	a.audit(r.Context(), "settings.route.delete", "route_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleRefreshRoutes forces a full rebuild of the route snapshot and the
// slug index, for when content slugs changed out of band.
func (a *API) handleRefreshRoutes(w http.ResponseWriter, r *http.Request) {
	if slugs := a.registry.Slugs(); slugs != nil {
		if err := slugs.Rebuild(r.Context()); err != nil {
			a.handleServiceError(w, r, err)
			return
		}
	}
	if err := a.registry.Rebuild(r.Context()); err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	a.audit(r.Context(), "settings.route.refresh")
	w.WriteHeader(http.StatusNoContent)
}
