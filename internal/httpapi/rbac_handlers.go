package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type permissionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type roleRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	ParentRole  string   `json:"parent_role"`
}

func (a *API) handleCreatePermission(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	perm, err := a.rbac.CreatePermission(r.Context(), req.Title, req.Description)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	a.audit(r.Context(), "permission.create", "permission_id", perm.ID, "title", perm.Title)
	writeJSON(w, http.StatusCreated, perm)
}

func (a *API) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := a.rbac.GetAllPermissions(r.Context())
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, perms)
}

func (a *API) handleGetPermission(w http.ResponseWriter, r *http.Request) {
	perm, err := a.rbac.GetPermission(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, perm)
}

func (a *API) handleUpdatePermission(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	perm, err := a.rbac.UpdatePermission(r.Context(), chi.URLParam(r, "id"), req.Title, req.Description)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	a.audit(r.Context(), "permission.update", "permission_id", perm.ID, "title", perm.Title)
	writeJSON(w, http.StatusOK, perm)
}

func (a *API) handleDeletePermission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.rbac.DeletePermission(r.Context(), id); err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	a.audit(r.Context(), "permission.delete", "permission_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role, err := a.rbac.CreateRole(r.Context(), req.Title, req.Description, req.Permissions, req.ParentRole)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	a.audit(r.Context(), "role.create", "role_id", role.ID, "title", role.Title)
	writeJSON(w, http.StatusCreated, role)
}

func (a *API) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := a.rbac.GetAllRoles(r.Context())
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

func (a *API) handleGetRole(w http.ResponseWriter, r *http.Request) {
	view, err := a.rbac.GetRoleView(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role, err := a.rbac.UpdateRole(r.Context(), chi.URLParam(r, "id"), req.Title, req.Description, req.Permissions, req.ParentRole)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	a.audit(r.Context(), "role.update", "role_id", role.ID, "title", role.Title)
	writeJSON(w, http.StatusOK, role)
}

func (a *API) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.rbac.DeleteRole(r.Context(), id); err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	a.audit(r.Context(), "role.delete", "role_id", id)
	w.WriteHeader(http.StatusNoContent)
}
