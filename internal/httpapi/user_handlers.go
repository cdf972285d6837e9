package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/plumeblog/plume/internal/auth"
	"github.com/plumeblog/plume/internal/ban"
)

type roleAssignmentRequest struct {
	RoleID string `json:"role_id"`
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.rbac.ListUsers(r.Context())
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	var req roleAssignmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	userID := chi.URLParam(r, "id")
	if err := a.rbac.AssignRole(r.Context(), userID, req.RoleID); err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	a.audit(r.Context(), "user.role.assign", "user_id", userID, "role_id", req.RoleID)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleRemoveRole(w http.ResponseWriter, r *http.Request) {
	var req roleAssignmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	userID := chi.URLParam(r, "id")
	if err := a.rbac.RemoveRole(r.Context(), userID, req.RoleID); err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	a.audit(r.Context(), "user.role.remove", "user_id", userID, "role_id", req.RoleID)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleListBans(w http.ResponseWriter, r *http.Request) {
	bans, err := a.bans.ListForUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bans)
}

func (a *API) handleIssueBan(w http.ResponseWriter, r *http.Request) {
	var req ban.IssueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	targetID := chi.URLParam(r, "id")
	b, err := a.bans.Issue(r.Context(), targetID, principal.UserID, req)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	a.audit(r.Context(), "ban.issue",
		"ban_id", b.ID,
		"target_user_id", targetID,
		"duration", b.BanDuration,
	)
	writeJSON(w, http.StatusCreated, b)
}

func (a *API) handleLiftBan(w http.ResponseWriter, r *http.Request) {
	b, err := a.bans.Lift(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	a.audit(r.Context(), "ban.lift", "ban_id", b.ID, "target_user_id", b.BannedUserID)
	writeJSON(w, http.StatusOK, b)
}
