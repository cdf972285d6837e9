package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/plumeblog/plume/internal/auth"
)

const refreshCookie = "refreshToken"

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User        any    `json:"user"`
	AccessToken string `json:"access_token"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	session, err := a.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	a.audit(r.Context(), "user.register", "user_id", session.User.ID, "email", session.User.Email)
	a.setRefreshCookie(w, session.RefreshToken)
	writeJSON(w, http.StatusCreated, sessionResponse{
		User:        session.User,
		AccessToken: session.AccessToken,
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	session, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	a.audit(r.Context(), "user.login", "user_id", session.User.ID)
	a.setRefreshCookie(w, session.RefreshToken)
	writeJSON(w, http.StatusOK, sessionResponse{
		User:        session.User,
		AccessToken: session.AccessToken,
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(refreshCookie); err == nil {
		token = c.Value
	}
	if err := a.auth.Logout(r.Context(), token); err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	a.audit(r.Context(), "user.logout")
	a.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(refreshCookie)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "refresh token is required")
		return
	}
	session, err := a.auth.Refresh(r.Context(), c.Value)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	a.setRefreshCookie(w, session.RefreshToken)
	writeJSON(w, http.StatusOK, sessionResponse{
		User:        session.User,
		AccessToken: session.AccessToken,
	})
}

func (a *API) handleActivate(w http.ResponseWriter, r *http.Request) {
	user, err := a.auth.Activate(r.Context(), chi.URLParam(r, "link"))
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	a.audit(r.Context(), "user.activate", "user_id", user.ID)
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	perms := make([]string, 0, len(principal.Permissions))
	for p := range principal.Permissions {
		perms = append(perms, p)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":     principal.UserID,
		"email":       principal.Email,
		"roles":       principal.Roles,
		"permissions": perms,
	})
}

func (a *API) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    token,
		Path:     "/api/user",
		MaxAge:   int(a.auth.Tokens().RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   a.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *API) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     "/api/user",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
