package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/plumeblog/plume/internal/audit"
	"github.com/plumeblog/plume/internal/auth"
	"github.com/plumeblog/plume/internal/ban"
	"github.com/plumeblog/plume/internal/rbac"
	"github.com/plumeblog/plume/internal/routereg"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleServiceError maps the sentinel taxonomy to status codes in one
// place: 400 malformed input or unmatched template, 401 missing/invalid
// credential, 403 insufficient role/permission or active ban, 404 unknown
// resource, 409 duplicate.
func (a *API) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, rbac.ErrInvalidInput),
		errors.Is(err, rbac.ErrInvalidID),
		errors.Is(err, ban.ErrBadDuration),
		errors.Is(err, routereg.ErrRouteNotFound),
		errors.Is(err, routereg.ErrMethodMismatch),
		errors.Is(err, routereg.ErrParamsMismatch):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrUnauthorized):
		writeError(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrForbidden),
		errors.Is(err, rbac.ErrProtectedRole),
		errors.Is(err, ban.ErrSuperAdminImmune):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, auth.ErrNotFound),
		errors.Is(err, rbac.ErrNotFound),
		errors.Is(err, ban.ErrNotFound),
		errors.Is(err, routereg.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrConflict),
		errors.Is(err, rbac.ErrConflict),
		errors.Is(err, routereg.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		if a.log != nil {
			a.log.Errorw("request failed",
				"method", r.Method,
				"path", r.URL.Path,
				"error", err,
			)
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
