package routereg

import (
	"context"
	"errors"
	"time"
)

var (
	// Distinct BadRequest-class match failures, kept separate for
	// diagnostics: "no such template" vs "template exists, wrong method" vs
	// "template exists, params differ".
	ErrRouteNotFound  = errors.New("routereg: route not found")
	ErrMethodMismatch = errors.New("routereg: method mismatch")
	ErrParamsMismatch = errors.New("routereg: params mismatch")

	ErrNotFound = errors.New("routereg: not found")
	ErrConflict = errors.New("routereg: route already registered")
)

// Route is a persisted route-registry entry: the single source of truth for
// what protection an endpoint requires. RouteURL is a template with dynamic
// segments already replaced by :id/:link/:slug placeholders.
type Route struct {
	ID             string    `json:"id" bson:"_id,omitempty"`
	RouteURL       string    `json:"route_url" bson:"routeUrl"`
	Method         string    `json:"method" bson:"method"`
	Description    string    `json:"description,omitempty" bson:"description,omitempty"`
	Params         string    `json:"params,omitempty" bson:"params,omitempty"`
	Controller     string    `json:"controller,omitempty" bson:"controller,omitempty"`
	AccessPermList []string  `json:"access_perm_list" bson:"accessPermList"`
	AccessRoleList []string  `json:"access_role_list" bson:"accessRoleList"`
	IsCheckAuth    bool      `json:"is_check_auth" bson:"isCheckAuth"`
	IsCheckBan     bool      `json:"is_check_ban" bson:"isCheckBan"`
	CreatedAt      time.Time `json:"created_at" bson:"createdAt"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updatedAt"`
}

// CompiledRoute is a registry entry with role and permission references
// resolved to titles, ready for guard evaluation without storage access.
type CompiledRoute struct {
	Route
	RoleTitles []string
	PermTitles []string
}

// Store persists route-registry entries.
type Store interface {
	Create(ctx context.Context, r *Route) error
	FindByID(ctx context.Context, id string) (*Route, error)
	Find(ctx context.Context, routeURL, method string) (*Route, error)
	List(ctx context.Context) ([]Route, error)
	Update(ctx context.Context, r *Route) error
	Delete(ctx context.Context, id string) error
}

// SlugSource supplies the known slugs of the slugged content kinds
// (categories, tags, posts) keyed by entity id.
type SlugSource interface {
	Slugs(ctx context.Context) (map[string]string, error)
}
