package routereg

import (
	"context"
	"strings"
)

// DefaultRoute declares a built-in route-table entry with role and
// permission references by title. Titles are resolved to ids when the entry
// is first written.
type DefaultRoute struct {
	RouteURL    string
	Method      string
	Description string
	Params      string
	Controller  string
	RoleTitles  []string
	PermTitles  []string
	IsCheckAuth bool
	IsCheckBan  bool
}

// EnsureRoutes writes any missing default entries and rebuilds the snapshot
// once. Existing entries are left untouched, so operator edits survive a
// restart.
func (s *Service) EnsureRoutes(ctx context.Context, defaults []DefaultRoute) error {
	changed := false
	for _, d := range defaults {
		method := strings.ToUpper(strings.TrimSpace(d.Method))
		existing, err := s.store.Find(ctx, d.RouteURL, method)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		permIDs, err := s.rbac.PermissionIDsByTitles(ctx, d.PermTitles)
		if err != nil {
			return err
		}
		roleIDs, err := s.rbac.RoleIDsByTitles(ctx, d.RoleTitles)
		if err != nil {
			return err
		}
		route := Route{
			RouteURL:       d.RouteURL,
			Method:         method,
			Description:    d.Description,
			Params:         d.Params,
			Controller:     d.Controller,
			AccessPermList: permIDs,
			AccessRoleList: roleIDs,
			IsCheckAuth:    d.IsCheckAuth,
			IsCheckBan:     d.IsCheckBan,
		}
		if err := s.store.Create(ctx, &route); err != nil {
			return err
		}
		changed = true
	}
	if changed {
		return s.registry.Rebuild(ctx)
	}
	return nil
}
