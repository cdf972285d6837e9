package routereg

import (
	"context"
	"fmt"
	"sync/atomic"
)

// RefResolver resolves permission and role references to canonical titles
// when the registry snapshot is compiled.
type RefResolver interface {
	PermissionTitles(ctx context.Context, ids []string) ([]string, error)
	RoleTitlesByIDs(ctx context.Context, ids []string) ([]string, error)
}

type routeSnapshot struct {
	// byURL groups compiled entries by template so a match miss can tell
	// "unknown template" apart from "wrong method/params".
	byURL map[string][]CompiledRoute
}

// Registry mirrors the persisted route table into in-process lookup state.
// Like the slug index it is an immutable snapshot behind an atomic pointer,
// fully rebuilt at boot and after every settings mutation.
type Registry struct {
	store    Store
	resolver RefResolver
	slugs    *SlugIndex
	snapshot atomic.Pointer[routeSnapshot]
}

func NewRegistry(store Store, resolver RefResolver, slugs *SlugIndex) *Registry {
	r := &Registry{store: store, resolver: resolver, slugs: slugs}
	r.snapshot.Store(&routeSnapshot{byURL: map[string][]CompiledRoute{}})
	return r
}

// Rebuild re-derives the whole snapshot from storage, resolving access list
// references to titles so guard evaluation needs no further lookups.
func (r *Registry) Rebuild(ctx context.Context) error {
	routes, err := r.store.List(ctx)
	if err != nil {
		return err
	}
	byURL := make(map[string][]CompiledRoute, len(routes))
	for _, route := range routes {
		permTitles, err := r.resolver.PermissionTitles(ctx, route.AccessPermList)
		if err != nil {
			return fmt.Errorf("compile route %s: %w", route.RouteURL, err)
		}
		roleTitles, err := r.resolver.RoleTitlesByIDs(ctx, route.AccessRoleList)
		if err != nil {
			return fmt.Errorf("compile route %s: %w", route.RouteURL, err)
		}
		byURL[route.RouteURL] = append(byURL[route.RouteURL], CompiledRoute{
			Route:      route,
			RoleTitles: roleTitles,
			PermTitles: permTitles,
		})
	}
	r.snapshot.Store(&routeSnapshot{byURL: byURL})
	return nil
}

// Match resolves a concrete request to its registry entry. The path is
// normalized to a template first; lookups then require the exact
// (routeUrl, method, params) triple. Misses return one of the three
// dedicated errors.
func (r *Registry) Match(method, path string) (*CompiledRoute, error) {
	var knownSlug func(string) bool
	if r.slugs != nil {
		knownSlug = r.slugs.Known
	}
	template, params := Normalize(path, knownSlug)

	candidates := r.snapshot.Load().byURL[template]
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, template)
	}
	methodSeen := false
	for i := range candidates {
		c := &candidates[i]
		if c.Method != method {
			continue
		}
		methodSeen = true
		if c.Params != params {
			continue
		}
		matched := *c
		return &matched, nil
	}
	if !methodSeen {
		return nil, fmt.Errorf("%w: %s %s", ErrMethodMismatch, method, template)
	}
	return nil, fmt.Errorf("%w: %s %s", ErrParamsMismatch, method, template)
}

// Slugs exposes the slug index backing normalization.
func (r *Registry) Slugs() *SlugIndex {
	return r.slugs
}
