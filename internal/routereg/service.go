package routereg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/plumeblog/plume/internal/rbac"
)

// Service manages the persisted route table. Every mutation re-derives the
// in-process registry snapshot so policy changes apply without a redeploy.
type Service struct {
	store    Store
	registry *Registry
	rbac     *rbac.Service
	log      *zap.SugaredLogger
}

func NewService(store Store, registry *Registry, resolver *rbac.Service, log *zap.SugaredLogger) (*Service, error) {
	if store == nil || registry == nil || resolver == nil {
		return nil, errors.New("routereg: store, registry and rbac service are required")
	}
	return &Service{store: store, registry: registry, rbac: resolver, log: log}, nil
}

// CreateRoute registers a new route entry and refreshes the snapshot.
func (s *Service) CreateRoute(ctx context.Context, route Route) (*Route, error) {
	route.RouteURL = strings.TrimSpace(route.RouteURL)
	route.Method = strings.ToUpper(strings.TrimSpace(route.Method))
	if route.RouteURL == "" || route.Method == "" {
		return nil, fmt.Errorf("%w: route url and method are required", rbac.ErrInvalidInput)
	}
	if err := validateParams(route.Params); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, route); err != nil {
		return nil, err
	}
	if existing, err := s.store.Find(ctx, route.RouteURL, route.Method); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: %s %s", ErrConflict, route.Method, route.RouteURL)
	}
	if err := s.store.Create(ctx, &route); err != nil {
		return nil, err
	}
	s.refresh(ctx)
	return &route, nil
}

// GetRoute returns one entry by id.
func (s *Service) GetRoute(ctx context.Context, id string) (*Route, error) {
	if err := rbac.ValidateID(id); err != nil {
		return nil, err
	}
	r, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: route %s", ErrNotFound, id)
	}
	return r, nil
}

// GetRoutes returns the whole persisted table.
func (s *Service) GetRoutes(ctx context.Context) ([]Route, error) {
	return s.store.List(ctx)
}

// UpdateRoute replaces the protection settings of an entry and refreshes the
// snapshot. The template and method are fixed at creation.
func (s *Service) UpdateRoute(ctx context.Context, id string, update Route) (*Route, error) {
	r, err := s.GetRoute(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, update); err != nil {
		return nil, err
	}
	r.Description = strings.TrimSpace(update.Description)
	r.AccessPermList = update.AccessPermList
	r.AccessRoleList = update.AccessRoleList
	r.IsCheckAuth = update.IsCheckAuth
	r.IsCheckBan = update.IsCheckBan
	if err := s.store.Update(ctx, r); err != nil {
		return nil, err
	}
	s.refresh(ctx)
	return r, nil
}

// DeleteRoute removes an entry and refreshes the snapshot.
func (s *Service) DeleteRoute(ctx context.Context, id string) error {
	if _, err := s.GetRoute(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

func (s *Service) checkRefs(ctx context.Context, route Route) error {
	for _, id := range route.AccessPermList {
		if _, err := s.rbac.GetPermission(ctx, id); err != nil {
			return err
		}
	}
	for _, id := range route.AccessRoleList {
		if _, err := s.rbac.GetRole(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// refresh rebuilds the registry snapshot. A rebuild failure keeps the
// previous good snapshot and is logged, not propagated: the mutation itself
// already succeeded.
func (s *Service) refresh(ctx context.Context) {
	if err := s.registry.Rebuild(ctx); err != nil && s.log != nil {
		s.log.Errorw("route registry rebuild failed", "error", err)
	}
}

func validateParams(params string) error {
	switch params {
	case "", ParamID, ParamLink, ParamSlug:
		return nil
	default:
		return fmt.Errorf("%w: params must be empty, %s, %s or %s",
			rbac.ErrInvalidInput, ParamID, ParamLink, ParamSlug)
	}
}
