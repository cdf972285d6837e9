package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidInput = errors.New("rbac: invalid input")
	// ErrInvalidID is raised before any storage round-trip when an identifier
	// does not have the 24-hex ObjectID shape.
	ErrInvalidID     = errors.New("rbac: invalid identifier")
	ErrNotFound      = errors.New("rbac: not found")
	ErrConflict      = errors.New("rbac: already exists")
	ErrProtectedRole = errors.New("rbac: role is protected")
)

// ValidateID rejects identifiers that are not well-formed ObjectID hex
// strings, so malformed ids fail fast instead of costing a storage lookup.
func ValidateID(id string) error {
	if _, err := primitive.ObjectIDFromHex(strings.TrimSpace(id)); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// CanonicalTitle normalizes a role or permission title for storage and
// comparison.
func CanonicalTitle(title string) string {
	return strings.ToUpper(strings.TrimSpace(title))
}

// Service implements the permission and role registries and resolves users'
// effective permission sets.
type Service struct {
	perms PermissionStore
	roles RoleStore
	users UserStore
}

func NewService(perms PermissionStore, roles RoleStore, users UserStore) (*Service, error) {
	if perms == nil || roles == nil || users == nil {
		return nil, errors.New("rbac: all stores are required")
	}
	return &Service{perms: perms, roles: roles, users: users}, nil
}

// --- Permission registry ---

func (s *Service) CreatePermission(ctx context.Context, title, description string) (*Permission, error) {
	title = CanonicalTitle(title)
	if title == "" {
		return nil, fmt.Errorf("%w: permission title is required", ErrInvalidInput)
	}
	if existing, err := s.perms.FindByTitle(ctx, title); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: permission %s", ErrConflict, title)
	}
	p := &Permission{Title: title, Description: strings.TrimSpace(description)}
	if err := s.perms.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetPermission(ctx context.Context, id string) (*Permission, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	p, err := s.perms.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: permission %s", ErrNotFound, id)
	}
	return p, nil
}

func (s *Service) GetAllPermissions(ctx context.Context) ([]Permission, error) {
	return s.perms.List(ctx)
}

func (s *Service) UpdatePermission(ctx context.Context, id, title, description string) (*Permission, error) {
	p, err := s.GetPermission(ctx, id)
	if err != nil {
		return nil, err
	}
	title = CanonicalTitle(title)
	if title == "" {
		return nil, fmt.Errorf("%w: permission title is required", ErrInvalidInput)
	}
	if title != p.Title {
		if existing, err := s.perms.FindByTitle(ctx, title); err != nil {
			return nil, err
		} else if existing != nil {
			return nil, fmt.Errorf("%w: permission %s", ErrConflict, title)
		}
	}
	p.Title = title
	p.Description = strings.TrimSpace(description)
	if err := s.perms.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) DeletePermission(ctx context.Context, id string) error {
	if _, err := s.GetPermission(ctx, id); err != nil {
		return err
	}
	return s.perms.Delete(ctx, id)
}

// --- Role registry ---

func (s *Service) CreateRole(ctx context.Context, title, description string, permissionIDs []string, parentRoleID string) (*Role, error) {
	title = CanonicalTitle(title)
	if title == "" {
		return nil, fmt.Errorf("%w: role title is required", ErrInvalidInput)
	}
	if existing, err := s.roles.FindByTitle(ctx, title); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: role %s", ErrConflict, title)
	}
	permissionIDs, err := s.checkPermissionRefs(ctx, permissionIDs)
	if err != nil {
		return nil, err
	}
	parentRoleID = strings.TrimSpace(parentRoleID)
	if parentRoleID != "" {
		if _, err := s.GetRole(ctx, parentRoleID); err != nil {
			return nil, err
		}
	}
	r := &Role{
		Title:       title,
		Permissions: permissionIDs,
		ParentRole:  parentRoleID,
		Description: strings.TrimSpace(description),
	}
	if err := s.roles.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) GetRole(ctx context.Context, id string) (*Role, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	r, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: role %s", ErrNotFound, id)
	}
	return r, nil
}

// GetRoleView returns the role with its permissions joined.
func (s *Service) GetRoleView(ctx context.Context, id string) (*RoleView, error) {
	r, err := s.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	perms, err := s.perms.FindByIDs(ctx, r.Permissions)
	if err != nil {
		return nil, err
	}
	return &RoleView{Role: *r, PermissionList: perms}, nil
}

// GetAllRoles returns every role with permissions populated.
func (s *Service) GetAllRoles(ctx context.Context) ([]RoleView, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]RoleView, 0, len(roles))
	for _, r := range roles {
		perms, err := s.perms.FindByIDs(ctx, r.Permissions)
		if err != nil {
			return nil, err
		}
		views = append(views, RoleView{Role: r, PermissionList: perms})
	}
	return views, nil
}

// UpdateRole rejects mutations of the seeded built-in roles. One canonical
// protected set applies to update and delete alike.
func (s *Service) UpdateRole(ctx context.Context, id, title, description string, permissionIDs []string, parentRoleID string) (*Role, error) {
	r, err := s.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	if IsProtectedRole(r.Title) {
		return nil, fmt.Errorf("%w: %s cannot be updated", ErrProtectedRole, r.Title)
	}
	title = CanonicalTitle(title)
	if title == "" {
		return nil, fmt.Errorf("%w: role title is required", ErrInvalidInput)
	}
	if title != r.Title {
		if existing, err := s.roles.FindByTitle(ctx, title); err != nil {
			return nil, err
		} else if existing != nil {
			return nil, fmt.Errorf("%w: role %s", ErrConflict, title)
		}
	}
	permissionIDs, err = s.checkPermissionRefs(ctx, permissionIDs)
	if err != nil {
		return nil, err
	}
	parentRoleID = strings.TrimSpace(parentRoleID)
	if parentRoleID != "" {
		if parentRoleID == r.ID {
			return nil, fmt.Errorf("%w: role cannot be its own parent", ErrInvalidInput)
		}
		if _, err := s.GetRole(ctx, parentRoleID); err != nil {
			return nil, err
		}
	}
	r.Title = title
	r.Description = strings.TrimSpace(description)
	r.Permissions = permissionIDs
	r.ParentRole = parentRoleID
	if err := s.roles.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) DeleteRole(ctx context.Context, id string) error {
	r, err := s.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if IsProtectedRole(r.Title) {
		return fmt.Errorf("%w: %s cannot be deleted", ErrProtectedRole, r.Title)
	}
	return s.roles.Delete(ctx, id)
}

// checkPermissionRefs validates and dedupes permission references.
func (s *Service) checkPermissionRefs(ctx context.Context, ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, ok := seen[id]; ok {
			continue
		}
		if _, err := s.GetPermission(ctx, id); err != nil {
			return nil, err
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// --- Resolution ---

// RoleTitles maps a user's role references to role titles. Dangling
// references (role deleted after assignment) are skipped rather than failing
// the whole resolution.
func (s *Service) RoleTitles(ctx context.Context, user *User) ([]string, error) {
	roles, err := s.roles.FindByIDs(ctx, user.Roles)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(roles))
	for _, r := range roles {
		titles = append(titles, r.Title)
	}
	return titles, nil
}

// EffectivePermissions computes the union of permission titles across all of
// the user's roles, walking parentRole chains transitively. A visited set
// guards against cycles in the role forest.
func (s *Service) EffectivePermissions(ctx context.Context, user *User) ([]string, error) {
	visited := make(map[string]struct{})
	permIDs := make(map[string]struct{})

	queue := make([]string, 0, len(user.Roles))
	for _, id := range user.Roles {
		queue = append(queue, id)
	}
	for len(queue) > 0 {
		roleID := queue[0]
		queue = queue[1:]
		roleID = strings.TrimSpace(roleID)
		if roleID == "" {
			continue
		}
		if _, ok := visited[roleID]; ok {
			continue
		}
		visited[roleID] = struct{}{}

		role, err := s.roles.FindByID(ctx, roleID)
		if err != nil {
			return nil, err
		}
		if role == nil {
			// dangling reference
			continue
		}
		for _, pid := range role.Permissions {
			permIDs[pid] = struct{}{}
		}
		if role.ParentRole != "" {
			queue = append(queue, role.ParentRole)
		}
	}

	ids := make([]string, 0, len(permIDs))
	for id := range permIDs {
		ids = append(ids, id)
	}
	perms, err := s.perms.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(perms))
	for _, p := range perms {
		titles = append(titles, p.Title)
	}
	return titles, nil
}

// PermissionTitles resolves permission references to their titles.
func (s *Service) PermissionTitles(ctx context.Context, ids []string) ([]string, error) {
	perms, err := s.perms.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(perms))
	for _, p := range perms {
		titles = append(titles, p.Title)
	}
	return titles, nil
}

// RoleTitlesByIDs resolves role references to their titles.
func (s *Service) RoleTitlesByIDs(ctx context.Context, ids []string) ([]string, error) {
	roles, err := s.roles.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(roles))
	for _, r := range roles {
		titles = append(titles, r.Title)
	}
	return titles, nil
}

// HasRoleTitle reports whether the user holds a role with the given title.
func (s *Service) HasRoleTitle(ctx context.Context, user *User, title string) (bool, error) {
	titles, err := s.RoleTitles(ctx, user)
	if err != nil {
		return false, err
	}
	title = CanonicalTitle(title)
	for _, t := range titles {
		if t == title {
			return true, nil
		}
	}
	return false, nil
}

// --- User administration ---

// ListUsers returns every user in the identity store.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.users.List(ctx)
}

// GetUser returns one user by id.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	return user, nil
}

// AssignRole adds a role to a user. Assigning an already-held role is a
// no-op (set semantics).
func (s *Service) AssignRole(ctx context.Context, userID, roleID string) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.GetRole(ctx, roleID); err != nil {
		return err
	}
	return s.users.AssignRole(ctx, userID, roleID)
}

// RemoveRole removes a role from a user. Removing an unheld role is a no-op.
func (s *Service) RemoveRole(ctx context.Context, userID, roleID string) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	if err := ValidateID(roleID); err != nil {
		return err
	}
	return s.users.RemoveRole(ctx, userID, roleID)
}

// PermissionIDsByTitles maps canonical permission titles to their ids.
// Unknown titles fail loudly: a misspelled reference in a route default
// would otherwise silently weaken the policy.
func (s *Service) PermissionIDsByTitles(ctx context.Context, titles []string) ([]string, error) {
	ids := make([]string, 0, len(titles))
	for _, title := range titles {
		p, err := s.perms.FindByTitle(ctx, CanonicalTitle(title))
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: permission %s", ErrNotFound, title)
		}
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// RoleIDsByTitles maps canonical role titles to their ids.
func (s *Service) RoleIDsByTitles(ctx context.Context, titles []string) ([]string, error) {
	ids := make([]string, 0, len(titles))
	for _, title := range titles {
		r, err := s.roles.FindByTitle(ctx, CanonicalTitle(title))
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, fmt.Errorf("%w: role %s", ErrNotFound, title)
		}
		ids = append(ids, r.ID)
	}
	return ids, nil
}
