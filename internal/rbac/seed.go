package rbac

import (
	"context"
	"errors"
	"fmt"
)

// Permission titles known to the platform. Handlers reference these instead
// of string literals; the catalog is seeded at startup.
const (
	PermCanAll = "CAN-ALL"

	PermAdminPanel      = "ADMIN-PANEL"
	PermProfilePanel    = "PROFILE-PANEL"
	PermUserPanel       = "USER-PANEL"
	PermGuestPanel      = "GUEST-PANEL"
	PermSuperAdminPanel = "SUPER-ADMIN-PANEL"

	PermPostRead   = "POST-READ"
	PermPostCreate = "POST-CREATE"
	PermPostUpdate = "POST-UPDATE"
	PermPostDelete = "POST-DELETE"

	PermRoleRead   = "ROLE-READ"
	PermRoleCreate = "ROLE-CREATE"
	PermRoleUpdate = "ROLE-UPDATE"
	PermRoleDelete = "ROLE-DELETE"

	PermUserRead   = "USER-READ"
	PermUserCreate = "USER-CREATE"
	PermUserUpdate = "USER-UPDATE"
	PermUserDelete = "USER-DELETE"
)

var seedPermissions = []Permission{
	{Title: PermCanAll, Description: "Unrestricted access"},
	{Title: PermAdminPanel, Description: "Admin panel access"},
	{Title: PermProfilePanel, Description: "Profile panel access"},
	{Title: PermUserPanel, Description: "User panel access"},
	{Title: PermGuestPanel, Description: "Guest panel access"},
	{Title: PermSuperAdminPanel, Description: "Super admin panel access"},
	{Title: PermPostRead, Description: "Read posts"},
	{Title: PermPostCreate, Description: "Create posts"},
	{Title: PermPostUpdate, Description: "Update posts"},
	{Title: PermPostDelete, Description: "Delete posts"},
	{Title: PermRoleRead, Description: "Read roles"},
	{Title: PermRoleCreate, Description: "Create roles"},
	{Title: PermRoleUpdate, Description: "Update roles"},
	{Title: PermRoleDelete, Description: "Delete roles"},
	{Title: PermUserRead, Description: "Read users"},
	{Title: PermUserCreate, Description: "Create users"},
	{Title: PermUserUpdate, Description: "Update users"},
	{Title: PermUserDelete, Description: "Delete users"},
}

// seedRoles describes the built-in role forest. A role inherits its parent's
// permissions transitively, so each senior role extends the junior one.
// Parents are resolved by title after all roles exist, so order does not
// matter.
var seedRoles = []struct {
	title       string
	parent      string
	permissions []string
}{
	{title: RoleGuest, permissions: []string{PermGuestPanel, PermPostRead}},
	{title: RoleUser, permissions: []string{PermProfilePanel, PermPostRead}},
	{title: RoleManager, parent: RoleUser, permissions: []string{
		PermUserPanel, PermPostCreate, PermPostUpdate, PermUserRead,
	}},
	{title: RoleAdmin, parent: RoleManager, permissions: []string{
		PermAdminPanel,
		PermPostDelete,
		PermRoleRead, PermRoleCreate, PermRoleUpdate, PermRoleDelete,
		PermUserCreate, PermUserUpdate, PermUserDelete,
	}},
	{title: RoleSuperAdmin, parent: RoleAdmin, permissions: []string{PermCanAll, PermSuperAdminPanel}},
}

// Seed ensures the built-in permission catalog and role forest exist.
// Safe to run on every boot.
func (s *Service) Seed(ctx context.Context) error {
	permIDs := make(map[string]string, len(seedPermissions))
	for _, p := range seedPermissions {
		created, err := s.CreatePermission(ctx, p.Title, p.Description)
		if errors.Is(err, ErrConflict) {
			existing, ferr := s.perms.FindByTitle(ctx, p.Title)
			if ferr != nil {
				return ferr
			}
			permIDs[p.Title] = existing.ID
			continue
		}
		if err != nil {
			return fmt.Errorf("seed permission %s: %w", p.Title, err)
		}
		permIDs[p.Title] = created.ID
	}

	roleIDs := make(map[string]string, len(seedRoles))
	for _, r := range seedRoles {
		ids := make([]string, 0, len(r.permissions))
		for _, title := range r.permissions {
			ids = append(ids, permIDs[title])
		}
		created, err := s.CreateRole(ctx, r.title, "", ids, "")
		if errors.Is(err, ErrConflict) {
			existing, ferr := s.roles.FindByTitle(ctx, r.title)
			if ferr != nil {
				return ferr
			}
			roleIDs[r.title] = existing.ID
			continue
		}
		if err != nil {
			return fmt.Errorf("seed role %s: %w", r.title, err)
		}
		roleIDs[r.title] = created.ID
	}

	// Parent links are written directly through the store: the registry's
	// UpdateRole refuses to touch protected roles.
	for _, r := range seedRoles {
		if r.parent == "" {
			continue
		}
		role, err := s.roles.FindByID(ctx, roleIDs[r.title])
		if err != nil || role == nil {
			return fmt.Errorf("seed parent of %s: %w", r.title, err)
		}
		if role.ParentRole == roleIDs[r.parent] {
			continue
		}
		role.ParentRole = roleIDs[r.parent]
		if err := s.roles.Update(ctx, role); err != nil {
			return fmt.Errorf("seed parent of %s: %w", r.title, err)
		}
	}
	return nil
}
