package rbac

import "context"

// PermissionStore manages the permission catalog. Implementations must
// enforce title uniqueness with a storage-level constraint; the service-level
// duplicate check is only a fast path and races under concurrency.
type PermissionStore interface {
	Create(ctx context.Context, p *Permission) error
	FindByID(ctx context.Context, id string) (*Permission, error)
	FindByTitle(ctx context.Context, title string) (*Permission, error)
	FindByIDs(ctx context.Context, ids []string) ([]Permission, error)
	List(ctx context.Context) ([]Permission, error)
	Update(ctx context.Context, p *Permission) error
	Delete(ctx context.Context, id string) error
}

// RoleStore manages roles.
type RoleStore interface {
	Create(ctx context.Context, r *Role) error
	FindByID(ctx context.Context, id string) (*Role, error)
	FindByTitle(ctx context.Context, title string) (*Role, error)
	FindByIDs(ctx context.Context, ids []string) ([]Role, error)
	List(ctx context.Context) ([]Role, error)
	Update(ctx context.Context, r *Role) error
	Delete(ctx context.Context, id string) error
}

// UserStore supplies user→role and user→ban relationships.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByActivationLink(ctx context.Context, link string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Activate(ctx context.Context, id string) error
	// AssignRole has set semantics: assigning a role the user already holds
	// is a no-op, not a duplicate entry.
	AssignRole(ctx context.Context, userID, roleID string) error
	RemoveRole(ctx context.Context, userID, roleID string) error
	AddBan(ctx context.Context, userID, banID string) error
}
