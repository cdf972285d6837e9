package rbac

import "time"

// Permission is an atomic named capability, e.g. "post-create". Titles are
// canonical: trimmed and upper-cased before persistence and comparison.
type Permission struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updatedAt"`
}

// Role is a named bundle of permission references. ParentRole forms a forest;
// effective-permission resolution walks it transitively (see
// Service.EffectivePermissions).
type Role struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	Title       string    `json:"title" bson:"title"`
	Permissions []string  `json:"permissions" bson:"permissions"`
	ParentRole  string    `json:"parent_role,omitempty" bson:"parentRole,omitempty"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updatedAt"`
}

// RoleView is a role with its permission references joined.
type RoleView struct {
	Role
	PermissionList []Permission `json:"permission_list"`
}

// User holds the identity fields the authorization layer needs. Content
// profile data lives elsewhere; this store is the user→roles and user→bans
// source for the guards.
type User struct {
	ID             string    `json:"id" bson:"_id,omitempty"`
	Email          string    `json:"email" bson:"email"`
	PasswordHash   string    `json:"-" bson:"password"`
	Roles          []string  `json:"roles" bson:"roles"`
	BanList        []string  `json:"ban_list,omitempty" bson:"banList,omitempty"`
	IsActivated    bool      `json:"is_activated" bson:"isActivated"`
	ActivationLink string    `json:"-" bson:"activationLink,omitempty"`
	ActivatedAt    time.Time `json:"activated_at,omitempty" bson:"activatedAt,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"createdAt"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updatedAt"`
}

// Built-in role titles seeded at startup. These are protected: they can be
// neither renamed nor deleted through the registry.
const (
	RoleSuperAdmin = "SUPER-ADMIN"
	RoleAdmin      = "ADMIN"
	RoleManager    = "MANAGER"
	RoleUser       = "USER"
	RoleGuest      = "GUEST"
)

var protectedRoles = map[string]struct{}{
	RoleSuperAdmin: {},
	RoleAdmin:      {},
	RoleManager:    {},
	RoleUser:       {},
	RoleGuest:      {},
}

// IsProtectedRole reports whether the title belongs to a seeded role.
func IsProtectedRole(title string) bool {
	_, ok := protectedRoles[title]
	return ok
}
