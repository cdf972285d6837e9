package auth

// Principal is a verified identity with resolved roles and effective
// permissions. It is produced exactly once per request by the authn
// middleware; downstream guards and handlers consume it from the request
// context and never re-decode raw tokens.
type Principal struct {
	UserID      string
	Email       string
	Roles       []string
	Permissions map[string]struct{}
}

// NewPrincipal constructs a principal with preloaded role titles and
// permission titles.
func NewPrincipal(userID, email string, roles []string, perms []string) Principal {
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return Principal{UserID: userID, Email: email, Roles: roles, Permissions: set}
}

// HasPermission reports whether the principal holds the permission title.
func (p Principal) HasPermission(title string) bool {
	_, ok := p.Permissions[title]
	return ok
}

// HasAnyPermission reports whether the effective permission set intersects
// the required list.
func (p Principal) HasAnyPermission(titles ...string) bool {
	for _, t := range titles {
		if p.HasPermission(t) {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the principal's role titles intersect the
// required list.
func (p Principal) HasAnyRole(titles ...string) bool {
	for _, required := range titles {
		for _, held := range p.Roles {
			if held == required {
				return true
			}
		}
	}
	return false
}
