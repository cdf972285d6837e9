// Package memory holds an in-process implementation of every store
// interface the services consume. It backs the test suites and
// --development runs without a MongoDB instance; semantics mirror the mongo
// package, including set behavior for role assignment and nil results for
// missing documents.
package memory

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/plumeblog/plume/internal/auth"
	"github.com/plumeblog/plume/internal/ban"
	"github.com/plumeblog/plume/internal/rbac"
	"github.com/plumeblog/plume/internal/routereg"
)

// Store is the shared backing state. Sub-stores share one mutex; contention
// is irrelevant at memory-store scale.
type Store struct {
	mu sync.RWMutex

	permissions map[string]rbac.Permission
	roles       map[string]rbac.Role
	users       map[string]rbac.User
	bans        map[string]ban.Ban
	routes      map[string]routereg.Route
	tokens      map[string]auth.TokenRecord // keyed by user id
	slugs       map[string]string           // entity id -> slug
}

func New() *Store {
	return &Store{
		permissions: map[string]rbac.Permission{},
		roles:       map[string]rbac.Role{},
		users:       map[string]rbac.User{},
		bans:        map[string]ban.Ban{},
		routes:      map[string]routereg.Route{},
		tokens:      map[string]auth.TokenRecord{},
		slugs:       map[string]string{},
	}
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

// --- rbac.PermissionStore ---

type PermissionStore struct{ s *Store }

func (s *Store) Permissions() *PermissionStore { return &PermissionStore{s} }

func (p *PermissionStore) Create(_ context.Context, perm *rbac.Permission) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if perm.ID == "" {
		perm.ID = newID()
	}
	now := time.Now().UTC()
	perm.CreatedAt, perm.UpdatedAt = now, now
	p.s.permissions[perm.ID] = *perm
	return nil
}

func (p *PermissionStore) FindByID(_ context.Context, id string) (*rbac.Permission, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	if perm, ok := p.s.permissions[id]; ok {
		return &perm, nil
	}
	return nil, nil
}

func (p *PermissionStore) FindByTitle(_ context.Context, title string) (*rbac.Permission, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	for _, perm := range p.s.permissions {
		if perm.Title == title {
			found := perm
			return &found, nil
		}
	}
	return nil, nil
}

func (p *PermissionStore) FindByIDs(_ context.Context, ids []string) ([]rbac.Permission, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	out := make([]rbac.Permission, 0, len(ids))
	for _, id := range ids {
		if perm, ok := p.s.permissions[id]; ok {
			out = append(out, perm)
		}
	}
	return out, nil
}

func (p *PermissionStore) List(_ context.Context) ([]rbac.Permission, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	out := make([]rbac.Permission, 0, len(p.s.permissions))
	for _, perm := range p.s.permissions {
		out = append(out, perm)
	}
	return out, nil
}

func (p *PermissionStore) Update(_ context.Context, perm *rbac.Permission) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	perm.UpdatedAt = time.Now().UTC()
	p.s.permissions[perm.ID] = *perm
	return nil
}

func (p *PermissionStore) Delete(_ context.Context, id string) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	delete(p.s.permissions, id)
	return nil
}

// --- rbac.RoleStore ---

type RoleStore struct{ s *Store }

func (s *Store) Roles() *RoleStore { return &RoleStore{s} }

func (r *RoleStore) Create(_ context.Context, role *rbac.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if role.ID == "" {
		role.ID = newID()
	}
	now := time.Now().UTC()
	role.CreatedAt, role.UpdatedAt = now, now
	r.s.roles[role.ID] = *role
	return nil
}

func (r *RoleStore) FindByID(_ context.Context, id string) (*rbac.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if role, ok := r.s.roles[id]; ok {
		return &role, nil
	}
	return nil, nil
}

func (r *RoleStore) FindByTitle(_ context.Context, title string) (*rbac.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, role := range r.s.roles {
		if role.Title == title {
			found := role
			return &found, nil
		}
	}
	return nil, nil
}

func (r *RoleStore) FindByIDs(_ context.Context, ids []string) ([]rbac.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]rbac.Role, 0, len(ids))
	for _, id := range ids {
		if role, ok := r.s.roles[id]; ok {
			out = append(out, role)
		}
	}
	return out, nil
}

func (r *RoleStore) List(_ context.Context) ([]rbac.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]rbac.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		out = append(out, role)
	}
	return out, nil
}

func (r *RoleStore) Update(_ context.Context, role *rbac.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	role.UpdatedAt = time.Now().UTC()
	r.s.roles[role.ID] = *role
	return nil
}

func (r *RoleStore) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.roles, id)
	return nil
}

// --- rbac.UserStore ---

type UserStore struct{ s *Store }

func (s *Store) Users() *UserStore { return &UserStore{s} }

func (u *UserStore) Create(_ context.Context, user *rbac.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if user.ID == "" {
		user.ID = newID()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	u.s.users[user.ID] = *user
	return nil
}

func (u *UserStore) FindByID(_ context.Context, id string) (*rbac.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	if user, ok := u.s.users[id]; ok {
		return &user, nil
	}
	return nil, nil
}

func (u *UserStore) FindByEmail(_ context.Context, email string) (*rbac.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	for _, user := range u.s.users {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, nil
}

func (u *UserStore) FindByActivationLink(_ context.Context, link string) (*rbac.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	for _, user := range u.s.users {
		if user.ActivationLink == link {
			found := user
			return &found, nil
		}
	}
	return nil, nil
}

func (u *UserStore) List(_ context.Context) ([]rbac.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	out := make([]rbac.User, 0, len(u.s.users))
	for _, user := range u.s.users {
		out = append(out, user)
	}
	return out, nil
}

func (u *UserStore) Activate(_ context.Context, id string) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil
	}
	user.IsActivated = true
	user.ActivatedAt = time.Now().UTC()
	u.s.users[id] = user
	return nil
}

func (u *UserStore) AssignRole(_ context.Context, userID, roleID string) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[userID]
	if !ok {
		return nil
	}
	for _, held := range user.Roles {
		if held == roleID {
			return nil
		}
	}
	user.Roles = append(user.Roles, roleID)
	u.s.users[userID] = user
	return nil
}

func (u *UserStore) RemoveRole(_ context.Context, userID, roleID string) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[userID]
	if !ok {
		return nil
	}
	kept := user.Roles[:0]
	for _, held := range user.Roles {
		if held != roleID {
			kept = append(kept, held)
		}
	}
	user.Roles = kept
	u.s.users[userID] = user
	return nil
}

func (u *UserStore) AddBan(_ context.Context, userID, banID string) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[userID]
	if !ok {
		return nil
	}
	user.BanList = append(user.BanList, banID)
	u.s.users[userID] = user
	return nil
}

// --- ban.Store ---

type BanStore struct{ s *Store }

func (s *Store) Bans() *BanStore { return &BanStore{s} }

func (b *BanStore) Create(_ context.Context, record *ban.Ban) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if record.ID == "" {
		record.ID = newID()
	}
	now := time.Now().UTC()
	record.CreatedAt, record.UpdatedAt = now, now
	b.s.bans[record.ID] = *record
	return nil
}

func (b *BanStore) FindByID(_ context.Context, id string) (*ban.Ban, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	if record, ok := b.s.bans[id]; ok {
		return &record, nil
	}
	return nil, nil
}

func (b *BanStore) ListForUser(_ context.Context, userID string) ([]ban.Ban, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	out := make([]ban.Ban, 0)
	for _, record := range b.s.bans {
		if record.BannedUserID == userID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (b *BanStore) Update(_ context.Context, record *ban.Ban) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	record.UpdatedAt = time.Now().UTC()
	b.s.bans[record.ID] = *record
	return nil
}

// --- routereg.Store ---

type RouteStore struct{ s *Store }

func (s *Store) Routes() *RouteStore { return &RouteStore{s} }

func (r *RouteStore) Create(_ context.Context, route *routereg.Route) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if route.ID == "" {
		route.ID = newID()
	}
	now := time.Now().UTC()
	route.CreatedAt, route.UpdatedAt = now, now
	r.s.routes[route.ID] = *route
	return nil
}

func (r *RouteStore) FindByID(_ context.Context, id string) (*routereg.Route, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if route, ok := r.s.routes[id]; ok {
		return &route, nil
	}
	return nil, nil
}

func (r *RouteStore) Find(_ context.Context, routeURL, method string) (*routereg.Route, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, route := range r.s.routes {
		if route.RouteURL == routeURL && route.Method == method {
			found := route
			return &found, nil
		}
	}
	return nil, nil
}

func (r *RouteStore) List(_ context.Context) ([]routereg.Route, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]routereg.Route, 0, len(r.s.routes))
	for _, route := range r.s.routes {
		out = append(out, route)
	}
	return out, nil
}

func (r *RouteStore) Update(_ context.Context, route *routereg.Route) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	route.UpdatedAt = time.Now().UTC()
	r.s.routes[route.ID] = *route
	return nil
}

func (r *RouteStore) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.routes, id)
	return nil
}

// --- auth.RefreshTokenStore ---

type TokenStore struct{ s *Store }

func (s *Store) Tokens() *TokenStore { return &TokenStore{s} }

func (t *TokenStore) Upsert(_ context.Context, record auth.TokenRecord) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := t.s.tokens[record.UserID]; ok {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	} else {
		record.ID = newID()
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	t.s.tokens[record.UserID] = record
	return nil
}

func (t *TokenStore) FindByToken(_ context.Context, token string) (*auth.TokenRecord, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	for _, record := range t.s.tokens {
		if record.RefreshToken == token {
			found := record
			return &found, nil
		}
	}
	return nil, nil
}

func (t *TokenStore) DeleteByToken(_ context.Context, token string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for userID, record := range t.s.tokens {
		if record.RefreshToken == token {
			delete(t.s.tokens, userID)
			return nil
		}
	}
	return nil
}

// --- routereg.SlugSource ---

type SlugSource struct{ s *Store }

func (s *Store) SlugSource() *SlugSource { return &SlugSource{s} }

// SetSlug registers or replaces a slug for an entity id.
func (s *Store) SetSlug(id, slug string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slugs[id] = slug
}

func (ss *SlugSource) Slugs(_ context.Context) (map[string]string, error) {
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()
	out := make(map[string]string, len(ss.s.slugs))
	for id, slug := range ss.s.slugs {
		out[id] = slug
	}
	return out, nil
}
