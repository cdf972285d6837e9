package ban

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/plumeblog/plume/internal/rbac"
)

// Store persists ban records.
type Store interface {
	Create(ctx context.Context, b *Ban) error
	FindByID(ctx context.Context, id string) (*Ban, error)
	ListForUser(ctx context.Context, userID string) ([]Ban, error)
	Update(ctx context.Context, b *Ban) error
}

// IssueRequest carries the ban parameters supplied by the issuing authority.
type IssueRequest struct {
	BanType        string   `json:"ban_type"`
	BanPermissions []string `json:"ban_permissions"`
	BanDuration    string   `json:"ban_duration"`
	Description    string   `json:"description"`
}

// Service issues bans and evaluates ban activity for the guards.
type Service struct {
	store Store
	users rbac.UserStore
	rbac  *rbac.Service
	now   func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

func NewService(store Store, users rbac.UserStore, resolver *rbac.Service, opts ...Option) (*Service, error) {
	if store == nil || users == nil || resolver == nil {
		return nil, errors.New("ban: store, user store and rbac service are required")
	}
	s := &Service{store: store, users: users, rbac: resolver, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue creates a ban against the target user and appends it to the user's
// ban list. Targets holding SUPER-ADMIN are immune regardless of issuer.
func (s *Service) Issue(ctx context.Context, targetUserID, issuerUserID string, req IssueRequest) (*Ban, error) {
	if err := rbac.ValidateID(targetUserID); err != nil {
		return nil, err
	}
	if err := rbac.ValidateID(issuerUserID); err != nil {
		return nil, err
	}
	target, err := s.users.FindByID(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, fmt.Errorf("%w: user %s", rbac.ErrNotFound, targetUserID)
	}
	immune, err := s.rbac.HasRoleTitle(ctx, target, rbac.RoleSuperAdmin)
	if err != nil {
		return nil, err
	}
	if immune {
		return nil, ErrSuperAdminImmune
	}

	duration, err := ParseDuration(req.BanDuration)
	if err != nil {
		return nil, err
	}
	banType := strings.ToUpper(strings.TrimSpace(req.BanType))
	if banType == "" {
		banType = TypeBan
	}

	start := s.now().UTC()
	b := &Ban{
		BannedUserID:   targetUserID,
		BanIssuedUser:  issuerUserID,
		BanType:        banType,
		BanPermissions: req.BanPermissions,
		BanStart:       start,
		BanDuration:    req.BanDuration,
		BanExpire:      start.Add(duration),
		Description:    strings.TrimSpace(req.Description),
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}
	if err := s.users.AddBan(ctx, targetUserID, b.ID); err != nil {
		return nil, err
	}
	return b, nil
}

// Lift revokes a ban before its natural expiry.
func (s *Service) Lift(ctx context.Context, banID string) (*Ban, error) {
	if err := rbac.ValidateID(banID); err != nil {
		return nil, err
	}
	b, err := s.store.FindByID(ctx, banID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, banID)
	}
	if b.Lifted {
		return b, nil
	}
	b.Lifted = true
	if err := s.store.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListForUser returns every ban ever issued against the user.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Ban, error) {
	if err := rbac.ValidateID(userID); err != nil {
		return nil, err
	}
	return s.store.ListForUser(ctx, userID)
}

// IsBanned reports whether the user has any active ban right now.
func (s *Service) IsBanned(ctx context.Context, userID string) (bool, error) {
	bans, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return false, err
	}
	now := s.now().UTC()
	for _, b := range bans {
		if b.Active(now) {
			return true, nil
		}
	}
	return false, nil
}
