package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/plumeblog/plume/internal/ids"
	"github.com/plumeblog/plume/internal/mail"
	"github.com/plumeblog/plume/internal/rbac"
)

// Service implements the account lifecycle (register, activate, login,
// refresh, logout) and builds verified principals for the guards.
type Service struct {
	users    rbac.UserStore
	resolver *rbac.Service
	tokens   *TokenService
	refresh  RefreshTokenStore
	mailer   mail.Mailer
	apiURL   string
}

func NewService(users rbac.UserStore, resolver *rbac.Service, tokens *TokenService, refresh RefreshTokenStore, mailer mail.Mailer, apiURL string) (*Service, error) {
	if users == nil || resolver == nil || tokens == nil || refresh == nil {
		return nil, errors.New("auth: users, resolver, tokens and refresh store are required")
	}
	return &Service{
		users:    users,
		resolver: resolver,
		tokens:   tokens,
		refresh:  refresh,
		mailer:   mailer,
		apiURL:   strings.TrimRight(apiURL, "/"),
	}, nil
}

// Session is the result of register, login and refresh: the user plus a
// fresh token pair.
type Session struct {
	User         *rbac.User `json:"user"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"-"`
}

// Register creates an account with the default USER role and sends the
// activation link. A fresh session is returned immediately; activation gates
// nothing in the authorization layer, only the activation state itself.
func (s *Service) Register(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if len(password) < 3 {
		return nil, fmt.Errorf("%w: password is too short", ErrInvalidInput)
	}
	if existing, err := s.users.FindByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: user %s", ErrConflict, email)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &rbac.User{
		Email:          email,
		PasswordHash:   hash,
		ActivationLink: ids.NewActivationLink(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.assignDefaultRole(ctx, user); err != nil {
		return nil, err
	}

	if s.mailer != nil {
		link := fmt.Sprintf("%s/api/user/activate/%s", s.apiURL, user.ActivationLink)
		if err := s.mailer.SendActivationMail(ctx, email, link); err != nil {
			return nil, fmt.Errorf("send activation mail: %w", err)
		}
	}
	return s.openSession(ctx, user)
}

// Activate flips the activation state for the link's owner.
func (s *Service) Activate(ctx context.Context, activationLink string) (*rbac.User, error) {
	activationLink = strings.TrimSpace(activationLink)
	if activationLink == "" {
		return nil, fmt.Errorf("%w: activation link is required", ErrInvalidInput)
	}
	user, err := s.users.FindByActivationLink(ctx, activationLink)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: unknown activation link", ErrNotFound)
	}
	if err := s.users.Activate(ctx, user.ID); err != nil {
		return nil, err
	}
	user.IsActivated = true
	return user, nil
}

// Login verifies credentials and opens a new session. The stored refresh
// token is replaced, which invalidates the previous session's refresh token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: unknown user or wrong password", ErrUnauthorized)
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, fmt.Errorf("%w: unknown user or wrong password", ErrUnauthorized)
	}
	return s.openSession(ctx, user)
}

// Logout revokes the presented refresh token. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}
	return s.refresh.DeleteByToken(ctx, refreshToken)
}

// Refresh validates the presented refresh token against both its signature
// and the store (a superseded token verifies but is no longer live), then
// mints a new pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, "invalid refresh token")
	}
	record, err := s.refresh.FindByToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: refresh token revoked", ErrUnauthorized)
	}
	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
	}
	return s.openSession(ctx, user)
}

// Principal resolves a verified access token's subject into a typed
// principal with role titles and effective permissions. Any resolution
// failure yields ErrUnauthorized: the guard layer fails closed.
func (s *Service) Principal(ctx context.Context, claims *Claims) (Principal, error) {
	if claims == nil || strings.TrimSpace(claims.Subject) == "" {
		return Principal{}, ErrUnauthorized
	}
	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil || user == nil {
		return Principal{}, ErrUnauthorized
	}
	roles, err := s.resolver.RoleTitles(ctx, user)
	if err != nil {
		return Principal{}, ErrUnauthorized
	}
	perms, err := s.resolver.EffectivePermissions(ctx, user)
	if err != nil {
		return Principal{}, ErrUnauthorized
	}
	return NewPrincipal(user.ID, user.Email, roles, perms), nil
}

// Tokens exposes the token service for cookie lifetime wiring.
func (s *Service) Tokens() *TokenService {
	return s.tokens
}

func (s *Service) openSession(ctx context.Context, user *rbac.User) (*Session, error) {
	pair, err := s.tokens.IssuePair(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	if err := s.refresh.Upsert(ctx, TokenRecord{
		UserID:       user.ID,
		RefreshToken: pair.RefreshToken,
	}); err != nil {
		return nil, err
	}
	return &Session{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (s *Service) assignDefaultRole(ctx context.Context, user *rbac.User) error {
	views, err := s.resolver.GetAllRoles(ctx)
	if err != nil {
		return err
	}
	for _, v := range views {
		if v.Title == rbac.RoleUser {
			user.Roles = append(user.Roles, v.ID)
			return s.users.AssignRole(ctx, user.ID, v.ID)
		}
	}
	// seed has not run; the account simply starts without roles
	return nil
}
