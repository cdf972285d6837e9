package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "plume"

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour
)

// Claims carried by both access and refresh tokens. Deliberately minimal:
// the subject is the user id, everything else about the user is resolved
// fresh from storage when the principal is built.
type Claims struct {
	Email     string `json:"email,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenRecord is a persisted refresh token. At most one record exists per
// user: saving a new one replaces the previous, which invalidates older
// sessions on re-login.
type TokenRecord struct {
	ID           string
	UserID       string
	RefreshToken string
	IP           string
	Fingerprint  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshTokenStore persists refresh tokens for rotation and revocation.
type RefreshTokenStore interface {
	// Upsert stores the token for the user, replacing any existing record.
	Upsert(ctx context.Context, record TokenRecord) error
	// FindByToken returns nil when the token is unknown (revoked/superseded).
	FindByToken(ctx context.Context, token string) (*TokenRecord, error)
	// DeleteByToken removes the record matching the token value.
	DeleteByToken(ctx context.Context, token string) error
}

// TokenPair is one issued access+refresh pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService issues and verifies the session token pair. Access and
// refresh tokens are signed with distinct secrets and lifetimes.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// TokenOption configures TokenService behavior.
type TokenOption func(*TokenService)

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) TokenOption {
	return func(s *TokenService) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewTokenService constructs the service. Both secrets are required and must
// differ so a refresh token can never pass as an access token by signature.
func NewTokenService(accessSecret, refreshSecret string, opts ...TokenOption) (*TokenService, error) {
	accessSecret = strings.TrimSpace(accessSecret)
	refreshSecret = strings.TrimSpace(refreshSecret)
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("auth: access and refresh token secrets are required")
	}
	svc := &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     defaultAccessTTL,
		refreshTTL:    defaultRefreshTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RefreshTTL reports the configured refresh token lifetime (cookie max-age).
func (s *TokenService) RefreshTTL() time.Duration {
	return s.refreshTTL
}

// IssuePair signs a new access+refresh token pair for the user.
func (s *TokenService) IssuePair(userID, email string) (TokenPair, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return TokenPair{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	access, err := s.sign(userID, email, TokenTypeAccess, s.accessSecret, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(userID, email, TokenTypeRefresh, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess verifies an access token. Every failure mode collapses into
// ErrInvalidToken; callers treat it as "unauthenticated" and never see the
// underlying cause.
func (s *TokenService) VerifyAccess(token string) (*Claims, error) {
	return s.verify(token, TokenTypeAccess, s.accessSecret)
}

// VerifyRefresh verifies a refresh token.
func (s *TokenService) VerifyRefresh(token string) (*Claims, error) {
	return s.verify(token, TokenTypeRefresh, s.refreshSecret)
}

func (s *TokenService) sign(userID, email, tokenType string, secret []byte, ttl time.Duration) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) verify(token, tokenType string, secret []byte) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now().UTC() }))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != issuer || claims.TokenType != tokenType {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
