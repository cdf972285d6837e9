package auth

import "errors"

var (
	// ErrInvalidToken indicates the token failed verification: bad signature,
	// expired, malformed, or the wrong token type for the call.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnauthorized covers missing or unusable credentials, including
	// storage failures during identity resolution (guards fail closed).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden means the identity is valid but lacks the required role or
	// permission, or carries an active ban.
	ErrForbidden = errors.New("forbidden")

	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("resource conflict")
)
