package ports

import (
	"context"

	"github.com/noosyn/product-api/internal/core/domain"
)

// AuthService covers registration, login and per-request principal resolution.
type AuthService interface {
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
	// ResolvePrincipal loads the current role for a token subject. It fails
	// with domain.ErrUnknownPrincipal when the user no longer exists.
	ResolvePrincipal(ctx context.Context, username string) (domain.Principal, error)
	EnsureAdmin(ctx context.Context, username, password string) error
}

// TokenCodec issues and verifies bearer tokens.
type TokenCodec interface {
	Issue(username string, role domain.Role) (string, error)
	VerifySubject(token string) (string, error)
	IsValid(token, expectedUsername string) bool
}

// PasswordHasher is a one-way adaptive password hash.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Matches(plaintext, hash string) bool
}

// PrincipalCache is a short-lived lookaside cache of username -> role.
type PrincipalCache interface {
	Get(ctx context.Context, username string) (domain.Role, bool, error)
	Set(ctx context.Context, username string, role domain.Role) error
}
