package ports

import (
	"context"

	"github.com/noosyn/product-api/internal/core/domain"
)

// UserRepository is the credential store.
//
// Save must enforce username uniqueness atomically and report a violation as
// domain.ErrUsernameTaken.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
}
