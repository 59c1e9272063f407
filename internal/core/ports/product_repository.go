package ports

import (
	"context"

	"github.com/noosyn/product-api/internal/core/domain"
)

// ProductRepository defines persistence operations for products.
// Unknown or malformed IDs are reported as domain.ErrProductNotFound.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	// List returns up to limit products starting at offset, ordered by id,
	// together with the total number of products.
	List(ctx context.Context, offset, limit int) ([]*domain.Product, int64, error)
	Update(ctx context.Context, p *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}
