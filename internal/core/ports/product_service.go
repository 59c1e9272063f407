package ports

import (
	"context"

	"github.com/noosyn/product-api/internal/core/domain"
)

// ProductInput carries the writable fields of a product.
type ProductInput struct {
	Name  string
	Price float64
}

// ProductService defines use-case operations for products.
type ProductService interface {
	Create(ctx context.Context, in ProductInput) (*domain.Product, error)
	List(ctx context.Context, page, size int) (*domain.ProductPage, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, id string, in ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}
