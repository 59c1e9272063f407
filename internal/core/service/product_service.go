package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noosyn/product-api/internal/core/domain"
	"github.com/noosyn/product-api/internal/core/ports"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100

	// maxPrice keeps prices inside the NUMERIC(19,2) column.
	maxPrice = 1e15
)

type ProductService struct {
	repo   ports.ProductRepository
	logger zerolog.Logger
}

func NewProductService(repo ports.ProductRepository, logger zerolog.Logger) *ProductService {
	return &ProductService{repo: repo, logger: logger}
}

// Create stores a new product.
func (s *ProductService) Create(ctx context.Context, in ports.ProductInput) (*domain.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.Product{
		Name:      strings.TrimSpace(in.Name),
		Price:     in.Price,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create product")
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.Info().Str("product_id", created.ID).Msg("product created")
	return created, nil
}

// List returns one page of products. page is 0-based; size is clamped to
// [1, maxPageSize] with defaultPageSize used when size is not positive.
func (s *ProductService) List(ctx context.Context, page, size int) (*domain.ProductPage, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	if page > math.MaxInt/size {
		return nil, fmt.Errorf("%w: page %d is out of range", domain.ErrValidation, page)
	}

	items, total, err := s.repo.List(ctx, page*size, size)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if items == nil {
		items = []*domain.Product{}
	}

	return &domain.ProductPage{
		Items:      items,
		Page:       page,
		Size:       size,
		TotalItems: total,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// Update replaces the name and price of an existing product.
func (s *ProductService) Update(ctx context.Context, id string, in ports.ProductInput) (*domain.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.Name = strings.TrimSpace(in.Name)
	existing.Price = in.Price
	existing.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.logger.Info().Str("product_id", id).Msg("product updated")
	return updated, nil
}

// Delete removes a product; deleting an unknown id is domain.ErrProductNotFound.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("product_id", id).Msg("product deleted")
	return nil
}

func validateProduct(in ports.ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if in.Price <= 0 || math.IsNaN(in.Price) {
		return fmt.Errorf("%w: price must be greater than 0", domain.ErrValidation)
	}
	if in.Price > maxPrice {
		return fmt.Errorf("%w: price must be at most %.0f", domain.ErrValidation, maxPrice)
	}
	if cents := in.Price * 100; math.Abs(cents-math.Round(cents)) > 1e-6 {
		return fmt.Errorf("%w: price must have at most 2 decimal places", domain.ErrValidation)
	}
	return nil
}
