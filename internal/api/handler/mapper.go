package handler

import "github.com/noosyn/product-api/internal/core/domain"

func toProductResponse(p *domain.Product) productResponse {
	return productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toProductPageResponse(page *domain.ProductPage) productPageResponse {
	items := make([]productResponse, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, toProductResponse(p))
	}
	return productPageResponse{
		Items:       items,
		CurrentPage: page.Page,
		TotalItems:  page.TotalItems,
		TotalPages:  page.TotalPages,
	}
}
