package domain

import "time"

// Product is the catalogue item managed through the /products API.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductPage is one page of a product listing. Page is 0-based.
type ProductPage struct {
	Items      []*Product
	Page       int
	Size       int
	TotalItems int64
	TotalPages int
}
