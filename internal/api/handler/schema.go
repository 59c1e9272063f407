package handler

import "time"

// ErrorResponse is the error envelope returned on every 4xx/5xx response.
type ErrorResponse struct {
	Code      string `json:"code"      example:"ERR-201"`
	Message   string `json:"message"   example:"product not found"`
	Timestamp string `json:"timestamp" example:"2025-01-01T00:00:00Z"`
}

// --- Request / Response types ---

// credentialsRequest is shared by register and login. Passwords are capped
// at 72 bytes, the bcrypt input limit.
type credentialsRequest struct {
	Username string `json:"username" validate:"required,max=64"       example:"alice"`
	Password string `json:"password" validate:"required,bytesmax=72" example:"s3cret"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type productRequest struct {
	Name  string  `json:"name"  validate:"required,max=255"                   example:"Widget"`
	Price float64 `json:"price" validate:"required,gt=0,lte=1000000000000000" example:"9.99"`
}

type productResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type productPageResponse struct {
	Items       []productResponse `json:"items"`
	CurrentPage int               `json:"currentPage"`
	TotalItems  int64             `json:"totalItems"`
	TotalPages  int               `json:"totalPages"`
}

type principalResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}
