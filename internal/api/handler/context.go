package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/noosyn/product-api/internal/api/middleware"
	"github.com/noosyn/product-api/internal/core/domain"
)

// currentPrincipal returns the identity attached by the authenticator. The
// access policy normally guarantees one is present; its absence means the
// route was registered outside the policy and is reported as unauthenticated.
func currentPrincipal(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c.Request().Context())
	if !ok {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	return p, nil
}

// bindAndValidate decodes the request body into req and runs the registered
// validator. Both failures surface as domain.ErrValidation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: invalid payload", domain.ErrValidation)
	}
	return c.Validate(req)
}
