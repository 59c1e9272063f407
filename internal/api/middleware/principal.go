package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/noosyn/product-api/internal/core/domain"
)

type principalKey struct{}

// echoPrincipalKey mirrors the principal on the echo context for handlers that
// prefer c.Get.
const echoPrincipalKey = "principal"

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal attached to ctx, if any.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

func attachPrincipal(c echo.Context, p domain.Principal) {
	c.Set(echoPrincipalKey, p)
	c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), p)))
}
