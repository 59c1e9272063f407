package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/noosyn/product-api/internal/api/metrics"
	"github.com/noosyn/product-api/internal/core/domain"
	"github.com/noosyn/product-api/internal/core/ports"
)

// PrincipalResolver loads the current identity of a token subject.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, username string) (domain.Principal, error)
}

// Authenticate attaches the principal named by a valid bearer token to the
// request. Requests without a usable token continue unauthenticated and are
// left to the access policy. A token whose subject no longer exists fails the
// request with domain.ErrUnknownPrincipal.
func Authenticate(tokens ports.TokenCodec, resolver PrincipalResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := PrincipalFrom(c.Request().Context()); ok {
				return next(c)
			}

			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return next(c)
			}

			username, err := tokens.VerifySubject(token)
			if err != nil {
				metrics.AuthenticationFailuresTotal.WithLabelValues("invalid_token").Inc()
				return next(c)
			}

			principal, err := resolver.ResolvePrincipal(c.Request().Context(), username)
			if err != nil {
				if errors.Is(err, domain.ErrUnknownPrincipal) {
					metrics.AuthenticationFailuresTotal.WithLabelValues("unknown_principal").Inc()
					return err
				}
				return fmt.Errorf("resolve principal: %w", err)
			}

			if !tokens.IsValid(token, principal.Username) {
				metrics.AuthenticationFailuresTotal.WithLabelValues("invalid_token").Inc()
				return next(c)
			}

			attachPrincipal(c, principal)
			return next(c)
		}
	}
}

// bearerToken extracts the credential from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
