package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/noosyn/product-api/internal/api/handler"
	"github.com/noosyn/product-api/internal/core/domain"
)

// apiError pairs a domain error with its HTTP status and public code.
type apiError struct {
	target error
	status int
	code   string
}

// domainErrors is ordered; the first match wins.
var domainErrors = []apiError{
	{domain.ErrValidation, http.StatusBadRequest, "ERR-100"},
	{domain.ErrUsernameTaken, http.StatusConflict, "ERR-101"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "ERR-102"},
	{domain.ErrUnknownPrincipal, http.StatusUnauthorized, "ERR-103"},
	{domain.ErrInvalidToken, http.StatusUnauthorized, "ERR-104"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "ERR-105"},
	{domain.ErrForbidden, http.StatusForbidden, "ERR-106"},
	{domain.ErrProductNotFound, http.StatusNotFound, "ERR-201"},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and ERR-xxx code.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"code", "message", "timestamp"}.
//
// With legacyStatus every domain error is answered with 400, keeping its code.
func NewHTTPErrorHandler(log zerolog.Logger, legacyStatus bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, legacyStatus)
		if status >= http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, legacyStatus bool) (int, handler.ErrorResponse) {
	body := handler.ErrorResponse{Timestamp: time.Now().UTC().Format(time.RFC3339)}

	for _, de := range domainErrors {
		if errors.Is(err, de.target) {
			body.Code = de.code
			body.Message = publicMessage(err, de.target)
			if legacyStatus {
				return http.StatusBadRequest, body
			}
			return de.status, body
		}
	}

	// Echo's own errors (router 404/405, body too large, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		body.Code = fmt.Sprintf("ERR-%d", he.Code)
		body.Message = fmt.Sprintf("%v", he.Message)
		return he.Code, body
	}

	body.Code = "ERR-500"
	body.Message = "internal server error"
	return http.StatusInternalServerError, body
}

// publicMessage keeps validation details, which describe the caller's own
// input, and hides everything else behind the sentinel's text.
func publicMessage(err, target error) string {
	if target == domain.ErrValidation {
		return err.Error()
	}
	return target.Error()
}
