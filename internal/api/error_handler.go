package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tablebook/reservation-client/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler renders every error as {"error": "<message>"}. Known
// domain and backend errors get deterministic codes; anything else is logged
// and reported as 500 without details.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrCartItemNotFound):
		return http.StatusNotFound, "cart item not found"
	case errors.Is(err, domain.ErrInvalidCartItem):
		return http.StatusBadRequest, "invalid cart item"
	case errors.Is(err, domain.ErrMissingCredential), errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, "not authenticated"
	}

	var ae *domain.AuthError
	if errors.As(err, &ae) {
		return authStatus(ae.Kind), ae.Message
	}

	// Backend answers pass through; an unreachable backend is a bad gateway.
	var api *domain.APIError
	if errors.As(err, &api) {
		if api.Status == 0 || api.Status >= 500 {
			log.Warn().Err(err).Str("path", c.Path()).Msg("backend failure")
			return http.StatusBadGateway, domain.UserMessage(api)
		}
		return api.Status, domain.UserMessage(api)
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

func authStatus(kind domain.AuthErrorKind) int {
	switch kind {
	case domain.KindInvalidCredentials:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindValidation, domain.KindInvalidOtp:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
