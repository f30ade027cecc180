package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tablebook/reservation-client/internal/pkg/validation"
)

// echoValidator lets handlers call c.Validate(req).
type echoValidator struct {
	v *validation.Validator
}

// NewValidator returns an echo.Validator backed by go-playground/validator.
func NewValidator() echo.Validator {
	return &echoValidator{v: validation.New()}
}

// Validate rejects the payload with 400 and the joined field messages.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// bindAndValidate decodes the request body into req and validates it.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(req)
}
