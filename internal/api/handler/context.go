package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tablebook/reservation-client/internal/core/domain"
)

// SessionContextKey is where the guard middleware stores the admitted
// session snapshot.
const SessionContextKey = "session"

// ctxIdentity returns the identity admitted by the guard. A missing snapshot
// means the route was mounted without a guard.
func ctxIdentity(c echo.Context) (*domain.Identity, error) {
	state, ok := c.Get(SessionContextKey).(domain.SessionState)
	if !ok || state.User == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}
	return state.User, nil
}
