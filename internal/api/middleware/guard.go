package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tablebook/reservation-client/internal/api/handler"
	"github.com/tablebook/reservation-client/internal/api/metrics"
	"github.com/tablebook/reservation-client/internal/core/domain"
	"github.com/tablebook/reservation-client/internal/core/service"
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

// StateSource yields the session snapshot a request is judged against.
type StateSource interface {
	State() domain.SessionState
}

// Requirements lists the roles a view accepts. Empty means any
// authenticated user.
type Requirements struct {
	Roles []domain.Role
}

type loadingResponse struct {
	Status string `json:"status"`
}

// Guard gates the next handler on the session: 202 while the session is
// still loading, redirect to /login when anonymous, redirect to / when the
// primary role is not accepted. Admitted requests carry the snapshot under
// handler.SessionContextKey.
func Guard(src StateSource, req Requirements) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			state := src.State()
			decision := service.DecideAccessFor(state, req.Roles)
			metrics.GuardDecisionsTotal.WithLabelValues(string(decision)).Inc()

			switch decision {
			case service.AccessWait:
				return c.JSON(http.StatusAccepted, loadingResponse{Status: "loading"})
			case service.AccessRedirectLogin:
				return c.Redirect(http.StatusFound, LoginPath)
			case service.AccessRedirectHome:
				return c.Redirect(http.StatusFound, HomePath)
			}

			c.Set(handler.SessionContextKey, state)
			return next(c)
		}
	}
}

// Protect wraps a single view with Guard.
func Protect(src StateSource, view echo.HandlerFunc, req Requirements) echo.HandlerFunc {
	return Guard(src, req)(view)
}
