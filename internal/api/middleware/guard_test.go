package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/tablebook/reservation-client/internal/api/handler"
	"github.com/tablebook/reservation-client/internal/core/domain"
)

type staticState domain.SessionState

func (s staticState) State() domain.SessionState { return domain.SessionState(s) }

func authenticated(role domain.Role) staticState {
	return staticState{
		User:  &domain.Identity{ID: "1", Name: "A", Role: role},
		Token: "tok",
		Phase: domain.PhaseAuthenticated,
	}
}

func TestGuard(t *testing.T) {
	tests := []struct {
		name         string
		state        staticState
		roles        []domain.Role
		wantCode     int
		wantLocation string
		wantCalled   bool
	}{
		{
			name:     "loading waits",
			state:    staticState{IsLoading: true, Phase: domain.PhaseRestoring},
			wantCode: http.StatusAccepted,
		},
		{
			name:         "anonymous redirects to login",
			state:        staticState{Phase: domain.PhaseAnonymous},
			wantCode:     http.StatusFound,
			wantLocation: LoginPath,
		},
		{
			name:       "authenticated without roles passes",
			state:      authenticated(domain.RoleUser),
			wantCode:   http.StatusOK,
			wantCalled: true,
		},
		{
			name:         "wrong role redirects home",
			state:        authenticated(domain.RoleUser),
			roles:        []domain.Role{domain.RoleAdmin},
			wantCode:     http.StatusFound,
			wantLocation: HomePath,
		},
		{
			name:       "matching role passes",
			state:      authenticated(domain.RoleAdmin),
			roles:      []domain.Role{domain.RoleAdmin},
			wantCode:   http.StatusOK,
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/bookings/me", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			called := false
			h := Protect(tt.state, func(c echo.Context) error {
				called = true
				if _, ok := c.Get(handler.SessionContextKey).(domain.SessionState); !ok {
					t.Fatalf("session snapshot not stored in context")
				}
				return c.NoContent(http.StatusOK)
			}, Requirements{Roles: tt.roles})

			if err := h(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if called != tt.wantCalled {
				t.Fatalf("expected called=%v, got %v", tt.wantCalled, called)
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			if tt.wantLocation != "" && rec.Header().Get(echo.HeaderLocation) != tt.wantLocation {
				t.Fatalf("expected redirect to %s, got %s", tt.wantLocation, rec.Header().Get(echo.HeaderLocation))
			}
		})
	}
}

func TestGuard_SecondaryRoleIsNotEnough(t *testing.T) {
	state := authenticated(domain.RoleUser)
	state.User.Roles = []domain.Role{domain.RoleAdmin}

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/admin/tables", nil), rec)

	h := Guard(state, Requirements{Roles: []domain.Role{domain.RoleAdmin}})(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})
	_ = h(c)

	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != HomePath {
		t.Fatalf("expected redirect home, got %d %s", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
}
