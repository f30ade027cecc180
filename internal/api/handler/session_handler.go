package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tablebook/reservation-client/internal/core/domain"
	"github.com/tablebook/reservation-client/internal/core/ports"
	"github.com/tablebook/reservation-client/internal/core/service"
)

// SessionService is the session lifecycle as seen by the HTTP host.
type SessionService interface {
	State() domain.SessionState
	Login(ctx context.Context, email, password string, opts service.LoginOptions) domain.Result
	Register(ctx context.Context, input ports.RegisterInput, opts service.LoginOptions) domain.Result
	Logout(ctx context.Context, opts service.LogoutOptions) domain.Result
	UpdateUser(ctx context.Context, patch domain.IdentityPatch) domain.Result
	RefreshToken(ctx context.Context) domain.Result
	RequestPasswordReset(ctx context.Context, email string) domain.Result
	ResetPassword(ctx context.Context, email, otp, newPassword string) domain.Result
}

// SessionHandler exposes the session lifecycle. Expected failures are 200
// with success=false; only malformed payloads are rejected with 400.
type SessionHandler struct {
	sessions SessionService
}

func NewSessionHandler(sessions SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// --- Request / Response types ---

type sessionOptions struct {
	RememberMe bool             `json:"rememberMe"`
	ExpiresAt  domain.Timestamp `json:"expiresAt"`
	TTLSeconds int              `json:"ttlSeconds" validate:"gte=0"`
}

func (o sessionOptions) loginOptions() service.LoginOptions {
	return service.LoginOptions{
		RememberMe: o.RememberMe,
		ExpiresAt:  o.ExpiresAt.Time,
		TTL:        time.Duration(o.TTLSeconds) * time.Second,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	sessionOptions
}

type registerRequest struct {
	Name     string      `json:"name" validate:"required"`
	Email    string      `json:"email" validate:"required"`
	Password string      `json:"password" validate:"required"`
	Role     domain.Role `json:"role,omitempty"`
	sessionOptions
}

type logoutRequest struct {
	PreserveRememberMe bool `json:"preserveRememberMe"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type resetPasswordRequest struct {
	Email    string `json:"email" validate:"required"`
	OTP      string `json:"otp" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// sessionResponse is a Result plus the session snapshot after the operation.
type sessionResponse struct {
	domain.Result
	Session domain.SessionState `json:"session"`
}

func (h *SessionHandler) respond(c echo.Context, res domain.Result) error {
	return c.JSON(http.StatusOK, sessionResponse{Result: res, Session: h.sessions.State()})
}

// Get handles GET /session.
//
// @Summary      Current session state
// @Tags         session
// @Produce      json
// @Success      200  {object}  domain.SessionState
// @Router       /session [get]
func (h *SessionHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sessions.State())
}

// Login handles POST /session/login.
//
// @Summary      Log in with email and password
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials and session options"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Router       /session/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	res := h.sessions.Login(c.Request().Context(), req.Email, req.Password, req.loginOptions())
	return h.respond(c, res)
}

// Register handles POST /session/register.
//
// @Summary      Create an account and log in
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details and session options"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Router       /session/register [post]
func (h *SessionHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	res := h.sessions.Register(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}, req.loginOptions())
	return h.respond(c, res)
}

// Logout handles POST /session/logout. The body is optional.
//
// @Summary      Log out
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      logoutRequest  false  "Logout options"
// @Success      200   {object}  sessionResponse
// @Router       /session/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	var req logoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	res := h.sessions.Logout(c.Request().Context(), service.LogoutOptions{PreserveRememberMe: req.PreserveRememberMe})
	return h.respond(c, res)
}

// UpdateUser handles PATCH /session/user.
//
// @Summary      Merge fields into the current identity
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      domain.IdentityPatch  true  "Fields to change"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Router       /session/user [patch]
func (h *SessionHandler) UpdateUser(c echo.Context) error {
	var patch domain.IdentityPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return h.respond(c, h.sessions.UpdateUser(c.Request().Context(), patch))
}

// Refresh handles POST /session/refresh.
//
// @Summary      Refresh the session token
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /session/refresh [post]
func (h *SessionHandler) Refresh(c echo.Context) error {
	return h.respond(c, h.sessions.RefreshToken(c.Request().Context()))
}

// ForgotPassword handles POST /session/forgot-password.
//
// @Summary      Request a password reset code
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      200   {object}  domain.Result
// @Failure      400   {object}  map[string]string
// @Router       /session/forgot-password [post]
func (h *SessionHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.sessions.RequestPasswordReset(c.Request().Context(), req.Email))
}

// ResetPassword handles POST /session/reset-password.
//
// @Summary      Reset the password with a one-time code
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Email, code and new password"
// @Success      200   {object}  domain.Result
// @Failure      400   {object}  map[string]string
// @Router       /session/reset-password [post]
func (h *SessionHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.sessions.ResetPassword(c.Request().Context(), req.Email, req.OTP, req.Password))
}
