package backend

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tablebook/reservation-client/internal/core/domain"
	"github.com/tablebook/reservation-client/internal/core/ports"
)

// AuthClient implements ports.AuthClient over the /auth endpoints.
// It performs no retries.
type AuthClient struct {
	c *Client
}

var _ ports.AuthClient = (*AuthClient)(nil)

func NewAuthClient(c *Client) *AuthClient {
	return &AuthClient{c: c}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type forgotRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetRequest struct {
	Email    string `json:"email" validate:"required,email"`
	OTP      string `json:"otp" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// userDTO accepts both "id" and Mongo-style "_id".
type userDTO struct {
	ID          string        `json:"id"`
	MongoID     string        `json:"_id"`
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	Role        domain.Role   `json:"role"`
	Roles       []domain.Role `json:"roles"`
	Permissions []string      `json:"permissions"`
}

func (u *userDTO) identity() *domain.Identity {
	if u == nil {
		return nil
	}
	id := u.ID
	if id == "" {
		id = u.MongoID
	}
	return &domain.Identity{
		ID:          id,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Roles:       u.Roles,
		Permissions: u.Permissions,
	}
}

type authResponse struct {
	User  *userDTO `json:"user"`
	Token string   `json:"token"`
}

func (a *AuthClient) Login(ctx context.Context, email, password string) (ports.AuthPayload, error) {
	in := loginRequest{Email: email, Password: password}
	if err := a.c.validate.Struct(in); err != nil {
		return ports.AuthPayload{}, &domain.AuthError{Kind: domain.KindInvalidCredentials, Message: err.Error()}
	}

	var out authResponse
	err := a.c.do(ctx, request{Method: http.MethodPost, Route: "/auth/login", Path: "/auth/login", Body: in}, &out)
	if err != nil {
		return ports.AuthPayload{}, classify(err, func(status int, _ string) domain.AuthErrorKind {
			return domain.KindInvalidCredentials
		})
	}
	return ports.AuthPayload{User: out.User.identity(), Token: out.Token}, nil
}

func (a *AuthClient) Register(ctx context.Context, input ports.RegisterInput) (ports.AuthPayload, error) {
	if err := a.c.validate.Struct(input); err != nil {
		return ports.AuthPayload{}, &domain.AuthError{Kind: domain.KindValidation, Message: err.Error()}
	}

	var out authResponse
	err := a.c.do(ctx, request{Method: http.MethodPost, Route: "/auth/register", Path: "/auth/register", Body: input}, &out)
	if err != nil {
		return ports.AuthPayload{}, classify(err, func(int, string) domain.AuthErrorKind {
			return domain.KindValidation
		})
	}
	return ports.AuthPayload{User: out.User.identity(), Token: out.Token}, nil
}

func (a *AuthClient) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	in := forgotRequest{Email: email}
	if err := a.c.validate.Struct(in); err != nil {
		return "", &domain.AuthError{Kind: domain.KindValidation, Message: err.Error()}
	}

	var out messageResponse
	err := a.c.do(ctx, request{Method: http.MethodPost, Route: "/auth/forgot-password", Path: "/auth/forgot-password", Body: in}, &out)
	if err != nil {
		return "", classify(err, func(status int, _ string) domain.AuthErrorKind {
			if status == http.StatusNotFound {
				return domain.KindNotFound
			}
			return domain.KindValidation
		})
	}
	return out.Message, nil
}

func (a *AuthClient) ResetPassword(ctx context.Context, email, otp, newPassword string) (string, error) {
	in := resetRequest{Email: email, OTP: otp, Password: newPassword}
	if err := a.c.validate.Struct(in); err != nil {
		return "", &domain.AuthError{Kind: domain.KindValidation, Message: err.Error()}
	}

	var out messageResponse
	err := a.c.do(ctx, request{Method: http.MethodPost, Route: "/auth/reset-password", Path: "/auth/reset-password", Body: in}, &out)
	if err != nil {
		return "", classify(err, func(status int, msg string) domain.AuthErrorKind {
			switch {
			case status == http.StatusUnauthorized || status == http.StatusGone:
				return domain.KindInvalidOtp
			case status == http.StatusBadRequest && strings.Contains(strings.ToLower(msg), "otp"):
				return domain.KindInvalidOtp
			default:
				return domain.KindValidation
			}
		})
	}
	return out.Message, nil
}

func (a *AuthClient) Me(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, &domain.AuthError{Kind: domain.KindInvalidCredentials, Message: domain.ErrMissingCredential.Error()}
	}

	var out struct {
		userDTO
		User *userDTO `json:"user"`
	}
	err := a.c.do(ctx, request{Method: http.MethodGet, Route: "/auth/me", Path: "/auth/me", Token: token}, &out)
	if err != nil {
		return nil, classify(err, func(status int, _ string) domain.AuthErrorKind {
			if status == http.StatusUnauthorized || status == http.StatusForbidden {
				return domain.KindInvalidCredentials
			}
			return domain.KindValidation
		})
	}
	if out.User != nil {
		return out.User.identity(), nil
	}
	return out.userDTO.identity(), nil
}

// classify turns a backend failure into an AuthError. Unreachable backends and
// 5xx answers are network errors, an undecodable 2xx body is a validation
// error, and kindFor decides every 4xx.
func classify(err error, kindFor func(status int, msg string) domain.AuthErrorKind) error {
	var api *domain.APIError
	if !errors.As(err, &api) {
		return &domain.AuthError{Kind: domain.KindNetwork, Message: domain.NetworkErrorMessage, Err: err}
	}
	switch {
	case api.Status == 0:
		return &domain.AuthError{Kind: domain.KindNetwork, Message: domain.NetworkErrorMessage, Err: api}
	case api.Status < 400:
		return &domain.AuthError{Kind: domain.KindValidation, Message: api.Message, Status: api.Status, Err: api}
	case api.Status >= 500:
		msg := api.Message
		if msg == "" || msg == http.StatusText(api.Status) {
			msg = domain.NetworkErrorMessage
		}
		return &domain.AuthError{Kind: domain.KindNetwork, Message: msg, Status: api.Status, Err: api}
	default:
		return &domain.AuthError{Kind: kindFor(api.Status, api.Message), Message: api.Message, Status: api.Status, Err: api}
	}
}
