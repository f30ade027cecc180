package ports

import (
	"context"

	"github.com/tablebook/reservation-client/internal/core/domain"
)

// AuthPayload is the identity and bearer token returned by login/register.
type AuthPayload struct {
	User  *domain.Identity
	Token string
}

// RegisterInput carries the fields of a sign-up request.
type RegisterInput struct {
	Name     string      `json:"name" validate:"required"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     domain.Role `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
}

// AuthClient performs the authentication network calls. Every failure is a
// *domain.AuthError.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (AuthPayload, error)
	Register(ctx context.Context, input RegisterInput) (AuthPayload, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, email, otp, newPassword string) (string, error)
	Me(ctx context.Context, token string) (*domain.Identity, error)
}

// TokenSource yields the current bearer token, or "" when anonymous.
type TokenSource interface {
	Token() string
}
