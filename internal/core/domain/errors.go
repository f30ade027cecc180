package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated  = errors.New("no user is currently authenticated")
	ErrWatchUnsupported  = errors.New("storage backend does not support change notifications")
	ErrCorruptState      = errors.New("persisted state could not be decoded")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrInvalidCartItem   = errors.New("invalid cart item")
	ErrMissingCredential = errors.New("missing bearer token")
)

// NetworkErrorMessage is shown when the backend cannot be reached.
const NetworkErrorMessage = "Network error. Please check your connection and try again."

// AuthErrorKind classifies failures of the auth backend calls.
type AuthErrorKind string

const (
	KindInvalidCredentials AuthErrorKind = "invalid_credentials"
	KindValidation         AuthErrorKind = "validation_error"
	KindNotFound           AuthErrorKind = "not_found"
	KindInvalidOtp         AuthErrorKind = "invalid_otp"
	KindNetwork            AuthErrorKind = "network_error"
)

// AuthError is a classified backend failure. Message is surfaced verbatim.
type AuthError struct {
	Kind    AuthErrorKind
	Message string
	Status  int
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// UserMessage extracts the user-facing message from any error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ae *AuthError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	var api *APIError
	if errors.As(err, &api) {
		if api.Status == 0 {
			return NetworkErrorMessage
		}
		if api.Message != "" {
			return api.Message
		}
	}
	return err.Error()
}

// IsAuthErrorKind reports whether err is an AuthError of the given kind.
func IsAuthErrorKind(err error, kind AuthErrorKind) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Kind == kind
}

// APIError is a non-2xx answer or transport failure from the REST backend.
// Status is 0 when the backend could not be reached.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("backend unreachable: %v", e.Err)
	}
	return fmt.Sprintf("backend status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}
