package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tablebook/reservation-client/internal/core/domain"
)

// IsSessionValid decides whether a persisted identity may still be used.
// A record without an expiry never self-expires; one with an expiry is valid
// only while now is strictly before it. Undecodable expiries arrive here as
// unset and are therefore valid.
func IsSessionValid(identity *domain.Identity, now time.Time) bool {
	if identity == nil {
		return false
	}
	if !identity.ExpiresAt.IsSet() {
		return true
	}
	return now.Before(identity.ExpiresAt.Time)
}

// tokenExpiry reads the exp claim of a JWT bearer token without verifying its
// signature. Opaque tokens report ok=false.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time.UTC(), true
}
