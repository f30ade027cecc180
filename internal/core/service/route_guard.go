package service

import "github.com/tablebook/reservation-client/internal/core/domain"

// AccessDecision is the outcome of a route guard check.
type AccessDecision string

const (
	AccessWait          AccessDecision = "wait"
	AccessRedirectLogin AccessDecision = "redirect_login"
	AccessRedirectHome  AccessDecision = "redirect_home"
	AccessAllow         AccessDecision = "allow"
)

// DecideAccess gates a view on the session state and an optional role list.
// Only the primary role is compared against requiredRoles.
func DecideAccess(isLoading, isAuthenticated bool, userRole domain.Role, requiredRoles []domain.Role) AccessDecision {
	if isLoading {
		return AccessWait
	}
	if !isAuthenticated {
		return AccessRedirectLogin
	}
	if len(requiredRoles) == 0 {
		return AccessAllow
	}
	for _, r := range requiredRoles {
		if r == userRole {
			return AccessAllow
		}
	}
	return AccessRedirectHome
}

// DecideAccessFor applies DecideAccess to a session snapshot.
func DecideAccessFor(state domain.SessionState, requiredRoles []domain.Role) AccessDecision {
	var role domain.Role
	if state.User != nil {
		role = state.User.Role
	}
	return DecideAccess(state.IsLoading, state.IsAuthenticated(), role, requiredRoles)
}
