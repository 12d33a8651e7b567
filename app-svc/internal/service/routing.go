package service

import "foodcourt/app-svc/internal/domain"

type RouteGroup string

const (
	GroupAuth     RouteGroup = "auth"
	GroupAdmin    RouteGroup = "admin"
	GroupCustomer RouteGroup = "customer"
)

const (
	RouteLogin     = "/(auth)/login"
	RouteDashboard = "/(admin)/dashboard"
	RouteHome      = "/(customer)/home"
)

// ResolveRoute is the redirect policy a router applies to the session state.
// It returns the target and true when the current group is not allowed.
func ResolveRoute(state SessionState, current RouteGroup) (string, bool) {
	switch state.Status {
	case SessionLoading:
		return "", false
	case SessionUnauthenticated:
		if current != GroupAuth {
			return RouteLogin, true
		}
		return "", false
	}

	if state.Identity == nil {
		return RouteLogin, current != GroupAuth
	}

	if state.Identity.Role == domain.RoleAdmin {
		if current != GroupAdmin {
			return RouteDashboard, true
		}
		return "", false
	}

	if current == GroupAuth || current == GroupAdmin {
		return RouteHome, true
	}
	return "", false
}
