package domain

import "strings"

// Role is the closed set of portal roles. Profile records historically
// stored free-form strings, so parsing is case-insensitive and trimmed,
// with anything unrecognised collapsing to RoleUnknown.
type Role string

const (
	RoleEmployee   Role = "employee"
	RoleHR         Role = "hr"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super-admin"
	RoleUnknown    Role = "unknown"
)

func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "employee":
		return RoleEmployee
	case "hr":
		return RoleHR
	case "admin":
		return RoleAdmin
	case "super-admin", "superadmin":
		return RoleSuperAdmin
	default:
		return RoleUnknown
	}
}

func (r Role) String() string { return string(r) }

// Destination landing routes, fixed strings shared with the front end.
const (
	RouteAdmin        = "/admin/dashboard"
	RouteHR           = "/hr/dashboard"
	RouteEmployee     = "/employee"
	RouteUnauthorized = "/unauthorized"
	RouteMFASetup     = "/setup-2fa"
	RouteMFAChallenge = "/mfa-verify"
	RouteOTPChallenge = "/verify"
	RouteLocked       = "/locked"
)

// Destination maps a verified, MFA-satisfied role to its landing area.
// It performs no authorization of its own; protected areas re-check on
// every navigation.
func (r Role) Destination() string {
	switch r {
	case RoleAdmin, RoleSuperAdmin:
		return RouteAdmin
	case RoleHR:
		return RouteHR
	case RoleEmployee:
		return RouteEmployee
	default:
		return RouteUnauthorized
	}
}
