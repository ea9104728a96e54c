package auth

import (
	"net/http"
	"strings"
)

// Policy determines required roles by request.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
}

// NewDefaultPolicy builds a default policy with exemptions.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set, ExemptPrefixes: exemptPrefixes}
}

// IsExempt returns true when a request should skip auth/RBAC.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// RequiredRole resolves required role for the request. Ownership checks
// (self-assign, own-profile) stay with the handlers; the policy only
// separates admin-only routes from authenticated routes.
func (p Policy) RequiredRole(r *http.Request) (Role, bool) {
	if r == nil {
		return "", false
	}
	path := r.URL.Path
	method := r.Method

	switch {
	case path == "/auth/me":
		return RoleUser, true
	case path == "/users":
		return RoleAdmin, true
	case path == "/users/me" || path == "/users/me/devices":
		return RoleUser, true
	case strings.HasPrefix(path, "/users/"):
		if method == http.MethodGet {
			return RoleUser, true
		}
		return RoleAdmin, true
	case path == "/devices":
		// Listing the whole fleet and registering devices are both
		// administrative; users read /users/me/devices and /devices/available.
		return RoleAdmin, true
	case path == "/devices/available":
		return RoleUser, true
	case strings.HasPrefix(path, "/devices/"):
		if strings.HasSuffix(path, "/unassign") || strings.Contains(path, "/assign/") {
			return RoleUser, true
		}
		if method == http.MethodGet {
			return RoleUser, true
		}
		return RoleAdmin, true
	case strings.HasPrefix(path, "/admin/"):
		return RoleAdmin, true
	}

	return RoleUser, true
}
