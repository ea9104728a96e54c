package auth

import "context"

type contextKey string

const (
	contextKeyUserID   contextKey = "auth.user_id"
	contextKeyRole     contextKey = "auth.role"
	contextKeyUsername contextKey = "auth.username"
)

// WithIdentity stores auth identity details in context.
func WithIdentity(ctx context.Context, userID string, role Role, username string) context.Context {
	ctx = context.WithValue(ctx, contextKeyUserID, userID)
	ctx = context.WithValue(ctx, contextKeyRole, role)
	ctx = context.WithValue(ctx, contextKeyUsername, username)
	return ctx
}

// UserIDFromContext extracts the authenticated user id from context.
func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyUserID)
	if userID, ok := value.(string); ok {
		return userID
	}
	return ""
}

// RoleFromContext extracts role from context.
func RoleFromContext(ctx context.Context) Role {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyRole)
	if role, ok := value.(Role); ok {
		return role
	}
	if role, ok := value.(string); ok {
		if normalized, valid := NormalizeRole(role); valid {
			return normalized
		}
	}
	return ""
}

// UsernameFromContext extracts the authenticated username from context.
func UsernameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyUsername)
	if username, ok := value.(string); ok {
		return username
	}
	return ""
}
