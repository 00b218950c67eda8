package middleware

import (
	"context"

	userdomain "streamline/backend/internal/user/domain"
)

type contextKey struct{ name string }

var userKey = contextKey{"user"}

// WithUser returns a context carrying the authenticated caller.
func WithUser(ctx context.Context, u *userdomain.PublicUser) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the caller set by RequireAuth and true, or nil, false.
func UserFromContext(ctx context.Context) (*userdomain.PublicUser, bool) {
	u, ok := ctx.Value(userKey).(*userdomain.PublicUser)
	return u, ok && u != nil
}

func contextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the id assigned by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// UserID returns the caller's id, or "" when the request is unauthenticated.
func UserID(ctx context.Context) string {
	if u, ok := UserFromContext(ctx); ok {
		return u.ID
	}
	return ""
}
