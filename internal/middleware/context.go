// Package middleware carries request-scoped context helpers and Echo
// middleware for the services' ambient HTTP surfaces (health, stats).
package middleware

import "context"

type contextKey string

// UserIDKey is the context key for the tenant's user_id, the unit of data
// ownership throughout the fabric.
const UserIDKey contextKey = "user_id"

// WithUserID returns a new context with the user ID set.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts the user ID from the context.
func GetUserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(UserIDKey).(string)
	return v, ok
}
