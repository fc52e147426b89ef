package domain

import "context"

// User is the identity resolved from the hosted auth provider. The provider
// owns sign-in, sessions and everything else; this service only ever asks
// "who is the current user".
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// contextKey is a private type for context keys to avoid collisions
type contextKey string

const userContextKey contextKey = "user"

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user, or nil when the request is
// unauthenticated.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userContextKey).(*User)
	return u
}
