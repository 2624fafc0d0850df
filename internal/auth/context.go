// Package auth provides email/password identity with JWT session tokens and
// the gin middleware that injects the verified user id into request context.
// The game core only ever sees "current user id or none".
package auth

import "context"

type ctxKey int

const userIDKey ctxKey = iota

// WithUserID stores a verified user id in a context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the verified user id from a context, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
