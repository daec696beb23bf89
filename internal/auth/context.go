package auth

import "context"

type ctxKey string

const identityKey ctxKey = "identity"

// WithIdentity stores the authenticated user id on the context.
func WithIdentity(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, identityKey, userID)
}

// IdentityFromContext returns the authenticated user id, if any.
func IdentityFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	userID, ok := ctx.Value(identityKey).(string)
	return userID, ok && userID != ""
}
