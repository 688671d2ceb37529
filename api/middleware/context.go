package middleware

import "context"

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxAccessID contextKey = "access_id"
)

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// UserIDFromContext returns the authenticated user's id seeded by Auth.
func UserIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxUserID)
}

// AccessIDFromContext returns the jti of the bearer token the request
// authenticated with. Logout revokes the session keyed by it.
func AccessIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxAccessID)
}

// WithUserID injects the user identifier into the context. Tests use it to
// simulate an authenticated request without minting a token.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}
