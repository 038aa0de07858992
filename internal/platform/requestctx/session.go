package requestctx

import "context"

// sessionIDContextKey is the context key for anonymous session identity.
type sessionIDContextKey struct{}

// adminContextKey is the context key for the admin authorization flag.
type adminContextKey struct{}

// WithSessionID stores an anonymous session identifier in context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sessionIDContextKey{}, sessionID)
}

// SessionIDFromContext returns the session identifier stored in context.
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(sessionIDContextKey{}).(string)
	return value
}

// WithAdmin marks the context as carrying admin authorization.
func WithAdmin(ctx context.Context, admin bool) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, adminContextKey{}, admin)
}

// AdminFromContext reports whether the context carries admin authorization.
func AdminFromContext(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	value, _ := ctx.Value(adminContextKey{}).(bool)
	return value
}
