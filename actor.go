package invoicing

import "context"

// Actor identity flows through context. The engine never authenticates:
// the surrounding application (HTTP middleware, job runner) resolves the
// caller and attaches the actor ID before invoking any operation.

type actorKey struct{}

// WithActor returns a context carrying the authenticated actor identity.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFrom extracts the actor identity from the context, or "" if absent.
func ActorFrom(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok {
		return v
	}
	return ""
}
