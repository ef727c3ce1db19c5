// Package auditctx carries the identity of the request's actor through
// context so the audit trail can attribute mutations without every service
// signature growing actor parameters.
package auditctx

import "context"

// Actor identifies who initiated the current request, as established by the
// identity middleware.
type Actor struct {
	UserID    string
	Username  string
	IPAddress string
	UserAgent string
}

type actorKey struct{}

// WithActor derives a context carrying the actor. A nil parent is tolerated
// so callers outside a request (jobs, tests) need no special casing.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// FromContext reports the actor stored in ctx, if any.
func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
