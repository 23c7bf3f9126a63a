// Package identity carries the acting principal through the call
// context. There is no process-wide fallback: the composition root
// decides which actor each entry point runs as and installs it
// explicitly (HTTP middleware, scheduler runner, message processor).
package identity

import "context"

type Actor string

type ctxKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(ctxKey{}).(Actor)
	return actor, ok
}
