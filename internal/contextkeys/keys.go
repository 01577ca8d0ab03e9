package contextkeys

import (
	"context"

	"github.com/gymflow/backend/internal/domain"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

// actorKey holds the domain.Actor resolved by the auth middlewares.
const actorKey contextKey = "actor"

// WithActor stores the authenticated caller in ctx.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// Actor returns the authenticated caller, if any.
func Actor(ctx context.Context) (domain.Actor, bool) {
	a, ok := ctx.Value(actorKey).(domain.Actor)
	return a, ok
}
