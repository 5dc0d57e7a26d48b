package actor

import (
	"context"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// FunctionBehavior adapts a plain function into an ActorBehavior, for actors
// whose message handling doesn't warrant a dedicated named type (e.g. the
// system's dead letter actor).
type FunctionBehavior[M Message, R any] struct {
	fn func(ctx context.Context, msg M) fn.Result[R]
}

// NewFunctionBehavior wraps f as an ActorBehavior[M, R].
func NewFunctionBehavior[M Message, R any](
	f func(ctx context.Context, msg M) fn.Result[R],
) *FunctionBehavior[M, R] {
	return &FunctionBehavior[M, R]{fn: f}
}

// Receive implements ActorBehavior by delegating to the wrapped function.
func (b *FunctionBehavior[M, R]) Receive(ctx context.Context, msg M) fn.Result[R] {
	return b.fn(ctx, msg)
}

var _ ActorBehavior[Message, any] = (*FunctionBehavior[Message, any])(nil)
