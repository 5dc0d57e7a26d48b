package actor

import (
	"context"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// promiseImpl is the concrete implementation backing both Promise[T] and
// Future[T]. A promise/future pair shares one instance: the producer holds
// the Promise side, the consumer(s) hold the Future side.
type promiseImpl[T any] struct {
	mu sync.Mutex

	// done is closed exactly once, when Complete first succeeds.
	done chan struct{}

	// result holds the completed value. Only valid for reading once done
	// is closed.
	result fn.Result[T]

	// completed guards against double-completion racing the close of
	// done.
	completed bool
}

// NewPromise creates a new, uncompleted Promise/Future pair.
func NewPromise[T any]() Promise[T] {
	return &promiseImpl[T]{
		done: make(chan struct{}),
	}
}

// Complete attempts to set the result of the future. It returns true if this
// call successfully set the result (i.e., it was the first to complete it),
// and false if the future had already been completed.
func (p *promiseImpl[T]) Complete(result fn.Result[T]) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.completed {
		return false
	}

	p.result = result
	p.completed = true
	close(p.done)

	return true
}

// Future returns the Future interface associated with this Promise.
func (p *promiseImpl[T]) Future() Future[T] {
	return p
}

// Await blocks until the result is available or the context is cancelled,
// then returns it.
func (p *promiseImpl[T]) Await(ctx context.Context) fn.Result[T] {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.result

	case <-ctx.Done():
		return fn.Err[T](ctx.Err())
	}
}

// ThenApply registers a function to transform the result of a future. The
// original future is not modified; a new instance of the future is returned.
// If the passed context is cancelled while waiting for the original future
// to complete, the new future will complete with the context's error.
func (p *promiseImpl[T]) ThenApply(ctx context.Context, f func(T) T) Future[T] {
	next := NewPromise[T]()

	go func() {
		result := p.Await(ctx)

		val, err := result.Unpack()
		if err != nil {
			// Pass the original failure through unchanged; there
			// is nothing to transform.
			next.Complete(result)
			return
		}

		next.Complete(fn.Ok(f(val)))
	}()

	return next.Future()
}

// OnComplete registers a function to be called when the result of the future
// is ready. If the passed context is cancelled before the future completes,
// the callback function will be invoked with the context's error.
func (p *promiseImpl[T]) OnComplete(ctx context.Context, cb func(fn.Result[T])) {
	go func() {
		cb(p.Await(ctx))
	}()
}

// Ensure promiseImpl satisfies both sides of the Promise/Future pair.
var (
	_ Promise[any] = (*promiseImpl[any])(nil)
	_ Future[any]  = (*promiseImpl[any])(nil)
)
