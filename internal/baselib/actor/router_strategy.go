package actor

import (
	"context"
	"sync/atomic"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// RoutingStrategy selects one actor reference from a set of candidates
// registered under the same service key. Implementations must be safe for
// concurrent use, since a router may be shared across many callers.
type RoutingStrategy[M Message, R any] interface {
	// Select picks one of the given references. It returns false if refs
	// is empty and no selection can be made.
	Select(refs []ActorRef[M, R]) (ActorRef[M, R], bool)
}

// roundRobinStrategy cycles through candidates in order, wrapping around.
type roundRobinStrategy[M Message, R any] struct {
	next atomic.Uint64
}

// NewRoundRobinStrategy creates a RoutingStrategy that distributes messages
// evenly across all registered actors in rotation.
func NewRoundRobinStrategy[M Message, R any]() RoutingStrategy[M, R] {
	return &roundRobinStrategy[M, R]{}
}

// Select implements RoutingStrategy.
func (s *roundRobinStrategy[M, R]) Select(refs []ActorRef[M, R]) (ActorRef[M, R], bool) {
	if len(refs) == 0 {
		var zero ActorRef[M, R]
		return zero, false
	}

	idx := s.next.Add(1) - 1

	return refs[idx%uint64(len(refs))], true
}

// routerRef is a virtual ActorRef that looks up the current set of actors
// registered under a service key on every call and delegates to one of them
// via a RoutingStrategy. It holds no actor of its own, so it never needs to
// be stopped: registration/unregistration of the underlying actors is
// managed independently through the ServiceKey/Receptionist.
type routerRef[M Message, R any] struct {
	receptionist *Receptionist
	key          ServiceKey[M, R]
	strategy     RoutingStrategy[M, R]
	dlo          ActorRef[Message, any]
}

// NewRouter creates a virtual ActorRef that load-balances across all actors
// currently registered under key, according to strategy. If no actor is
// registered when a message is sent, the message is routed to dlo (if
// non-nil) for Tell, or the returned Future completes with
// ErrActorTerminated for Ask.
func NewRouter[M Message, R any](receptionist *Receptionist,
	key ServiceKey[M, R], strategy RoutingStrategy[M, R],
	dlo ActorRef[Message, any],
) ActorRef[M, R] {
	return &routerRef[M, R]{
		receptionist: receptionist,
		key:          key,
		strategy:     strategy,
		dlo:          dlo,
	}
}

// ID returns a stable identifier for the router, derived from its service
// key name.
func (r *routerRef[M, R]) ID() string {
	return "router:" + r.key.name
}

// Tell selects a live actor under the service key and forwards the message
// to it. If none is currently registered, the message is routed to the
// router's dead letter office, if configured.
func (r *routerRef[M, R]) Tell(ctx context.Context, msg M) {
	refs := FindInReceptionist(r.receptionist, r.key)

	target, ok := r.strategy.Select(refs)
	if !ok {
		if r.dlo != nil {
			r.dlo.Tell(ctx, msg)
		}
		return
	}

	target.Tell(ctx, msg)
}

// Ask selects a live actor under the service key and forwards the request to
// it. If none is currently registered, the returned Future completes
// immediately with ErrActorTerminated.
func (r *routerRef[M, R]) Ask(ctx context.Context, msg M) Future[R] {
	refs := FindInReceptionist(r.receptionist, r.key)

	target, ok := r.strategy.Select(refs)
	if !ok {
		promise := NewPromise[R]()
		promise.Complete(fn.Err[R](ErrActorTerminated))
		return promise.Future()
	}

	return target.Ask(ctx, msg)
}

var _ ActorRef[Message, any] = (*routerRef[Message, any])(nil)
