// Package actorstore implements the per-actor mutable scratchpad described
// in spec §4.3: current state bytes, the actor's event-chain handle,
// identity, and a command sender back to the global runtime.
package actorstore

import (
	"context"

	"github.com/theater-rt/theater/internal/chain"
	"github.com/theater-rt/theater/internal/theaterid"
)

// CommandSender delivers a command to the global TheaterRuntime on behalf
// of the owning actor (e.g. supervisor host-function calls), returning
// whatever typed result the command produces (e.g. a child's state bytes,
// or a children listing) for the caller to marshal back across the wasm
// boundary. It is an interface rather than a concrete channel type so that
// actorstore does not need to import the theater package, which in turn
// depends on actorstore.
type CommandSender interface {
	Send(ctx context.Context, cmd any) (any, error)
}

// Store is the thin per-actor aggregate described in spec §4.3. It is
// touched only by the actor's executor task, so it needs no internal lock.
type Store struct {
	actorID theaterid.ActorId
	chain   *chain.Chain

	state    []byte
	hasState bool

	theaterTx CommandSender
}

// New creates a Store for actorID, wrapping the given chain and command
// sender.
func New(actorID theaterid.ActorId, c *chain.Chain, theaterTx CommandSender) *Store {
	return &Store{
		actorID:   actorID,
		chain:     c,
		theaterTx: theaterTx,
	}
}

// ActorID returns the owning actor's identifier.
func (s *Store) ActorID() theaterid.ActorId {
	return s.actorID
}

// Chain returns the actor's event chain handle.
func (s *Store) Chain() *chain.Chain {
	return s.chain
}

// State returns the actor's current state bytes, if any has been set.
func (s *Store) State() ([]byte, bool) {
	return s.state, s.hasState
}

// SetState replaces the actor's state. Exclusive mutation: the caller (the
// executor task) is the only writer.
func (s *Store) SetState(state []byte) {
	s.state = state
	s.hasState = true
}

// TheaterCommand sends cmd to the global runtime on the actor's behalf,
// returning whatever result the runtime produced.
func (s *Store) TheaterCommand(ctx context.Context, cmd any) (any, error) {
	if s.theaterTx == nil {
		return nil, nil
	}

	return s.theaterTx.Send(ctx, cmd)
}
