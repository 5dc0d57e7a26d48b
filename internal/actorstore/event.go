package actorstore

import (
	"fmt"

	"github.com/theater-rt/theater/internal/chain"
)

// EventEnvelope is the outer, application-chosen event type E referenced in
// spec §9: "make the actor runtime generic over an application-chosen outer
// event type E with conversions From<P> for every handler's payload type
// P." Go has no trait-coherence system to dispatch a `From<P>` impl
// automatically, so the conversion is supplied explicitly as a function at
// the call site (see RecordHandlerEvent) rather than resolved implicitly;
// EventEnvelope only has to know how to name and serialize itself once
// composed.
type EventEnvelope interface {
	// EventType returns the namespaced event-type string recorded
	// alongside the serialized payload (e.g. "filesystem/read").
	EventType() string

	// Serialize renders the envelope to the bytes stored as the chain
	// event's payload.
	Serialize() ([]byte, error)
}

// RecordHandlerEvent converts a handler's payload P into the application's
// composed event type E via convert, serializes it, and appends it to the
// store's chain. Every handler that records an event must supply its own
// convert function; an application that adds a handler but forgets to
// compose its event variant fails to compile, since convert's signature is
// pinned to both P and E.
func RecordHandlerEvent[E EventEnvelope, P any](
	s *Store,
	convert func(P) E,
	payload P,
	description *string,
) (chain.ChainEvent, error) {

	envelope := convert(payload)

	data, err := envelope.Serialize()
	if err != nil {
		return chain.ChainEvent{}, fmt.Errorf(
			"serializing %s event: %w", envelope.EventType(), err,
		)
	}

	return s.chain.Append(envelope.EventType(), data, description), nil
}
