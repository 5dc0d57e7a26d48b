package chain

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// EventHash is the hex-encoded SHA-1 digest identifying a ChainEvent's
// position in its chain.
type EventHash string

// String returns the hex text form.
func (h EventHash) String() string { return string(h) }

// ChainEvent is a single hash-linked record in an actor's event chain, per
// spec §3. The root event of a chain has no ParentHash.
type ChainEvent struct {
	Hash        EventHash  `json:"hash"`
	ParentHash  *EventHash `json:"parent_hash"`
	EventType   string     `json:"event_type"`
	Payload     []byte     `json:"payload"`
	Timestamp   int64      `json:"timestamp"`
	Description *string    `json:"description,omitempty"`
}

// computeHash derives the hash for an event built atop parentHash (empty
// string for the root event) with the given payload bytes:
// SHA1(parent_hash || payload_bytes).
func computeHash(parentHash EventHash, payload []byte) EventHash {
	h := sha1.New()
	h.Write([]byte(parentHash))
	h.Write(payload)

	return EventHash(hex.EncodeToString(h.Sum(nil)))
}

// verifyLink checks that ev's hash correctly derives from parentHash and
// ev's own payload.
func verifyLink(parentHash EventHash, ev ChainEvent) error {
	want := computeHash(parentHash, ev.Payload)
	if want != ev.Hash {
		return fmt.Errorf(
			"%w: event %q hash %s does not match recomputed %s",
			ErrChainCorruption, ev.EventType, ev.Hash, want,
		)
	}

	return nil
}

// marshalEvents serializes a chain's events to the on-disk JSON array
// format described in spec §6.
func marshalEvents(events []ChainEvent) ([]byte, error) {
	return json.Marshal(events)
}

// unmarshalEvents parses the on-disk JSON array format back into events.
func unmarshalEvents(data []byte) ([]ChainEvent, error) {
	var events []ChainEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decoding chain: %w", err)
	}

	return events, nil
}
