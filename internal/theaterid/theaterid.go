// Package theaterid defines the identifier types shared across the runtime:
// ActorId (random, unforgeable from within wasm), ContentRef (SHA-1 content
// address), and Label (mutable indirection name).
package theaterid

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// ActorId is a globally-unique actor identifier, displayed as a canonical
// UUID (8-4-4-4-12 hex). It is generated only by the runtime at spawn time;
// wasm may name existing ids (message targets, children) but cannot mint or
// choose the id of a new actor.
type ActorId struct {
	id uuid.UUID
}

// NewActorId generates a fresh, random ActorId.
func NewActorId() ActorId {
	return ActorId{id: uuid.New()}
}

// ParseActorId parses the canonical UUID text form of an ActorId, as found
// in management-channel requests or the on-disk registry.
func ParseActorId(s string) (ActorId, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ActorId{}, fmt.Errorf("invalid actor id %q: %w", s, err)
	}

	return ActorId{id: id}, nil
}

// String returns the canonical UUID text form.
func (a ActorId) String() string {
	return a.id.String()
}

// IsZero reports whether this is the zero-value ActorId (no parent, no
// actor).
func (a ActorId) IsZero() bool {
	return a.id == uuid.Nil
}

// MarshalJSON encodes the canonical UUID text form, so ActorId round-trips
// through the JSON responses sent across the wasm ABI boundary (e.g.
// handler/supervisor.go's children listing) without exposing the
// unexported uuid.UUID field.
func (a ActorId) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.id.String())
}

// UnmarshalJSON parses the canonical UUID text form produced by MarshalJSON.
func (a *ActorId) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid actor id %q: %w", s, err)
	}

	a.id = id
	return nil
}

// contentRefPattern matches the 40-hex-character textual form of a
// ContentRef.
var contentRefPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// ContentRef is a SHA-1 content address: 160 bits, hex-encoded. Equality of
// two ContentRefs is equivalent to equality of the content they reference.
type ContentRef struct {
	hex string
}

// HashContent computes the ContentRef for the given bytes.
func HashContent(data []byte) ContentRef {
	sum := sha1.Sum(data)
	return ContentRef{hex: hex.EncodeToString(sum[:])}
}

// ParseContentRef parses the 40-hex-character textual form of a ContentRef,
// as found on disk (`data/<hex>`, label files) or in chain event payloads.
func ParseContentRef(s string) (ContentRef, error) {
	if !contentRefPattern.MatchString(s) {
		return ContentRef{}, fmt.Errorf(
			"invalid content ref %q: must be 40 lowercase hex "+
				"characters", s,
		)
	}

	return ContentRef{hex: s}, nil
}

// String returns the 40-hex-character textual form.
func (c ContentRef) String() string {
	return c.hex
}

// IsZero reports whether this is the zero-value ContentRef.
func (c ContentRef) IsZero() bool {
	return c.hex == ""
}

// Label is a UTF-8 string naming one or more ContentRefs indirectly. The
// mapping from Label to its ref-list is mutable and owned by the
// ContentStore. Conventional namespaces used by this runtime:
//
//	{actor-id}:chain-head    -- latest persisted chain ref for an actor
//	actor:{id}:state         -- latest persisted state ref for an actor
//	shared:{name}            -- application-defined shared data
type Label string

// String returns the label text.
func (l Label) String() string {
	return string(l)
}

// ChainHeadLabel returns the conventional chain-head label for an actor.
func ChainHeadLabel(id ActorId) Label {
	return Label(fmt.Sprintf("%s:chain-head", id.String()))
}

// StateLabel returns the conventional state label for an actor.
func StateLabel(id ActorId) Label {
	return Label(fmt.Sprintf("actor:%s:state", id.String()))
}
