package actorstore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/theater-rt/theater/internal/chain"
	"github.com/theater-rt/theater/internal/theaterid"
)

// randomBytesPayload is a handler-supplied payload type P, as described in
// spec §9 (the "wasi:random/random" handler's get-random-bytes result).
type randomBytesPayload struct {
	RequestedSize int
	Bytes         []byte
}

// appEvent is a stand-in for an application-chosen outer event type E, with
// one variant per handler payload type it composes.
type appEvent struct {
	kind   string
	random *randomBytesPayload
}

func (e appEvent) EventType() string { return e.kind }

func (e appEvent) Serialize() ([]byte, error) {
	switch e.kind {
	case "wasi:random/random/get-random-bytes":
		return json.Marshal(e.random)
	default:
		return nil, nil
	}
}

func fromRandomBytes(p randomBytesPayload) appEvent {
	return appEvent{
		kind:   "wasi:random/random/get-random-bytes",
		random: &p,
	}
}

func TestRecordHandlerEventComposesAndAppends(t *testing.T) {
	t.Parallel()

	actorID := theaterid.NewActorId()
	c := chain.New(actorID)
	s := New(actorID, c, nil)

	payload := randomBytesPayload{
		RequestedSize: 8,
		Bytes:         []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03, 0x04},
	}

	ev, err := RecordHandlerEvent(s, fromRandomBytes, payload, nil)
	require.NoError(t, err)
	require.Equal(t, "wasi:random/random/get-random-bytes", ev.EventType)

	head, ok := c.Head()
	require.True(t, ok)
	require.Equal(t, ev.Hash, head.Hash)

	var decoded randomBytesPayload
	require.NoError(t, json.Unmarshal(head.Payload, &decoded))
	require.Equal(t, payload, decoded)
}

func TestStoreStateIsUnsetUntilExplicitlySet(t *testing.T) {
	t.Parallel()

	actorID := theaterid.NewActorId()
	s := New(actorID, chain.New(actorID), nil)

	_, ok := s.State()
	require.False(t, ok)

	s.SetState([]byte("state-bytes"))

	state, ok := s.State()
	require.True(t, ok)
	require.Equal(t, []byte("state-bytes"), state)
}
