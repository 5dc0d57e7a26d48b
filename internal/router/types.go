// Package router implements the MessageRouter described in spec §4.6: a
// single service owning the actor-id → mailbox map and the channel
// registry, routing sends, requests, and channel lifecycle.
package router

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"

	"github.com/theater-rt/theater/internal/theaterid"
)

// Mailbox is the bounded queue of ActorMessages feeding one actor, per spec
// §4.6's "Mailbox" glossary entry. The router only ever holds the send
// side; the owning ActorRuntime holds the receive side.
type Mailbox = chan ActorMessage

// ActorMessage is the sealed union of message kinds the router delivers to
// an actor's mailbox.
type ActorMessage interface {
	isActorMessage()
}

func (SendMessage) isActorMessage()          {}
func (RequestMessage) isActorMessage()       {}
func (ChannelOpenMessage) isActorMessage()   {}
func (ChannelMessageMessage) isActorMessage() {}
func (ChannelCloseMessage) isActorMessage()  {}

// SendMessage is a fire-and-forget delivery.
type SendMessage struct {
	From theaterid.ActorId
	Data []byte
}

// RequestReply carries the result of a RequestMessage back to the router's
// caller.
type RequestReply struct {
	Data []byte
	Err  error
}

// RequestMessage is a request expecting a reply on Reply.
type RequestMessage struct {
	From  theaterid.ActorId
	Data  []byte
	Reply chan<- RequestReply
}

// ChannelOpenMessage asks the recipient to accept or reject a new channel.
// The recipient must send exactly one value on Accept.
type ChannelOpenMessage struct {
	ChannelID   ChannelId
	Initiator   theaterid.ActorId
	InitialData []byte
	Accept      chan<- bool
}

// ChannelMessageMessage delivers a payload on an already-open channel.
type ChannelMessageMessage struct {
	ChannelID ChannelId
	From      theaterid.ActorId
	Data      []byte
}

// ChannelCloseMessage notifies the peer that the channel has been closed.
type ChannelCloseMessage struct {
	ChannelID ChannelId
}

// ChannelId deterministically names a channel from its participant pair
// (canonically ordered) plus a nonce, per spec §3, so that equal nonces
// used by different pairs can't collide. Because the pair is ordered, the
// same nonce yields the same id whichever participant opens the channel.
type ChannelId string

// NewChannelId derives the deterministic ChannelId for the unordered pair
// {a, b} and a caller-chosen nonce.
func NewChannelId(a, b theaterid.ActorId, nonce string) ChannelId {
	ids := []string{a.String(), b.String()}
	sort.Strings(ids)

	h := sha1.New()
	h.Write([]byte(ids[0]))
	h.Write([]byte(":"))
	h.Write([]byte(ids[1]))
	h.Write([]byte(":"))
	h.Write([]byte(nonce))

	return ChannelId(hex.EncodeToString(h.Sum(nil)))
}

// ChannelStatus is a Channel's lifecycle state, per spec §3.
type ChannelStatus string

const (
	ChannelPending ChannelStatus = "pending"
	ChannelOpen    ChannelStatus = "open"
	ChannelClosed  ChannelStatus = "closed"
)

// Channel is the router's view of one channel between two actors.
type Channel struct {
	ChannelID    ChannelId
	ParticipantA theaterid.ActorId
	ParticipantB theaterid.ActorId
	Status       ChannelStatus
}

// peerOf returns the participant on the other side of actorID, and whether
// actorID is actually a participant of c.
func (c Channel) peerOf(actorID theaterid.ActorId) (theaterid.ActorId, bool) {
	switch {
	case c.ParticipantA == actorID:
		return c.ParticipantB, true
	case c.ParticipantB == actorID:
		return c.ParticipantA, true
	default:
		return theaterid.ActorId{}, false
	}
}
