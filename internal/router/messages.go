package router

import (
	"github.com/theater-rt/theater/internal/baselib/actor"
	"github.com/theater-rt/theater/internal/theaterid"
)

// ServiceKey is the service key for the message router actor.
var ServiceKey = actor.NewServiceKey[RouterRequest, RouterResponse](
	"message-router",
)

// RouterRequest is the union type for all message router requests, per
// spec §4.6.
type RouterRequest interface {
	actor.Message
	isRouterRequest()
}

func (RegisterRequest) isRouterRequest()       {}
func (UnregisterRequest) isRouterRequest()     {}
func (SendMessageRequest) isRouterRequest()    {}
func (SendRequestRequest) isRouterRequest()    {}
func (OpenChannelRequest) isRouterRequest()    {}
func (ChannelMessageRequest) isRouterRequest() {}
func (ChannelCloseRequest) isRouterRequest()   {}

// RouterResponse is the union type for all message router responses.
type RouterResponse interface {
	isRouterResponse()
}

func (RegisterResponse) isRouterResponse()       {}
func (UnregisterResponse) isRouterResponse()     {}
func (SendMessageResponse) isRouterResponse()    {}
func (SendRequestResponse) isRouterResponse()    {}
func (OpenChannelResponse) isRouterResponse()    {}
func (ChannelMessageResponse) isRouterResponse() {}
func (ChannelCloseResponse) isRouterResponse()   {}

// RegisterRequest registers actorID's mailbox. Duplicate IDs overwrite, to
// support restart.
type RegisterRequest struct {
	actor.BaseMessage

	ActorID theaterid.ActorId
	Mailbox Mailbox
}

func (RegisterRequest) MessageType() string { return "RegisterRequest" }

// RegisterResponse acknowledges a RegisterRequest.
type RegisterResponse struct{}

// UnregisterRequest removes actorID and closes any channels it participates
// in.
type UnregisterRequest struct {
	actor.BaseMessage

	ActorID theaterid.ActorId
}

func (UnregisterRequest) MessageType() string { return "UnregisterRequest" }

// UnregisterResponse acknowledges an UnregisterRequest.
type UnregisterResponse struct{}

// SendMessageRequest delivers a one-way message to target's mailbox.
type SendMessageRequest struct {
	actor.BaseMessage

	From    theaterid.ActorId
	Target  theaterid.ActorId
	Payload []byte
}

func (SendMessageRequest) MessageType() string { return "SendMessageRequest" }

// SendMessageResponse reports whether delivery succeeded.
type SendMessageResponse struct {
	Err error
}

// SendRequestRequest delivers a message to target's mailbox expecting a
// reply, per spec §4.6/scenario S3. Unlike SendMessageRequest, the router
// blocks on target's RequestMessage.Reply before answering the asker.
type SendRequestRequest struct {
	actor.BaseMessage

	From    theaterid.ActorId
	Target  theaterid.ActorId
	Payload []byte
}

func (SendRequestRequest) MessageType() string { return "SendRequestRequest" }

// SendRequestResponse carries target's reply, or the error if delivery or
// the reply wait failed.
type SendRequestResponse struct {
	Data []byte
	Err  error
}

// OpenChannelRequest asks to open a channel between initiator and target.
type OpenChannelRequest struct {
	actor.BaseMessage

	Initiator      theaterid.ActorId
	Target         theaterid.ActorId
	Nonce          string
	InitialMessage []byte
}

func (OpenChannelRequest) MessageType() string { return "OpenChannelRequest" }

// OpenChannelResponse reports the target's accept/reject decision.
type OpenChannelResponse struct {
	ChannelID ChannelId
	Accepted  bool
	Err       error
}

// ChannelMessageRequest delivers payload to the peer of From on channelID.
type ChannelMessageRequest struct {
	actor.BaseMessage

	ChannelID ChannelId
	From      theaterid.ActorId
	Payload   []byte
}

func (ChannelMessageRequest) MessageType() string { return "ChannelMessageRequest" }

// ChannelMessageResponse reports whether delivery succeeded.
type ChannelMessageResponse struct {
	Err error
}

// ChannelCloseRequest closes channelID and notifies the peer of From.
type ChannelCloseRequest struct {
	actor.BaseMessage

	ChannelID ChannelId
	From      theaterid.ActorId
}

func (ChannelCloseRequest) MessageType() string { return "ChannelCloseRequest" }

// ChannelCloseResponse reports whether the close succeeded.
type ChannelCloseResponse struct {
	Err error
}
