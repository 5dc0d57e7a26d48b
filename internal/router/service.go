package router

import (
	"context"
	"fmt"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/theater-rt/theater/internal/theaterid"
)

// Service is the message router actor behavior. Routing every command
// through a single actor linearizes the actor/channel maps without an
// internal lock, per spec §9's "global mutable registry → message-passing
// service" pattern.
type Service struct {
	actors   map[theaterid.ActorId]Mailbox
	channels map[ChannelId]Channel
}

// NewService creates an empty message router service.
func NewService() *Service {
	return &Service{
		actors:   make(map[theaterid.ActorId]Mailbox),
		channels: make(map[ChannelId]Channel),
	}
}

// Receive implements actor.ActorBehavior by dispatching to type-specific
// handlers.
func (s *Service) Receive(ctx context.Context,
	msg RouterRequest) fn.Result[RouterResponse] {

	switch m := msg.(type) {
	case RegisterRequest:
		return fn.Ok[RouterResponse](s.handleRegister(m))

	case UnregisterRequest:
		return fn.Ok[RouterResponse](s.handleUnregister(ctx, m))

	case SendMessageRequest:
		return fn.Ok[RouterResponse](s.handleSendMessage(ctx, m))

	case SendRequestRequest:
		return fn.Ok[RouterResponse](s.handleSendRequest(ctx, m))

	case OpenChannelRequest:
		return fn.Ok[RouterResponse](s.handleOpenChannel(ctx, m))

	case ChannelMessageRequest:
		return fn.Ok[RouterResponse](s.handleChannelMessage(ctx, m))

	case ChannelCloseRequest:
		return fn.Ok[RouterResponse](s.handleChannelClose(ctx, m))

	default:
		return fn.Err[RouterResponse](fmt.Errorf(
			"unknown message type: %T", msg,
		))
	}
}

func (s *Service) handleRegister(req RegisterRequest) RegisterResponse {
	if _, exists := s.actors[req.ActorID]; exists {
		log.Infof("actor %s re-registered, replacing mailbox", req.ActorID)
	}

	s.actors[req.ActorID] = req.Mailbox

	return RegisterResponse{}
}

func (s *Service) handleUnregister(ctx context.Context, req UnregisterRequest) UnregisterResponse {
	delete(s.actors, req.ActorID)

	for id, ch := range s.channels {
		peer, ok := ch.peerOf(req.ActorID)
		if !ok || ch.Status == ChannelClosed {
			continue
		}

		delete(s.channels, id)

		if peerMailbox, ok := s.actors[peer]; ok {
			s.deliver(ctx, peerMailbox, ChannelCloseMessage{ChannelID: id})
		}
	}

	return UnregisterResponse{}
}

func (s *Service) handleSendMessage(ctx context.Context, req SendMessageRequest) SendMessageResponse {
	mailbox, ok := s.actors[req.Target]
	if !ok {
		return SendMessageResponse{Err: ErrNotRegistered}
	}

	if err := s.deliver(ctx, mailbox, SendMessage{From: req.From, Data: req.Payload}); err != nil {
		return SendMessageResponse{Err: err}
	}

	return SendMessageResponse{}
}

// handleSendRequest delivers req as a RequestMessage and waits for the
// target's reply on the oneshot Reply channel, per spec scenario S3. Unlike
// handleSendMessage, the router itself blocks here rather than returning as
// soon as the message is enqueued — the asker is waiting for target's
// answer, not just delivery.
func (s *Service) handleSendRequest(ctx context.Context, req SendRequestRequest) SendRequestResponse {
	mailbox, ok := s.actors[req.Target]
	if !ok {
		return SendRequestResponse{Err: ErrNotRegistered}
	}

	reply := make(chan RequestReply, 1)

	if err := s.deliver(ctx, mailbox, RequestMessage{
		From: req.From, Data: req.Payload, Reply: reply,
	}); err != nil {
		return SendRequestResponse{Err: err}
	}

	select {
	case r := <-reply:
		return SendRequestResponse{Data: r.Data, Err: r.Err}
	case <-ctx.Done():
		return SendRequestResponse{Err: ctx.Err()}
	}
}

func (s *Service) handleOpenChannel(ctx context.Context, req OpenChannelRequest) OpenChannelResponse {
	mailbox, ok := s.actors[req.Target]
	if !ok {
		return OpenChannelResponse{Err: ErrNotRegistered}
	}

	channelID := NewChannelId(req.Initiator, req.Target, req.Nonce)

	accept := make(chan bool, 1)

	if err := s.deliver(ctx, mailbox, ChannelOpenMessage{
		ChannelID:   channelID,
		Initiator:   req.Initiator,
		InitialData: req.InitialMessage,
		Accept:      accept,
	}); err != nil {
		return OpenChannelResponse{ChannelID: channelID, Err: err}
	}

	select {
	case accepted := <-accept:
		if !accepted {
			return OpenChannelResponse{ChannelID: channelID, Accepted: false}
		}

		s.channels[channelID] = Channel{
			ChannelID:    channelID,
			ParticipantA: req.Initiator,
			ParticipantB: req.Target,
			Status:       ChannelOpen,
		}

		return OpenChannelResponse{ChannelID: channelID, Accepted: true}

	case <-ctx.Done():
		return OpenChannelResponse{ChannelID: channelID, Err: ctx.Err()}
	}
}

func (s *Service) handleChannelMessage(ctx context.Context, req ChannelMessageRequest) ChannelMessageResponse {
	ch, ok := s.channels[req.ChannelID]
	if !ok || ch.Status != ChannelOpen {
		return ChannelMessageResponse{Err: ErrChannelNotOpen}
	}

	peer, ok := ch.peerOf(req.From)
	if !ok {
		return ChannelMessageResponse{Err: ErrChannelNotOpen}
	}

	mailbox, ok := s.actors[peer]
	if !ok {
		return ChannelMessageResponse{Err: ErrNotRegistered}
	}

	err := s.deliver(ctx, mailbox, ChannelMessageMessage{
		ChannelID: req.ChannelID,
		From:      req.From,
		Data:      req.Payload,
	})

	return ChannelMessageResponse{Err: err}
}

func (s *Service) handleChannelClose(ctx context.Context, req ChannelCloseRequest) ChannelCloseResponse {
	ch, ok := s.channels[req.ChannelID]
	if !ok {
		return ChannelCloseResponse{Err: ErrChannelNotOpen}
	}

	delete(s.channels, req.ChannelID)

	peer, ok := ch.peerOf(req.From)
	if !ok {
		return ChannelCloseResponse{}
	}

	if mailbox, ok := s.actors[peer]; ok {
		s.deliver(ctx, mailbox, ChannelCloseMessage{ChannelID: req.ChannelID})
	}

	return ChannelCloseResponse{}
}

// deliver sends msg to mailbox, awaiting capacity per spec §4.6's
// backpressure rule but yielding to ctx cancellation rather than blocking
// forever.
func (s *Service) deliver(ctx context.Context, mailbox Mailbox, msg ActorMessage) error {
	select {
	case mailbox <- msg:
		return nil
	case <-ctx.Done():
		return ErrMailboxFull
	}
}
