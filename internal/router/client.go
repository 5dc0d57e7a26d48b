package router

import (
	"context"

	"github.com/theater-rt/theater/internal/actorutil"
	"github.com/theater-rt/theater/internal/theaterid"
)

// Client provides actor-based message router operations. It wraps a router
// actor reference and provides type-safe methods for each operation in
// spec §4.6.
type Client struct {
	ref ActorRef
}

// NewClient creates a new router client wrapping the given actor reference.
func NewClient(ref ActorRef) *Client {
	return &Client{ref: ref}
}

// Register registers actorID's mailbox with the router.
func (c *Client) Register(
	ctx context.Context, actorID theaterid.ActorId, mailbox Mailbox,
) (RegisterResponse, error) {
	return actorutil.AskAwaitTyped[
		RouterRequest, RouterResponse, RegisterResponse,
	](ctx, c.ref, RegisterRequest{ActorID: actorID, Mailbox: mailbox})
}

// Unregister removes actorID from the router.
func (c *Client) Unregister(
	ctx context.Context, actorID theaterid.ActorId,
) (UnregisterResponse, error) {
	return actorutil.AskAwaitTyped[
		RouterRequest, RouterResponse, UnregisterResponse,
	](ctx, c.ref, UnregisterRequest{ActorID: actorID})
}

// SendMessage delivers a one-way message from `from` to `target`.
func (c *Client) SendMessage(
	ctx context.Context, from, target theaterid.ActorId, payload []byte,
) (SendMessageResponse, error) {
	return actorutil.AskAwaitTyped[
		RouterRequest, RouterResponse, SendMessageResponse,
	](ctx, c.ref, SendMessageRequest{From: from, Target: target, Payload: payload})
}

// SendRequest delivers payload from `from` to `target` and blocks until
// target replies (or ctx is cancelled), per spec §4.6/scenario S3's
// request/response primitive.
func (c *Client) SendRequest(
	ctx context.Context, from, target theaterid.ActorId, payload []byte,
) (SendRequestResponse, error) {
	return actorutil.AskAwaitTyped[
		RouterRequest, RouterResponse, SendRequestResponse,
	](ctx, c.ref, SendRequestRequest{From: from, Target: target, Payload: payload})
}

// OpenChannel asks target to accept a new channel from initiator.
func (c *Client) OpenChannel(
	ctx context.Context, initiator, target theaterid.ActorId, nonce string,
	initialMessage []byte,
) (OpenChannelResponse, error) {
	return actorutil.AskAwaitTyped[
		RouterRequest, RouterResponse, OpenChannelResponse,
	](ctx, c.ref, OpenChannelRequest{
		Initiator:      initiator,
		Target:         target,
		Nonce:          nonce,
		InitialMessage: initialMessage,
	})
}

// ChannelMessage delivers payload to the peer of `from` on channelID.
func (c *Client) ChannelMessage(
	ctx context.Context, channelID ChannelId, from theaterid.ActorId, payload []byte,
) (ChannelMessageResponse, error) {
	return actorutil.AskAwaitTyped[
		RouterRequest, RouterResponse, ChannelMessageResponse,
	](ctx, c.ref, ChannelMessageRequest{
		ChannelID: channelID,
		From:      from,
		Payload:   payload,
	})
}

// ChannelClose closes channelID and notifies the peer of `from`.
func (c *Client) ChannelClose(
	ctx context.Context, channelID ChannelId, from theaterid.ActorId,
) (ChannelCloseResponse, error) {
	return actorutil.AskAwaitTyped[
		RouterRequest, RouterResponse, ChannelCloseResponse,
	](ctx, c.ref, ChannelCloseRequest{ChannelID: channelID, From: from})
}
