package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/theater-rt/theater/internal/theaterid"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	ref := StartRouterActor(ActorConfig{})
	return NewClient(ref)
}

func register(t *testing.T, c *Client, actorID theaterid.ActorId, size int) Mailbox {
	t.Helper()

	mailbox := make(Mailbox, size)

	_, err := c.Register(context.Background(), actorID, mailbox)
	require.NoError(t, err)

	return mailbox
}

func TestSendMessageDeliversToRegisteredMailbox(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx := context.Background()

	sender := theaterid.NewActorId()
	target := theaterid.NewActorId()
	mailbox := register(t, c, target, 4)

	resp, err := c.SendMessage(ctx, sender, target, []byte("hello"))
	require.NoError(t, err)
	require.NoError(t, resp.Err)

	select {
	case msg := <-mailbox:
		send, ok := msg.(SendMessage)
		require.True(t, ok)
		require.Equal(t, []byte("hello"), send.Data)
		require.Equal(t, sender, send.From)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestSendMessageToUnregisteredActorFails(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)

	resp, err := c.SendMessage(
		context.Background(), theaterid.NewActorId(), theaterid.NewActorId(), nil,
	)
	require.NoError(t, err)
	require.ErrorIs(t, resp.Err, ErrNotRegistered)
}

// TestMessageOrderingFromSameSender covers spec §8 property 5: messages
// m1, m2 sent to actor A from the same sender arrive in order m1 then m2.
func TestMessageOrderingFromSameSender(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx := context.Background()

	sender := theaterid.NewActorId()
	target := theaterid.NewActorId()
	mailbox := register(t, c, target, 8)

	for i := 0; i < 5; i++ {
		_, err := c.SendMessage(ctx, sender, target, []byte{byte(i)})
		require.NoError(t, err)
	}

	for i := 0; i < 5; i++ {
		msg := <-mailbox
		send := msg.(SendMessage)
		require.Equal(t, []byte{byte(i)}, send.Data)
	}
}

// TestZeroByteMessageDelivered covers the spec §8 boundary behavior: a
// zero-byte message send is delivered as an empty Send.
func TestZeroByteMessageDelivered(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx := context.Background()

	target := theaterid.NewActorId()
	mailbox := register(t, c, target, 1)

	_, err := c.SendMessage(ctx, theaterid.NewActorId(), target, []byte{})
	require.NoError(t, err)

	msg := <-mailbox
	send := msg.(SendMessage)
	require.Empty(t, send.Data)
}

// replyNextRequest reads the next message off mailbox, requires it is a
// RequestMessage, and answers it with data/err — the shape a real actor's
// handle-request export produces via the router's receive-side dispatch.
func replyNextRequest(mailbox Mailbox, data []byte, err error) {
	msg := <-mailbox
	req := msg.(RequestMessage)
	req.Reply <- RequestReply{Data: data, Err: err}
}

// TestSendRequestRoundTripsReply covers spec scenario S3: SendRequest
// blocks until target replies, and the asker observes target's answer.
func TestSendRequestRoundTripsReply(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx := context.Background()

	sender := theaterid.NewActorId()
	target := theaterid.NewActorId()
	mailbox := register(t, c, target, 1)

	go replyNextRequest(mailbox, []byte("hello"), nil)

	resp, err := c.SendRequest(ctx, sender, target, []byte("hello"))
	require.NoError(t, err)
	require.NoError(t, resp.Err)
	require.Equal(t, []byte("hello"), resp.Data)
}

// TestSendRequestToUnregisteredActorFails mirrors
// TestSendMessageToUnregisteredActorFails for the request/response path.
func TestSendRequestToUnregisteredActorFails(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)

	resp, err := c.SendRequest(
		context.Background(), theaterid.NewActorId(), theaterid.NewActorId(), nil,
	)
	require.NoError(t, err)
	require.ErrorIs(t, resp.Err, ErrNotRegistered)
}

// TestSendRequestPropagatesTargetError covers a target that answers with
// its own application-level error rather than data.
func TestSendRequestPropagatesTargetError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx := context.Background()

	sender := theaterid.NewActorId()
	target := theaterid.NewActorId()
	mailbox := register(t, c, target, 1)

	wantErr := errors.New("handler refused")
	go replyNextRequest(mailbox, nil, wantErr)

	resp, err := c.SendRequest(ctx, sender, target, []byte("x"))
	require.NoError(t, err)
	require.ErrorIs(t, resp.Err, wantErr)
}

func acceptNextChannelOpen(mailbox Mailbox, accept bool) {
	msg := <-mailbox
	open := msg.(ChannelOpenMessage)
	open.Accept <- accept
}

func TestOpenChannelAcceptedRegistersChannel(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx := context.Background()

	initiator := theaterid.NewActorId()
	target := theaterid.NewActorId()
	targetMailbox := register(t, c, target, 1)

	go acceptNextChannelOpen(targetMailbox, true)

	resp, err := c.OpenChannel(ctx, initiator, target, "nonce-1", []byte("hi"))
	require.NoError(t, err)
	require.True(t, resp.Accepted)
	require.NotEmpty(t, resp.ChannelID)
}

// TestOpenChannelRejectedDoesNotRegister covers the spec §8 boundary
// behavior: a rejected channel open leaves the initiator seeing
// accepted=false and registers no channel.
func TestOpenChannelRejectedDoesNotRegister(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx := context.Background()

	initiator := theaterid.NewActorId()
	target := theaterid.NewActorId()
	targetMailbox := register(t, c, target, 1)

	go acceptNextChannelOpen(targetMailbox, false)

	resp, err := c.OpenChannel(ctx, initiator, target, "nonce-2", nil)
	require.NoError(t, err)
	require.False(t, resp.Accepted)

	// The channel must not be usable afterward.
	msgResp, err := c.ChannelMessage(ctx, resp.ChannelID, initiator, []byte("x"))
	require.NoError(t, err)
	require.ErrorIs(t, msgResp.Err, ErrChannelNotOpen)
}

func TestChannelMessageRoutesToPeer(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx := context.Background()

	initiator := theaterid.NewActorId()
	target := theaterid.NewActorId()
	initiatorMailbox := register(t, c, initiator, 2)
	targetMailbox := register(t, c, target, 2)

	go acceptNextChannelOpen(targetMailbox, true)

	openResp, err := c.OpenChannel(ctx, initiator, target, "nonce-3", nil)
	require.NoError(t, err)
	require.True(t, openResp.Accepted)

	_, err = c.ChannelMessage(ctx, openResp.ChannelID, initiator, []byte("ping"))
	require.NoError(t, err)

	msg := <-targetMailbox
	cm := msg.(ChannelMessageMessage)
	require.Equal(t, []byte("ping"), cm.Data)
	require.Equal(t, initiator, cm.From)

	_, err = c.ChannelMessage(ctx, openResp.ChannelID, target, []byte("pong"))
	require.NoError(t, err)

	msg = <-initiatorMailbox
	cm = msg.(ChannelMessageMessage)
	require.Equal(t, []byte("pong"), cm.Data)
}

func TestChannelCloseNotifiesPeerAndRemovesChannel(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx := context.Background()

	initiator := theaterid.NewActorId()
	target := theaterid.NewActorId()
	targetMailbox := register(t, c, target, 2)

	go acceptNextChannelOpen(targetMailbox, true)

	openResp, err := c.OpenChannel(ctx, initiator, target, "nonce-4", nil)
	require.NoError(t, err)

	_, err = c.ChannelClose(ctx, openResp.ChannelID, initiator)
	require.NoError(t, err)

	msg := <-targetMailbox
	_, ok := msg.(ChannelCloseMessage)
	require.True(t, ok)

	msgResp, err := c.ChannelMessage(ctx, openResp.ChannelID, initiator, []byte("x"))
	require.NoError(t, err)
	require.ErrorIs(t, msgResp.Err, ErrChannelNotOpen)
}

func TestUnregisterClosesParticipatingChannels(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx := context.Background()

	initiator := theaterid.NewActorId()
	target := theaterid.NewActorId()
	targetMailbox := register(t, c, target, 2)

	go acceptNextChannelOpen(targetMailbox, true)

	openResp, err := c.OpenChannel(ctx, initiator, target, "nonce-5", nil)
	require.NoError(t, err)

	_, err = c.Unregister(ctx, initiator)
	require.NoError(t, err)

	msg := <-targetMailbox
	_, ok := msg.(ChannelCloseMessage)
	require.True(t, ok)

	sendResp, err := c.SendMessage(ctx, target, initiator, []byte("x"))
	require.NoError(t, err)
	require.ErrorIs(t, sendResp.Err, ErrNotRegistered)

	_ = openResp
}

func TestChannelIdIsOrderIndependent(t *testing.T) {
	t.Parallel()

	a := theaterid.NewActorId()
	b := theaterid.NewActorId()

	require.Equal(t, NewChannelId(a, b, "n"), NewChannelId(b, a, "n"))
	require.NotEqual(t, NewChannelId(a, b, "n1"), NewChannelId(a, b, "n2"))
}
