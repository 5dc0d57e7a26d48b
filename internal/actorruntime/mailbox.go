package actorruntime

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/theater-rt/theater/internal/execctl"
	"github.com/theater-rt/theater/internal/router"
)

// sendEnvelope/requestEnvelope are the wire shapes handed to the
// handle-send/handle-request exports, per spec §6.
type sendEnvelope struct {
	From string `json:"from"`
	Data []byte `json:"data"`
}

type channelOpenEnvelope struct {
	ChannelID   string `json:"channel_id"`
	Initiator   string `json:"initiator"`
	InitialData []byte `json:"initial_data"`
}

type channelOpenDecision struct {
	Accept bool `json:"accept"`
}

type channelEnvelope struct {
	ChannelID string `json:"channel_id"`
	From      string `json:"from,omitempty"`
	Data      []byte `json:"data,omitempty"`
}

// runMailbox is the router-mailbox task every actor runs (spec §5's "three
// concurrent tasks: executor, controller, router-mailbox"). It drains
// router.ActorMessages delivered to this actor and forwards each to the
// corresponding wasm export, if the actor's component exports one; an
// actor that exports none of these simply never receives deliveries (the
// message is dropped after being read off the mailbox, since the router
// has already returned from its deliver call by the time this runs).
func (rt *Runtime) runMailbox(ctx context.Context) {
	shutdown := rt.shutdown.Subscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case <-shutdown:
			return
		case msg := <-rt.mailbox:
			rt.dispatch(ctx, msg)
		}
	}
}

func (rt *Runtime) dispatch(ctx context.Context, msg router.ActorMessage) {
	switch m := msg.(type) {
	case router.SendMessage:
		rt.callExport(ctx, "handle-send", sendEnvelope{
			From: m.From.String(), Data: m.Data,
		})

	case router.RequestMessage:
		result, err := rt.callExportAwait(ctx, "handle-request", sendEnvelope{
			From: m.From.String(), Data: m.Data,
		})
		m.Reply <- router.RequestReply{Data: result, Err: err}

	case router.ChannelOpenMessage:
		accept := rt.decideChannelOpen(ctx, m)
		m.Accept <- accept

	case router.ChannelMessageMessage:
		rt.callExport(ctx, "handle-channel-message", channelEnvelope{
			ChannelID: string(m.ChannelID), From: m.From.String(), Data: m.Data,
		})

	case router.ChannelCloseMessage:
		rt.callExport(ctx, "handle-channel-close", channelEnvelope{
			ChannelID: string(m.ChannelID),
		})
	}
}

// decideChannelOpen asks the actor's handle-channel-open export whether to
// accept a new channel. An actor with no such export rejects every channel
// open by default — a safe default absent any handler that opts in, and the
// same "refuse rather than guess" posture spec §7 applies to HandlerNotPermitted.
func (rt *Runtime) decideChannelOpen(ctx context.Context, m router.ChannelOpenMessage) bool {
	result, err := rt.callExportAwait(ctx, "handle-channel-open", channelOpenEnvelope{
		ChannelID:   string(m.ChannelID),
		Initiator:   m.Initiator.String(),
		InitialData: m.InitialData,
	})
	if err != nil {
		if !errors.Is(err, execctl.ErrFunctionNotFound) {
			log.Errorf("actor %s: handle-channel-open failed: %v",
				rt.actorID, err)
		}
		return false
	}

	var decision channelOpenDecision
	if err := json.Unmarshal(result, &decision); err != nil {
		log.Errorf("actor %s: decoding handle-channel-open result: %v",
			rt.actorID, err)
		return false
	}

	return decision.Accept
}

// callExport fires op at name without awaiting its result, logging failures
// rather than propagating them: mailbox deliveries are fire-and-forget from
// the router's perspective once accepted (spec §4.6).
func (rt *Runtime) callExport(ctx context.Context, name string, payload any) {
	if _, err := rt.callExportAwait(ctx, name, payload); err != nil && !errors.Is(err, execctl.ErrFunctionNotFound) {
		log.Errorf("actor %s: %s failed: %v", rt.actorID, name, err)
	}
}

func (rt *Runtime) callExportAwait(ctx context.Context, name string, payload any) ([]byte, error) {
	params, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	reply := make(chan execctl.CallFunctionResult, 1)

	if err := rt.exec.Submit(ctx, execctl.CallFunctionOp{
		Name: name, Params: params, Reply: reply,
	}); err != nil {
		return nil, err
	}

	select {
	case res := <-reply:
		return res.Result, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
