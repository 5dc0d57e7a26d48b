package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/theater-rt/theater/internal/actorstore"
	"github.com/theater-rt/theater/internal/router"
	"github.com/theater-rt/theater/internal/theaterid"
)

// MessagingEvent is the composed event payload recorded for every
// "theater:messaging/messaging" call, mirroring RandomEvent's one-struct-
// per-interface shape (spec §4.4: "handler events include ALL data").
type MessagingEvent struct {
	kind string

	Call   *MessagingCall   `json:"call,omitempty"`
	Result *MessagingResult `json:"result,omitempty"`
}

// EventType implements actorstore.EventEnvelope.
func (e MessagingEvent) EventType() string { return e.kind }

// Serialize implements actorstore.EventEnvelope.
func (e MessagingEvent) Serialize() ([]byte, error) {
	return json.Marshal(e)
}

// MessagingCall records the arguments a messaging operation was invoked
// with.
type MessagingCall struct {
	Target    string `json:"target,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
	Payload   []byte `json:"payload,omitempty"`
}

// MessagingResult records a messaging operation's outcome.
type MessagingResult struct {
	Err       string `json:"err,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
	Accepted  bool   `json:"accepted,omitempty"`
	Data      []byte `json:"data,omitempty"`
}

// MessagingHandler implements "theater:messaging/messaging": the actor-to-
// actor messaging host-function interface described in spec §4.6 (send,
// request/response, and channels), installed so wasm guests can originate
// traffic through the MessageRouter rather than only receive it. The
// receive side (handle-send/handle-request/handle-channel-* exports) is
// already wired directly by internal/actorruntime's mailbox dispatch; this
// handler is the corresponding outbound path.
type MessagingHandler struct {
	Router *router.Client
}

// Name implements Handler.
func (h *MessagingHandler) Name() string { return "messaging" }

// Imports implements Handler.
func (h *MessagingHandler) Imports() (string, bool) {
	return "theater:messaging/messaging@0.1.0", true
}

// Exports implements Handler.
func (h *MessagingHandler) Exports() (string, bool) { return "", false }

// CreateInstance implements Handler. The router client is a connection to
// the shared router actor, safe for concurrent use across every actor's
// instance, so it is simply shared rather than recreated.
func (h *MessagingHandler) CreateInstance() Handler {
	return &MessagingHandler{Router: h.Router}
}

// Start implements Handler; this handler has no background task.
func (h *MessagingHandler) Start(ctx context.Context, _ ActorHandle, shutdown <-chan struct{}) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-shutdown:
		return nil
	}
}

// AddExportFunctions implements Handler; this handler requires no exports.
func (h *MessagingHandler) AddExportFunctions(ActorInstance) error { return nil }

// SetupHostFunctions installs send/request/open-channel/channel-message/
// channel-close, each chain-recorded per spec §4.4's "every handler call
// records ALL data" requirement.
func (h *MessagingHandler) SetupHostFunctions(component ActorComponent) error {
	actorHandle := component.Handle()

	fns := map[string]HostFunction{
		"send": func(ctx context.Context, params []byte) ([]byte, error) {
			return h.send(ctx, actorHandle, params)
		},
		"request": func(ctx context.Context, params []byte) ([]byte, error) {
			return h.request(ctx, actorHandle, params)
		},
		"open-channel": func(ctx context.Context, params []byte) ([]byte, error) {
			return h.openChannel(ctx, actorHandle, params)
		},
		"channel-message": func(ctx context.Context, params []byte) ([]byte, error) {
			return h.channelMessage(ctx, actorHandle, params)
		},
		"channel-close": func(ctx context.Context, params []byte) ([]byte, error) {
			return h.channelClose(ctx, actorHandle, params)
		},
	}

	for name, fn := range fns {
		if err := component.LinkHostFunction(
			"theater:messaging/messaging", name, fn,
		); err != nil {
			return fmt.Errorf("linking messaging.%s: %w", name, err)
		}
	}

	return nil
}

func (h *MessagingHandler) send(ctx context.Context, actorHandle ActorHandle, params []byte) ([]byte, error) {
	var req struct {
		Target  string `json:"target"`
		Payload []byte `json:"payload"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("decoding messaging.send params: %w", err)
	}

	target, err := theaterid.ParseActorId(req.Target)
	if err != nil {
		return nil, fmt.Errorf("messaging.send: %w", err)
	}

	h.recordCall("theater:messaging/messaging/send", actorHandle, req.Target, "", req.Payload)

	resp, err := h.Router.SendMessage(ctx, actorHandle.ActorID(), target, req.Payload)

	resultErr := err
	if resultErr == nil {
		resultErr = resp.Err
	}
	h.recordResult("theater:messaging/messaging/send", actorHandle, errString(resultErr), "", false, nil)

	if err != nil {
		return nil, err
	}
	if resp.Err != nil {
		return nil, resp.Err
	}

	return json.Marshal(struct{}{})
}

func (h *MessagingHandler) request(ctx context.Context, actorHandle ActorHandle, params []byte) ([]byte, error) {
	var req struct {
		Target  string `json:"target"`
		Payload []byte `json:"payload"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("decoding messaging.request params: %w", err)
	}

	target, err := theaterid.ParseActorId(req.Target)
	if err != nil {
		return nil, fmt.Errorf("messaging.request: %w", err)
	}

	h.recordCall("theater:messaging/messaging/request", actorHandle, req.Target, "", req.Payload)

	resp, err := h.Router.SendRequest(ctx, actorHandle.ActorID(), target, req.Payload)

	resultErr := err
	if resultErr == nil {
		resultErr = resp.Err
	}
	h.recordResult("theater:messaging/messaging/request", actorHandle, errString(resultErr), "", false, resp.Data)

	if err != nil {
		return nil, err
	}
	if resp.Err != nil {
		return nil, resp.Err
	}

	return json.Marshal(struct {
		Data []byte `json:"data"`
	}{Data: resp.Data})
}

func (h *MessagingHandler) openChannel(ctx context.Context, actorHandle ActorHandle, params []byte) ([]byte, error) {
	var req struct {
		Target         string `json:"target"`
		Nonce          string `json:"nonce"`
		InitialMessage []byte `json:"initial_message"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("decoding messaging.open-channel params: %w", err)
	}

	target, err := theaterid.ParseActorId(req.Target)
	if err != nil {
		return nil, fmt.Errorf("messaging.open-channel: %w", err)
	}

	h.recordCall("theater:messaging/messaging/open-channel", actorHandle, req.Target, "", req.InitialMessage)

	resp, err := h.Router.OpenChannel(
		ctx, actorHandle.ActorID(), target, req.Nonce, req.InitialMessage,
	)

	resultErr := err
	if resultErr == nil {
		resultErr = resp.Err
	}
	h.recordResult(
		"theater:messaging/messaging/open-channel", actorHandle,
		errString(resultErr), string(resp.ChannelID), resp.Accepted, nil,
	)

	if err != nil {
		return nil, err
	}
	if resp.Err != nil {
		return nil, resp.Err
	}

	return json.Marshal(struct {
		ChannelID string `json:"channel_id"`
		Accepted  bool   `json:"accepted"`
	}{ChannelID: string(resp.ChannelID), Accepted: resp.Accepted})
}

func (h *MessagingHandler) channelMessage(ctx context.Context, actorHandle ActorHandle, params []byte) ([]byte, error) {
	var req struct {
		ChannelID string `json:"channel_id"`
		Payload   []byte `json:"payload"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("decoding messaging.channel-message params: %w", err)
	}

	h.recordCall("theater:messaging/messaging/channel-message", actorHandle, "", req.ChannelID, req.Payload)

	resp, err := h.Router.ChannelMessage(
		ctx, router.ChannelId(req.ChannelID), actorHandle.ActorID(), req.Payload,
	)

	resultErr := err
	if resultErr == nil {
		resultErr = resp.Err
	}
	h.recordResult("theater:messaging/messaging/channel-message", actorHandle, errString(resultErr), req.ChannelID, false, nil)

	if err != nil {
		return nil, err
	}
	if resp.Err != nil {
		return nil, resp.Err
	}

	return json.Marshal(struct{}{})
}

func (h *MessagingHandler) channelClose(ctx context.Context, actorHandle ActorHandle, params []byte) ([]byte, error) {
	var req struct {
		ChannelID string `json:"channel_id"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("decoding messaging.channel-close params: %w", err)
	}

	h.recordCall("theater:messaging/messaging/channel-close", actorHandle, "", req.ChannelID, nil)

	resp, err := h.Router.ChannelClose(ctx, router.ChannelId(req.ChannelID), actorHandle.ActorID())

	resultErr := err
	if resultErr == nil {
		resultErr = resp.Err
	}
	h.recordResult("theater:messaging/messaging/channel-close", actorHandle, errString(resultErr), req.ChannelID, false, nil)

	if err != nil {
		return nil, err
	}
	if resp.Err != nil {
		return nil, resp.Err
	}

	return json.Marshal(struct{}{})
}

func (h *MessagingHandler) recordCall(
	kind string, actorHandle ActorHandle, target, channelID string, payload []byte,
) {
	_, _ = actorstore.RecordHandlerEvent(
		actorHandle.Store(),
		func(e MessagingEvent) MessagingEvent { return e },
		MessagingEvent{
			kind: kind,
			Call: &MessagingCall{Target: target, ChannelID: channelID, Payload: payload},
		},
		nil,
	)
}

func (h *MessagingHandler) recordResult(
	kind string, actorHandle ActorHandle, errText, channelID string, accepted bool, data []byte,
) {
	_, _ = actorstore.RecordHandlerEvent(
		actorHandle.Store(),
		func(e MessagingEvent) MessagingEvent { return e },
		MessagingEvent{
			kind: kind,
			Result: &MessagingResult{
				Err: errText, ChannelID: channelID, Accepted: accepted, Data: data,
			},
		},
		nil,
	)
}

var _ Handler = (*MessagingHandler)(nil)
