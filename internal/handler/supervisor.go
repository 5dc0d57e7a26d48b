package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/theater-rt/theater/internal/actorstore"
	"github.com/theater-rt/theater/internal/theaterid"
)

// SupervisorEvent is the composed event payload recorded for every
// "theater:supervisor/supervisor" call, mirroring RandomEvent's one-struct-
// per-interface shape (spec §4.4: "handler events include ALL data").
type SupervisorEvent struct {
	kind string

	Call   *SupervisorCall   `json:"call,omitempty"`
	Result *SupervisorResult `json:"result,omitempty"`
}

// EventType implements actorstore.EventEnvelope.
func (e SupervisorEvent) EventType() string { return e.kind }

// Serialize implements actorstore.EventEnvelope.
func (e SupervisorEvent) Serialize() ([]byte, error) {
	return json.Marshal(e)
}

// SupervisorCall records the child id an operation was issued against, if
// any (list has none).
type SupervisorCall struct {
	ChildID string `json:"child_id,omitempty"`
}

// SupervisorResult records the outcome: Err is the stringified error on
// failure, Children/State/Events carry the successful payload for the
// operations that return one.
type SupervisorResult struct {
	Err      string               `json:"err,omitempty"`
	ChildID  string               `json:"child_id,omitempty"`
	Children []supervisorChildDTO `json:"children,omitempty"`
	State    []byte               `json:"state,omitempty"`
	Events   int                  `json:"event_count,omitempty"`
}

// supervisorChildDTO is the wasm-facing wire shape of a theater.ActorSummary:
// plain strings, no dependency on the theater package. ParentID is always
// the caller's own id here (this listing is already scoped to one parent's
// children), so it is left for a future cross-tree listing rather than
// decoded from ActorSummary's fn.Option field.
type supervisorChildDTO struct {
	ActorID      string `json:"actor_id"`
	ParentID     string `json:"parent_id,omitempty"`
	ManifestName string `json:"manifest_name"`
	Status       string `json:"status"`
}

// SupervisorHandler implements "theater:supervisor/supervisor": the parent
// actor's supervision host-function interface described in spec §4.9 and
// named as a supplemented feature in SPEC_FULL.md §12. It never imports
// internal/theater directly — doing so would close an import cycle
// (theater -> actorruntime -> handler) — and instead speaks actorstore's
// DTO command vocabulary (actorstore/commands.go) through
// actorstore.Store.TheaterCommand, exactly like any other handler reaches
// the actor's mutable scratchpad.
//
// Spawning a child from inside wasm is deliberately not exposed here: a
// manifest is parsed once, ahead of time, into actorruntime.Manifest (spec
// §6's "the core only ever sees this parsed value") by the CLI or daemon
// startup path, and nothing in the corpus establishes a convention for
// marshaling that parsed form across the wasm ABI boundary. Native Go
// callers (CLI, restart recovery) reach spawn through theater.SupervisorOps
// directly instead.
type SupervisorHandler struct{}

// Name implements Handler.
func (h *SupervisorHandler) Name() string { return "supervisor" }

// Imports implements Handler.
func (h *SupervisorHandler) Imports() (string, bool) {
	return "theater:supervisor/supervisor@0.1.0", true
}

// Exports implements Handler.
func (h *SupervisorHandler) Exports() (string, bool) { return "", false }

// CreateInstance implements Handler. SupervisorHandler holds no shared
// state, so a fresh zero value is returned per actor.
func (h *SupervisorHandler) CreateInstance() Handler {
	return &SupervisorHandler{}
}

// Start implements Handler; this handler has no background task.
func (h *SupervisorHandler) Start(ctx context.Context, _ ActorHandle, shutdown <-chan struct{}) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-shutdown:
		return nil
	}
}

// AddExportFunctions implements Handler; this handler requires no exports.
func (h *SupervisorHandler) AddExportFunctions(ActorInstance) error { return nil }

// SetupHostFunctions installs list/stop/restart/get-state/get-events plus
// report-self-failed, per spec §4.9.
func (h *SupervisorHandler) SetupHostFunctions(component ActorComponent) error {
	actorHandle := component.Handle()

	fns := map[string]HostFunction{
		"list": func(ctx context.Context, params []byte) ([]byte, error) {
			return h.list(ctx, actorHandle)
		},
		"stop": func(ctx context.Context, params []byte) ([]byte, error) {
			return h.withChildID(ctx, actorHandle, params, "stop",
				func(ctx context.Context, id theaterid.ActorId) (any, error) {
					return actorHandle.Store().TheaterCommand(
						ctx, actorstore.SupervisorStopCmd{ChildID: id},
					)
				},
			)
		},
		"restart": func(ctx context.Context, params []byte) ([]byte, error) {
			return h.withChildID(ctx, actorHandle, params, "restart",
				func(ctx context.Context, id theaterid.ActorId) (any, error) {
					return actorHandle.Store().TheaterCommand(
						ctx, actorstore.SupervisorRestartCmd{ChildID: id},
					)
				},
			)
		},
		"get-state": func(ctx context.Context, params []byte) ([]byte, error) {
			return h.withChildID(ctx, actorHandle, params, "get-state",
				func(ctx context.Context, id theaterid.ActorId) (any, error) {
					return actorHandle.Store().TheaterCommand(
						ctx, actorstore.SupervisorGetChildStateCmd{ChildID: id},
					)
				},
			)
		},
		"get-events": func(ctx context.Context, params []byte) ([]byte, error) {
			return h.withChildID(ctx, actorHandle, params, "get-events",
				func(ctx context.Context, id theaterid.ActorId) (any, error) {
					return actorHandle.Store().TheaterCommand(
						ctx, actorstore.SupervisorGetChildEventsCmd{ChildID: id},
					)
				},
			)
		},
		"report-self-failed": func(ctx context.Context, params []byte) ([]byte, error) {
			return h.reportSelfFailed(ctx, actorHandle, params)
		},
	}

	for name, fn := range fns {
		if err := component.LinkHostFunction(
			"theater:supervisor/supervisor", name, fn,
		); err != nil {
			return fmt.Errorf("linking supervisor.%s: %w", name, err)
		}
	}

	return nil
}

func (h *SupervisorHandler) list(ctx context.Context, actorHandle ActorHandle) ([]byte, error) {
	_, _ = actorstore.RecordHandlerEvent(
		actorHandle.Store(),
		func(e SupervisorEvent) SupervisorEvent { return e },
		SupervisorEvent{kind: "theater:supervisor/supervisor/list", Call: &SupervisorCall{}},
		nil,
	)

	result, err := actorHandle.Store().TheaterCommand(
		ctx, actorstore.SupervisorListChildrenCmd{},
	)

	children, errText := toChildDTOs(result), errString(err)

	_, _ = actorstore.RecordHandlerEvent(
		actorHandle.Store(),
		func(e SupervisorEvent) SupervisorEvent { return e },
		SupervisorEvent{
			kind:   "theater:supervisor/supervisor/list",
			Result: &SupervisorResult{Children: children, Err: errText},
		},
		nil,
	)

	if err != nil {
		return nil, err
	}

	return json.Marshal(struct {
		Children []supervisorChildDTO `json:"children"`
	}{Children: children})
}

// withChildID decodes a {"child_id": "..."} parameter, dispatches op, and
// records the call/result event pair, per spec §4.4's "every handler call
// records ALL data" requirement.
func (h *SupervisorHandler) withChildID(
	ctx context.Context, actorHandle ActorHandle, params []byte, op string,
	dispatch func(context.Context, theaterid.ActorId) (any, error),
) ([]byte, error) {

	var req struct {
		ChildID string `json:"child_id"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("decoding supervisor.%s params: %w", op, err)
	}

	childID, err := theaterid.ParseActorId(req.ChildID)
	if err != nil {
		return nil, fmt.Errorf("supervisor.%s: %w", op, err)
	}

	eventKind := "theater:supervisor/supervisor/" + op

	_, _ = actorstore.RecordHandlerEvent(
		actorHandle.Store(),
		func(e SupervisorEvent) SupervisorEvent { return e },
		SupervisorEvent{kind: eventKind, Call: &SupervisorCall{ChildID: req.ChildID}},
		nil,
	)

	result, dispatchErr := dispatch(ctx, childID)

	res := &SupervisorResult{ChildID: req.ChildID, Err: errString(dispatchErr)}

	var restartedID string

	switch v := result.(type) {
	case []byte:
		res.State = v
	case theaterid.ActorId:
		restartedID = v.String()
	default:
		if n, ok := asEventCount(result); ok {
			res.Events = n
		}
	}

	_, _ = actorstore.RecordHandlerEvent(
		actorHandle.Store(),
		func(e SupervisorEvent) SupervisorEvent { return e },
		SupervisorEvent{kind: eventKind, Result: res},
		nil,
	)

	if dispatchErr != nil {
		return nil, dispatchErr
	}

	replyID := req.ChildID
	if restartedID != "" {
		replyID = restartedID
	}

	return json.Marshal(struct {
		ActorID string `json:"actor_id,omitempty"`
		State   []byte `json:"state,omitempty"`
	}{ActorID: replyID, State: res.State})
}

func (h *SupervisorHandler) reportSelfFailed(
	ctx context.Context, actorHandle ActorHandle, params []byte,
) ([]byte, error) {

	var req struct {
		ErrorKind string `json:"error_kind"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("decoding supervisor.report-self-failed params: %w", err)
	}

	_, err := actorHandle.Store().TheaterCommand(
		ctx, actorstore.SupervisorReportSelfFailedCmd{
			ErrorKind: req.ErrorKind,
			Message:   req.Message,
		},
	)

	_, _ = actorstore.RecordHandlerEvent(
		actorHandle.Store(),
		func(e SupervisorEvent) SupervisorEvent { return e },
		SupervisorEvent{
			kind:   "theater:supervisor/supervisor/report-self-failed",
			Result: &SupervisorResult{Err: errString(err)},
		},
		nil,
	)

	return json.Marshal(struct{ Ok bool }{Ok: err == nil})
}

// toChildDTOs adapts the []theater.ActorSummary a SupervisorListChildrenCmd
// dispatch returns (seen here only as `any`, to avoid importing theater)
// into the wasm-facing DTO shape via a JSON round-trip, the same defensive
// decoupling trick actorstore/commands.go documents.
func toChildDTOs(result any) []supervisorChildDTO {
	if result == nil {
		return nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil
	}

	var rows []struct {
		ActorID      theaterid.ActorId `json:"ActorID"`
		ManifestName string            `json:"ManifestName"`
		Status       string            `json:"Status"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil
	}

	out := make([]supervisorChildDTO, 0, len(rows))
	for _, c := range rows {
		out = append(out, supervisorChildDTO{
			ActorID:      c.ActorID.String(),
			ManifestName: c.ManifestName,
			Status:       c.Status,
		})
	}

	return out
}

// asEventCount reports the number of chain events in result, if result is a
// []chain.ChainEvent-shaped value (seen only as `any`, to avoid importing
// chain for what is otherwise just a length check).
func asEventCount(result any) (int, bool) {
	if result == nil {
		return 0, false
	}

	data, err := json.Marshal(result)
	if err != nil {
		return 0, false
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, false
	}

	return len(rows), true
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

var _ Handler = (*SupervisorHandler)(nil)
