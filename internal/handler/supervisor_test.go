package handler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/theater-rt/theater/internal/actorstore"
	"github.com/theater-rt/theater/internal/chain"
	"github.com/theater-rt/theater/internal/permission"
	"github.com/theater-rt/theater/internal/theaterid"
)

// fakeCommandSender stands in for theater.commandSender, letting these
// tests drive SupervisorHandler's host functions without spinning up a
// real TheaterRuntime actor.
type fakeCommandSender struct {
	lastCmd any

	listResult  []fakeActorSummary
	stateResult []byte
	eventsCount int
	restartID   theaterid.ActorId
	err         error
}

// fakeActorSummary mirrors theater.ActorSummary's JSON shape well enough
// for toChildDTOs's round-trip decode to exercise correctly.
type fakeActorSummary struct {
	ActorID      theaterid.ActorId
	ManifestName string
	Status       string
}

func (f *fakeCommandSender) Send(ctx context.Context, cmd any) (any, error) {
	f.lastCmd = cmd

	if f.err != nil {
		return nil, f.err
	}

	switch cmd.(type) {
	case actorstore.SupervisorListChildrenCmd:
		return f.listResult, nil
	case actorstore.SupervisorGetChildStateCmd:
		return f.stateResult, nil
	case actorstore.SupervisorGetChildEventsCmd:
		events := make([]chain.ChainEvent, f.eventsCount)
		return events, nil
	case actorstore.SupervisorRestartCmd:
		return f.restartID, nil
	case actorstore.SupervisorStopCmd:
		return nil, nil
	case actorstore.SupervisorReportSelfFailedCmd:
		return nil, nil
	default:
		return nil, nil
	}
}

func newFakeHandleWithSender(
	t *testing.T, sender actorstore.CommandSender,
) *fakeActorHandle {
	t.Helper()

	actorID := theaterid.NewActorId()
	return &fakeActorHandle{
		actorID: actorID,
		store:   actorstore.New(actorID, chain.New(actorID), sender),
		perms:   permission.None(),
	}
}

func TestSupervisorListChildren(t *testing.T) {
	t.Parallel()

	childID := theaterid.NewActorId()
	sender := &fakeCommandSender{
		listResult: []fakeActorSummary{
			{ActorID: childID, ManifestName: "worker", Status: "running"},
		},
	}

	fakeHandle := newFakeHandleWithSender(t, sender)
	h := &SupervisorHandler{}

	component := newFakeActorComponent(fakeHandle)
	require.NoError(t, h.SetupHostFunctions(component))

	result, err := component.installed["theater:supervisor/supervisor/list"](
		context.Background(), nil,
	)
	require.NoError(t, err)

	var resp struct {
		Children []supervisorChildDTO `json:"children"`
	}
	require.NoError(t, json.Unmarshal(result, &resp))
	require.Len(t, resp.Children, 1)
	require.Equal(t, childID.String(), resp.Children[0].ActorID)
	require.Equal(t, "worker", resp.Children[0].ManifestName)
	require.Equal(t, "running", resp.Children[0].Status)

	require.IsType(t, actorstore.SupervisorListChildrenCmd{}, sender.lastCmd)

	events := fakeHandle.store.Chain().Events()
	require.Len(t, events, 2)

	var resultPayload SupervisorEvent
	require.NoError(t, json.Unmarshal(events[1].Payload, &resultPayload))
	require.Len(t, resultPayload.Result.Children, 1)
}

func TestSupervisorGetChildState(t *testing.T) {
	t.Parallel()

	childID := theaterid.NewActorId()
	sender := &fakeCommandSender{stateResult: []byte("child-state")}

	fakeHandle := newFakeHandleWithSender(t, sender)
	h := &SupervisorHandler{}

	component := newFakeActorComponent(fakeHandle)
	require.NoError(t, h.SetupHostFunctions(component))

	params, err := json.Marshal(struct {
		ChildID string `json:"child_id"`
	}{ChildID: childID.String()})
	require.NoError(t, err)

	result, err := component.installed["theater:supervisor/supervisor/get-state"](
		context.Background(), params,
	)
	require.NoError(t, err)

	var resp struct {
		ActorID string `json:"actor_id"`
		State   []byte `json:"state"`
	}
	require.NoError(t, json.Unmarshal(result, &resp))
	require.Equal(t, childID.String(), resp.ActorID)
	require.Equal(t, []byte("child-state"), resp.State)

	cmd, ok := sender.lastCmd.(actorstore.SupervisorGetChildStateCmd)
	require.True(t, ok)
	require.Equal(t, childID, cmd.ChildID)
}

func TestSupervisorRestartReturnsNewActorID(t *testing.T) {
	t.Parallel()

	childID := theaterid.NewActorId()
	sender := &fakeCommandSender{restartID: childID}

	fakeHandle := newFakeHandleWithSender(t, sender)
	h := &SupervisorHandler{}

	component := newFakeActorComponent(fakeHandle)
	require.NoError(t, h.SetupHostFunctions(component))

	params, err := json.Marshal(struct {
		ChildID string `json:"child_id"`
	}{ChildID: childID.String()})
	require.NoError(t, err)

	result, err := component.installed["theater:supervisor/supervisor/restart"](
		context.Background(), params,
	)
	require.NoError(t, err)

	var resp struct {
		ActorID string `json:"actor_id"`
	}
	require.NoError(t, json.Unmarshal(result, &resp))
	require.Equal(t, childID.String(), resp.ActorID)
}

func TestSupervisorStopPropagatesError(t *testing.T) {
	t.Parallel()

	childID := theaterid.NewActorId()
	sender := &fakeCommandSender{err: errors.New("not a child")}

	fakeHandle := newFakeHandleWithSender(t, sender)
	h := &SupervisorHandler{}

	component := newFakeActorComponent(fakeHandle)
	require.NoError(t, h.SetupHostFunctions(component))

	params, err := json.Marshal(struct {
		ChildID string `json:"child_id"`
	}{ChildID: childID.String()})
	require.NoError(t, err)

	_, err = component.installed["theater:supervisor/supervisor/stop"](
		context.Background(), params,
	)
	require.Error(t, err)

	events := fakeHandle.store.Chain().Events()
	require.Len(t, events, 2)

	var resultPayload SupervisorEvent
	require.NoError(t, json.Unmarshal(events[1].Payload, &resultPayload))
	require.Equal(t, "not a child", resultPayload.Result.Err)
}

func TestSupervisorReportSelfFailed(t *testing.T) {
	t.Parallel()

	sender := &fakeCommandSender{}
	fakeHandle := newFakeHandleWithSender(t, sender)
	h := &SupervisorHandler{}

	component := newFakeActorComponent(fakeHandle)
	require.NoError(t, h.SetupHostFunctions(component))

	params, err := json.Marshal(struct {
		ErrorKind string `json:"error_kind"`
		Message   string `json:"message"`
	}{ErrorKind: "trap", Message: "divide by zero"})
	require.NoError(t, err)

	result, err := component.installed["theater:supervisor/supervisor/report-self-failed"](
		context.Background(), params,
	)
	require.NoError(t, err)

	var resp struct{ Ok bool }
	require.NoError(t, json.Unmarshal(result, &resp))
	require.True(t, resp.Ok)

	cmd, ok := sender.lastCmd.(actorstore.SupervisorReportSelfFailedCmd)
	require.True(t, ok)
	require.Equal(t, "trap", cmd.ErrorKind)
	require.Equal(t, "divide by zero", cmd.Message)
}
