package execctl

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/theater-rt/theater/internal/actorstore"
	"github.com/theater-rt/theater/internal/chain"
	"github.com/theater-rt/theater/internal/handler"
	"github.com/theater-rt/theater/internal/theaterid"
)

func newTestActorStore(t *testing.T) *actorstore.Store {
	t.Helper()

	actorID := theaterid.NewActorId()
	c := chain.New(actorID)

	return actorstore.New(actorID, c, nil)
}

// echoFunction treats params as the new state verbatim and returns it as
// the result too, for deterministic assertions.
func echoFunction(ctx context.Context, raw []byte) ([]byte, error) {
	var env callEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	out, err := json.Marshal(callResultEnvelope{
		NewState: env.Params,
		Result:   env.Params,
	})

	return out, err
}

func TestCallFunctionUpdatesStateAndMetrics(t *testing.T) {
	t.Parallel()

	as := newTestActorStore(t)
	exec := NewExecutor(as, nil, map[string]handler.WasmFunction{
		"echo": echoFunction,
	})

	shutdownCh := make(chan struct{})
	go exec.Run(context.Background(), shutdownCh)
	defer close(shutdownCh)

	reply := make(chan CallFunctionResult, 1)
	err := exec.Submit(context.Background(), CallFunctionOp{
		Name:   "echo",
		Params: []byte(`"hello"`),
		Reply:  reply,
	})
	require.NoError(t, err)

	res := <-reply
	require.NoError(t, res.Err)
	require.Equal(t, []byte(`"hello"`), res.Result)

	state, hasState := as.State()
	require.True(t, hasState)
	require.Equal(t, []byte(`"hello"`), state)

	ctrl := NewController(exec)
	metrics := ctrl.Metrics()
	require.Equal(t, int64(1), metrics.CallCount)
	require.Equal(t, "echo", metrics.LastCallName)
	require.False(t, metrics.Failed)
}

func TestCallFunctionUnknownNameReturnsFunctionNotFound(t *testing.T) {
	t.Parallel()

	as := newTestActorStore(t)
	exec := NewExecutor(as, nil, map[string]handler.WasmFunction{})

	shutdownCh := make(chan struct{})
	go exec.Run(context.Background(), shutdownCh)
	defer close(shutdownCh)

	reply := make(chan CallFunctionResult, 1)
	err := exec.Submit(context.Background(), CallFunctionOp{
		Name:  "missing",
		Reply: reply,
	})
	require.NoError(t, err)

	res := <-reply
	require.ErrorIs(t, res.Err, ErrFunctionNotFound)
}

// TestCallFunctionRecoversPanickingExport covers spec §10.2: a guest
// export panicking must surface as ErrInternal on the reply, not crash the
// executor goroutine out from under every other in-flight operation.
func TestCallFunctionRecoversPanickingExport(t *testing.T) {
	t.Parallel()

	as := newTestActorStore(t)
	exec := NewExecutor(as, nil, map[string]handler.WasmFunction{
		"boom": func(ctx context.Context, raw []byte) ([]byte, error) {
			panic("guest export exploded")
		},
	})

	shutdownCh := make(chan struct{})
	go exec.Run(context.Background(), shutdownCh)
	defer close(shutdownCh)

	reply := make(chan CallFunctionResult, 1)
	err := exec.Submit(context.Background(), CallFunctionOp{
		Name:  "boom",
		Reply: reply,
	})
	require.NoError(t, err)

	res := <-reply
	require.ErrorIs(t, res.Err, ErrInternal)

	// The executor must still be alive and able to serve a follow-up call.
	reply2 := make(chan CallFunctionResult, 1)
	err = exec.Submit(context.Background(), CallFunctionOp{
		Name:  "missing",
		Reply: reply2,
	})
	require.NoError(t, err)
	require.ErrorIs(t, (<-reply2).Err, ErrFunctionNotFound)
}

func TestUpdateComponentReturnsNotImplemented(t *testing.T) {
	t.Parallel()

	as := newTestActorStore(t)
	exec := NewExecutor(as, nil, map[string]handler.WasmFunction{})

	shutdownCh := make(chan struct{})
	go exec.Run(context.Background(), shutdownCh)
	defer close(shutdownCh)

	reply := make(chan error, 1)
	err := exec.Submit(context.Background(), UpdateComponentOp{Reply: reply})
	require.NoError(t, err)

	require.ErrorIs(t, <-reply, ErrNotImplemented)
}

func TestPauseBlocksSubsequentCallsUntilResume(t *testing.T) {
	t.Parallel()

	as := newTestActorStore(t)
	exec := NewExecutor(as, nil, map[string]handler.WasmFunction{
		"echo": echoFunction,
	})
	ctrl := NewController(exec)

	shutdownCh := make(chan struct{})
	go exec.Run(context.Background(), shutdownCh)
	defer close(shutdownCh)

	ctrl.Pause()
	require.True(t, ctrl.Metrics().Paused)

	reply := make(chan CallFunctionResult, 1)
	err := exec.Submit(context.Background(), CallFunctionOp{
		Name:   "echo",
		Params: []byte(`"blocked"`),
		Reply:  reply,
	})
	require.NoError(t, err)

	select {
	case <-reply:
		t.Fatal("call completed while paused")
	case <-time.After(100 * time.Millisecond):
	}

	ctrl.Resume()

	select {
	case res := <-reply:
		require.NoError(t, res.Err)
	case <-time.After(time.Second):
		t.Fatal("call never completed after resume")
	}
}

// TestForceStopInterruptsQueuedCalls covers spec §7's Interrupted error
// kind: ForceStop aborts the executor and any queued CallFunction replies
// ErrInterrupted rather than hanging forever.
func TestForceStopInterruptsQueuedCalls(t *testing.T) {
	t.Parallel()

	as := newTestActorStore(t)
	exec := NewExecutor(as, nil, map[string]handler.WasmFunction{
		"echo": echoFunction,
	})
	ctrl := NewController(exec)

	shutdownCh := make(chan struct{})
	go exec.Run(context.Background(), shutdownCh)

	ctrl.Pause()

	reply := make(chan CallFunctionResult, 1)
	err := exec.Submit(context.Background(), CallFunctionOp{
		Name:   "echo",
		Params: []byte(`"x"`),
		Reply:  reply,
	})
	require.NoError(t, err)

	require.NoError(t, ctrl.ForceStop(context.Background()))

	select {
	case res := <-reply:
		require.ErrorIs(t, res.Err, ErrInterrupted)
	case <-time.After(time.Second):
		t.Fatal("queued call never received a reply after ForceStop")
	}
}

// TestForceStopInterruptsInFlightCall covers spec §4.7's Executor/
// Controller split and Testable Property 7 ("ForceStop interrupts
// in-flight calls"): unlike TestForceStopInterruptsQueuedCalls, this
// exercises a call that has already started running its wasm export when
// ForceStop fires, proving abort() preempts it rather than only catching
// calls still sitting in the queue.
func TestForceStopInterruptsInFlightCall(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	blockingFunction := func(ctx context.Context, raw []byte) ([]byte, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}

	as := newTestActorStore(t)
	exec := NewExecutor(as, nil, map[string]handler.WasmFunction{
		"block": blockingFunction,
	})
	ctrl := NewController(exec)

	shutdownCh := make(chan struct{})
	go exec.Run(context.Background(), shutdownCh)

	reply := make(chan CallFunctionResult, 1)
	err := exec.Submit(context.Background(), CallFunctionOp{
		Name:  "block",
		Reply: reply,
	})
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("call never started")
	}

	require.NoError(t, ctrl.ForceStop(context.Background()))

	select {
	case res := <-reply:
		require.ErrorIs(t, res.Err, ErrInterrupted)
	case <-time.After(time.Second):
		t.Fatal("in-flight call never received a reply after ForceStop")
	}

	select {
	case <-exec.Done():
	case <-time.After(time.Second):
		t.Fatal("executor never stopped after ForceStop")
	}
}

func TestShutdownWaitsThenAbortsAfterGrace(t *testing.T) {
	t.Parallel()

	as := newTestActorStore(t)
	exec := NewExecutor(as, nil, map[string]handler.WasmFunction{})
	ctrl := NewController(exec)

	shutdownCh := make(chan struct{})
	go exec.Run(context.Background(), shutdownCh)

	start := time.Now()
	err := ctrl.Shutdown(context.Background(), 50)
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	select {
	case <-exec.Done():
	default:
		t.Fatal("executor should have stopped after Shutdown")
	}
}

func TestShutdownReturnsImmediatelyIfExecutorAlreadyIdleAndSignalled(t *testing.T) {
	t.Parallel()

	as := newTestActorStore(t)
	exec := NewExecutor(as, nil, map[string]handler.WasmFunction{})
	ctrl := NewController(exec)

	shutdownCh := make(chan struct{})
	go exec.Run(context.Background(), shutdownCh)

	close(shutdownCh)

	select {
	case <-exec.Done():
	case <-time.After(time.Second):
		t.Fatal("executor never exited on shutdownCh signal")
	}

	require.NoError(t, ctrl.Shutdown(context.Background(), 50))
}
