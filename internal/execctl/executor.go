package execctl

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/theater-rt/theater/internal/actorstore"
	"github.com/theater-rt/theater/internal/handler"
	"github.com/theater-rt/theater/internal/store"
)

// callEnvelope is the wire shape CallFunction marshals onto the wasm call
// boundary: the actor's current state plus the caller's raw params, per
// spec §4.7's "(current_state, params)" call convention.
type callEnvelope struct {
	State  []byte `json:"state,omitempty"`
	Params []byte `json:"params"`
}

// callResultEnvelope is the wire shape a wasm export returns: its
// replacement state plus the raw result bytes, per spec §4.7's
// "(new_state, result)" convention.
type callResultEnvelope struct {
	NewState []byte `json:"new_state,omitempty"`
	Result   []byte `json:"result"`
}

// Executor processes ExecutionOperations strictly sequentially w.r.t. wasm
// execution, per spec §4.7. A slow CallFunction blocks subsequent execution
// ops but never blocks the Controller, which reads through snapshotBlock
// instead of through this loop.
type Executor struct {
	ops       chan ExecutionOperation
	functions map[string]handler.WasmFunction

	actorStore *actorstore.Store
	storeClnt  *store.Client

	snapshot *snapshotBlock
	gate     *pauseGate

	forceStop chan struct{}
	done      chan struct{}
}

// NewExecutor creates an Executor for the given actor store, content-store
// client (for SaveChain), and the actor's exported functions resolved via
// ActorInstance.ExportedFunction during spawn (spec §4.8 step 3).
func NewExecutor(
	actorStore *actorstore.Store, storeClnt *store.Client,
	functions map[string]handler.WasmFunction,
) *Executor {

	return &Executor{
		ops:        make(chan ExecutionOperation, 64),
		functions:  functions,
		actorStore: actorStore,
		storeClnt:  storeClnt,
		snapshot:   newSnapshotBlock(),
		gate:       newPauseGate(),
		forceStop:  make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Submit enqueues op, blocking until there is room or ctx is cancelled.
func (e *Executor) Submit(ctx context.Context, op ExecutionOperation) error {
	select {
	case e.ops <- op:
		return nil
	case <-e.done:
		return ErrExecutorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed once the executor's Run loop has exited.
func (e *Executor) Done() <-chan struct{} {
	return e.done
}

// pause toggles the executor-observed pause flag, invoked by the
// Controller.
func (e *Executor) pause() {
	e.gate.pause()
	e.snapshot.setPaused(true)
}

func (e *Executor) resume() {
	e.gate.unpause()
	e.snapshot.setPaused(false)
}

// abort aborts the executor task immediately; any in-flight CallFunction
// replies ErrInterrupted, per ForceStop's spec §4.7 semantics.
func (e *Executor) abort() {
	select {
	case <-e.forceStop:
	default:
		close(e.forceStop)
	}
}

// Run drives the executor loop until ctx is cancelled, ForceStop is
// signalled, or shutdownCh fires. It always closes Done() on exit.
func (e *Executor) Run(ctx context.Context, shutdownCh <-chan struct{}) {
	defer close(e.done)

	for {
		select {
		case <-ctx.Done():
			e.drain(ErrInterrupted)
			return

		case <-e.forceStop:
			e.drain(ErrInterrupted)
			return

		case <-shutdownCh:
			e.drain(ErrInterrupted)
			return

		case op := <-e.ops:
			if resumeCh := e.gate.wait(); resumeCh != nil {
				select {
				case <-resumeCh:
				case <-e.forceStop:
					e.replyInterrupted(op)
					e.drain(ErrInterrupted)
					return
				case <-shutdownCh:
					e.replyInterrupted(op)
					e.drain(ErrInterrupted)
					return
				case <-ctx.Done():
					e.replyInterrupted(op)
					e.drain(ErrInterrupted)
					return
				}
			}

			if callOp, ok := op.(CallFunctionOp); ok {
				if !e.runCallFunction(ctx, callOp, shutdownCh) {
					e.drain(ErrInterrupted)
					return
				}
				continue
			}

			e.process(ctx, op)
		}
	}
}

// drain replies err to any operations still queued, so callers awaiting a
// reply channel never hang after the executor has stopped.
func (e *Executor) drain(err error) {
	for {
		select {
		case op := <-e.ops:
			e.replyWith(op, err)
		default:
			return
		}
	}
}

func (e *Executor) replyInterrupted(op ExecutionOperation) {
	e.replyWith(op, ErrInterrupted)
}

func (e *Executor) replyWith(op ExecutionOperation, err error) {
	switch o := op.(type) {
	case CallFunctionOp:
		o.Reply <- CallFunctionResult{Err: err}
	case UpdateComponentOp:
		o.Reply <- err
	case SaveChainOp:
		o.Reply <- SaveChainResult{Err: err}
	}
}

// process handles operations that never call into wasm and so can never
// block on a slow or stuck guest export. CallFunctionOp is dispatched
// through runCallFunction instead, since only it needs to be preemptible.
func (e *Executor) process(ctx context.Context, op ExecutionOperation) {
	switch o := op.(type) {
	case UpdateComponentOp:
		o.Reply <- ErrNotImplemented

	case SaveChainOp:
		o.Reply <- e.saveChain(ctx)
	}
}

// runCallFunction runs op's wasm call on its own goroutine against a
// context derived from ctx, so that ForceStop, shutdownCh, or the parent
// ctx being cancelled can preempt the call rather than waiting for it to
// return on its own, per spec §4.7's ForceStop semantics. It replies to
// op.Reply exactly once and reports whether Run should keep looping
// (false means the caller must drain the queue and exit).
func (e *Executor) runCallFunction(
	ctx context.Context, op CallFunctionOp, shutdownCh <-chan struct{},
) bool {

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	resultCh := make(chan CallFunctionResult, 1)
	go func() {
		resultCh <- e.callFunction(callCtx, op)
	}()

	select {
	case res := <-resultCh:
		op.Reply <- res
		return true

	case <-e.forceStop:
		cancel()
		op.Reply <- CallFunctionResult{Err: ErrInterrupted}
		return false

	case <-shutdownCh:
		cancel()
		op.Reply <- CallFunctionResult{Err: ErrInterrupted}
		return false

	case <-ctx.Done():
		cancel()
		op.Reply <- CallFunctionResult{Err: ErrInterrupted}
		return false
	}
}

func (e *Executor) callFunction(ctx context.Context, op CallFunctionOp) (res CallFunctionResult) {
	fn, ok := e.functions[op.Name]
	if !ok {
		return CallFunctionResult{Err: fmt.Errorf(
			"%w: %s", ErrFunctionNotFound, op.Name,
		)}
	}

	state, _ := e.actorStore.State()

	// A panicking guest export must fail this one call, not take the
	// executor's goroutine (and every other actor sharing this process)
	// down with it.
	defer func() {
		if r := recover(); r != nil {
			e.snapshot.recordCall(op.Name, state, nowUnixMilli(), true, e.actorStore.Chain().Events())
			res = CallFunctionResult{
				Err: fmt.Errorf("%w: %s panicked: %v", ErrInternal, op.Name, r),
			}
		}
	}()

	callBytes, err := json.Marshal(callEnvelope{State: state, Params: op.Params})
	if err != nil {
		return CallFunctionResult{Err: fmt.Errorf("encode call: %w", err)}
	}

	raw, err := fn(ctx, callBytes)
	if err != nil {
		e.snapshot.recordCall(op.Name, state, nowUnixMilli(), true, e.actorStore.Chain().Events())
		return CallFunctionResult{Err: err}
	}

	var result callResultEnvelope
	if err := json.Unmarshal(raw, &result); err != nil {
		e.snapshot.recordCall(op.Name, state, nowUnixMilli(), true, e.actorStore.Chain().Events())
		return CallFunctionResult{Err: fmt.Errorf("decode result: %w", err)}
	}

	e.actorStore.SetState(result.NewState)
	e.snapshot.recordCall(
		op.Name, result.NewState, nowUnixMilli(), false,
		e.actorStore.Chain().Events(),
	)

	return CallFunctionResult{Result: result.Result}
}

func (e *Executor) saveChain(ctx context.Context) SaveChainResult {
	ref, err := e.actorStore.Chain().Persist(ctx, e.storeClnt)
	return SaveChainResult{Ref: ref, Err: err}
}

// nowUnixMilli is overridable in tests for deterministic metrics
// timestamps, mirroring internal/chain's same-named var.
var nowUnixMilli = func() int64 {
	return time.Now().UnixMilli()
}
