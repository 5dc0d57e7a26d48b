// Package execctl implements the split ActorExecutor/ActorController handle
// pair described in spec §4.7: a strictly-sequential executor processes
// wasm calls, while an independent controller answers pause/shutdown/
// metrics/state/chain queries in bounded time regardless of executor state.
package execctl

import (
	"github.com/theater-rt/theater/internal/chain"
	"github.com/theater-rt/theater/internal/theaterid"
)

// ExecutionOperation is the sealed union of operations the executor
// processes serially, per spec §4.7.
type ExecutionOperation interface {
	isExecutionOperation()
}

func (CallFunctionOp) isExecutionOperation()    {}
func (UpdateComponentOp) isExecutionOperation() {}
func (SaveChainOp) isExecutionOperation()       {}

// CallFunctionResult carries the outcome of a CallFunctionOp.
type CallFunctionResult struct {
	Result []byte
	Err    error
}

// CallFunctionOp resolves Name on the wasm instance, invokes it with the
// current state and Params, and updates ActorStore.state with the new
// state on success.
type CallFunctionOp struct {
	Name   string
	Params []byte
	Reply  chan<- CallFunctionResult
}

// UpdateComponentOp hot-swaps the wasm module backing this actor. Deferred
// per spec.md §9 — the executor always replies ErrNotImplemented.
type UpdateComponentOp struct {
	NewComponentRef theaterid.ContentRef
	Reply           chan<- error
}

// SaveChainResult carries the outcome of a SaveChainOp.
type SaveChainResult struct {
	Ref theaterid.ContentRef
	Err error
}

// SaveChainOp persists the actor's event chain via ContentStore.
type SaveChainOp struct {
	Reply chan<- SaveChainResult
}

// ControlOperation is the sealed union of operations the controller
// answers, independent of executor progress, per spec §4.7.
type ControlOperation interface {
	isControlOperation()
}

func (PauseOp) isControlOperation()     {}
func (ResumeOp) isControlOperation()    {}
func (ShutdownOp) isControlOperation()  {}
func (ForceStopOp) isControlOperation() {}
func (MetricsOp) isControlOperation()   {}
func (StateOp) isControlOperation()     {}
func (ChainOp) isControlOperation()     {}

// PauseOp toggles the executor-observed pause flag on.
type PauseOp struct{}

// ResumeOp toggles the executor-observed pause flag off.
type ResumeOp struct{}

// ShutdownOp asks the executor to finish its current call (if any) and
// then stop, aborting if GraceMs elapses first.
type ShutdownOp struct {
	GraceMs int64
	Reply   chan<- error
}

// ForceStopOp aborts the executor task immediately.
type ForceStopOp struct {
	Reply chan<- error
}

// Metrics is the snapshot the controller's Metrics op returns.
type Metrics struct {
	CallCount    int64
	LastCallName string
	LastCallAt   int64
	Paused       bool
	Failed       bool
}

// MetricsOp requests the current Metrics snapshot.
type MetricsOp struct {
	Reply chan<- Metrics
}

// StateOp requests a copy of the latest known state bytes.
type StateOp struct {
	Reply chan<- []byte
}

// ChainOp requests a snapshot of the event-chain prefix.
type ChainOp struct {
	Reply chan<- []chain.ChainEvent
}
