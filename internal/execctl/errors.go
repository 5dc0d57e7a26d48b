package execctl

import "errors"

// Error taxonomy for the executor/controller split, per spec §7 items 3, 4,
// and 11.
var (
	// ErrOperationTimeout indicates an execution op exceeded its timeout.
	// The actor continues running; only the op was aborted.
	ErrOperationTimeout = errors.New("execution operation timed out")

	// ErrInterrupted indicates an execution op was aborted by ForceStop.
	ErrInterrupted = errors.New("execution operation interrupted")

	// ErrFunctionNotFound indicates CallFunction named an export the
	// actor's component does not have.
	ErrFunctionNotFound = errors.New("function not found")

	// ErrExecutorStopped indicates an operation was submitted after the
	// executor had already exited.
	ErrExecutorStopped = errors.New("executor stopped")

	// ErrNotImplemented is returned by UpdateComponent: spec.md §9 leaves
	// hot-swap semantics unsettled and recommends a conservative initial
	// rejection.
	ErrNotImplemented = errors.New("operation not implemented")

	// ErrInternal wraps a recovered panic from a wasm export call. A
	// guest that panics its host binding must not take the executor
	// goroutine down with it; per spec §10.2 this mirrors
	// actor.Actor.process's own deferred recovery around behavior
	// dispatch.
	ErrInternal = errors.New("internal error")
)
