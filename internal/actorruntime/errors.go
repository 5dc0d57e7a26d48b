package actorruntime

import "errors"

// Error taxonomy for the per-actor spawn/shutdown sequence, per spec §7.
var (
	// ErrHandlerNotPermitted indicates a manifest declared a handler
	// whose permissions are not a subset of the parent's effective
	// permissions. Spawn fails before any wasm is loaded.
	ErrHandlerNotPermitted = errors.New("handler not permitted")

	// ErrHandlerNotRegistered indicates a manifest declared a handler
	// name with no corresponding Handler implementation in the registry
	// passed to Spawn.
	ErrHandlerNotRegistered = errors.New("handler not registered")

	// ErrInitFailed wraps the error from submitting or running the
	// actor's exported init function, or the caller's context ending
	// before init replied.
	ErrInitFailed = errors.New("actor init failed")

	// ErrAlreadyStopped is returned by Shutdown if called on a Runtime
	// that has already fully torn down.
	ErrAlreadyStopped = errors.New("actor already stopped")
)
