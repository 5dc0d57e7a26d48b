// Package handler implements the Handler contract described in spec §4.4:
// a pluggable host capability that installs host functions into a wasm
// linker, optionally exports functions for the actor to call back into, and
// optionally runs a background task.
//
// No wasm runtime library appears anywhere in the example corpus this
// module is grounded on, so ActorComponent/ActorInstance model the call/
// suspend contract the spec describes (§6 "Wasm component ABI") as plain Go
// interfaces rather than binding a concrete wasm engine. A real embedding
// satisfies them by wrapping whatever component-model host it uses.
package handler

import (
	"context"

	"github.com/theater-rt/theater/internal/actorstore"
	"github.com/theater-rt/theater/internal/permission"
	"github.com/theater-rt/theater/internal/theaterid"
)

// HostFunction is a function installed into an actor's wasm linker. It
// receives the raw parameter bytes the wasm guest passed and returns the
// raw result bytes (or an error) to hand back across the boundary.
type HostFunction func(ctx context.Context, params []byte) ([]byte, error)

// WasmFunction is a function exported by the wasm guest and invoked by the
// host (e.g. a handler calling back into `handle-send`).
type WasmFunction func(ctx context.Context, params []byte) ([]byte, error)

// ActorComponent is the synchronous linker-installation surface a handler's
// SetupHostFunctions uses, per spec §4.4 point 4 ("synchronously installs
// wasm host functions into the actor's linker"). It is already bound to a
// specific actor instance, so host-function closures created during setup
// may capture Handle() to reach that actor's permissions and store.
type ActorComponent interface {
	// LinkHostFunction installs fn under the given namespaced interface
	// and function name (e.g. "wasi:random/random", "get-random-bytes").
	LinkHostFunction(namespace, name string, fn HostFunction) error

	// Handle returns the ActorHandle this component belongs to.
	Handle() ActorHandle
}

// ActorInstance is the surface a handler's AddExportFunctions uses to
// record references to functions the actor exports, per spec §4.4 point 5.
type ActorInstance interface {
	// ExportedFunction looks up a function the actor's wasm component
	// exports under the given name.
	ExportedFunction(name string) (WasmFunction, bool)
}

// ActorHandle is the per-actor context a handler's background task
// operates against (spec §4.4 point 6), combining identity, the mutable
// scratchpad, and the granted permissions for this actor.
type ActorHandle interface {
	ActorID() theaterid.ActorId
	Store() *actorstore.Store
	Permissions() permission.Permissions
}

// Handler encapsulates one host capability, per spec §4.4.
type Handler interface {
	// Name returns a stable identifier for this handler type.
	Name() string

	// Imports returns the exact versioned interface name this handler
	// satisfies (e.g. "wasi:random/random@0.2.3"), if any.
	Imports() (string, bool)

	// Exports returns the interface name the actor must export for this
	// handler to call back into, if any.
	Exports() (string, bool)

	// SetupHostFunctions synchronously installs this handler's host
	// functions into component's linker.
	SetupHostFunctions(component ActorComponent) error

	// AddExportFunctions synchronously records references to the
	// exported wasm functions this handler depends on, if Exports()
	// names one.
	AddExportFunctions(instance ActorInstance) error

	// Start runs this handler's optional background task. It must
	// return once shutdown fires. Handlers with no background work
	// return nil immediately.
	Start(ctx context.Context, actorHandle ActorHandle, shutdown <-chan struct{}) error

	// CreateInstance returns a fresh copy of this handler for per-actor
	// use, for handlers that hold no shared state.
	CreateInstance() Handler
}
