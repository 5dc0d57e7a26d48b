// Package actorruntime implements the ActorRuntime described in spec §4.8:
// the per-actor owner that instantiates the wasm component, wires host
// functions and handler tasks, registers with the MessageRouter, and
// propagates shutdown through a local ShutdownController.
package actorruntime

import (
	"github.com/theater-rt/theater/internal/handler"
	"github.com/theater-rt/theater/internal/permission"
	"github.com/theater-rt/theater/internal/theaterid"
)

// Manifest is the already-resolved, structured form of the text manifest
// spec §6 describes (the `{{key}}`-templated document is the CLI's concern,
// not the core's; the core only ever sees this parsed value).
type Manifest struct {
	// Name is the manifest's declared actor name, used only for display
	// and chain-event context.
	Name string

	// ComponentRef addresses the wasm component bytes in the content
	// store.
	ComponentRef theaterid.ContentRef

	// InitState is the optional initial state handed to the exported
	// init function.
	InitState []byte

	// InitParams is the tuple<string> of parameters handed to init.
	InitParams []string

	// Permissions is the manifest-requested permission tree, validated
	// against the parent's effective permissions at spawn.
	Permissions permission.Permissions

	// Handlers lists the handler type names this actor requires,
	// resolved against a handler.Registry at spawn.
	Handlers []string
}

// ComponentFactory instantiates the wasm component backing a newly spawned
// actor. No wasm engine appears anywhere in the example corpus this module
// is grounded on (see internal/handler's package doc), so the engine
// binding is supplied by the embedder as a plain function rather than
// wired directly into this package.
type ComponentFactory func(handle handler.ActorHandle, componentRef theaterid.ContentRef) (
	handler.ActorComponent, handler.ActorInstance, error,
)

// actorStartedEvent is the payload recorded for the "runtime/actor-started"
// chain event, per spec §4.8 step 6.
type actorStartedEvent struct {
	ActorID      string   `json:"actor_id"`
	ManifestName string   `json:"manifest_name"`
	ComponentRef string   `json:"component_ref"`
	Handlers     []string `json:"handlers"`
	ParentID     *string  `json:"parent_id,omitempty"`
}

// actorStoppedEvent is the payload recorded for the "runtime/actor-stopped"
// chain event, per spec §4.8 step 5.
type actorStoppedEvent struct {
	ActorID string `json:"actor_id"`
	Reason  string `json:"reason,omitempty"`
}

// actorFailedEvent is the payload recorded for the "runtime/actor-failed"
// chain event, per spec §4.9 ("An actor that crashes produces a
// runtime/actor-failed event on its own chain").
type actorFailedEvent struct {
	ActorID   string `json:"actor_id"`
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}
