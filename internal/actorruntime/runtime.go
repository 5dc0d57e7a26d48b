package actorruntime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/theater-rt/theater/internal/actorstore"
	"github.com/theater-rt/theater/internal/chain"
	"github.com/theater-rt/theater/internal/execctl"
	"github.com/theater-rt/theater/internal/handler"
	"github.com/theater-rt/theater/internal/permission"
	"github.com/theater-rt/theater/internal/router"
	"github.com/theater-rt/theater/internal/shutdownctl"
	"github.com/theater-rt/theater/internal/store"
	"github.com/theater-rt/theater/internal/theaterid"
)

// initEnvelope is the wire shape handed to the exported init function, per
// spec §6: `init(state: option<bytes>, params: tuple<string>)`.
type initEnvelope struct {
	State  []byte   `json:"state,omitempty"`
	Params []string `json:"params"`
}

// Config configures a single actor spawn, per spec §4.8.
type Config struct {
	Manifest Manifest

	// ParentID is the spawning actor's id, if any (absent for top-level
	// actors spawned directly by TheaterRuntime).
	ParentID fn.Option[theaterid.ActorId]

	// ParentPermissions is the effective permission tree of the parent,
	// against which the manifest's requested permissions are validated
	// (spec §4.8 step 2). A top-level actor's "parent" is the operator,
	// whose grant is whatever ParentPermissions the caller supplies.
	ParentPermissions permission.Permissions

	// Registry resolves the manifest's declared handler names into
	// fresh per-actor Handler instances.
	Registry *handler.Registry

	// NewComponent instantiates the wasm component backing this actor.
	NewComponent ComponentFactory

	// StoreClient is the content-store client used to persist the
	// event chain and resolve the component ref.
	StoreClient *store.Client

	// RouterClient registers this actor's mailbox with the
	// MessageRouter.
	RouterClient *router.Client

	// CommandSender lets this actor's supervision host functions send
	// commands to the global TheaterRuntime. May be nil for actors with
	// no supervisor handler granted.
	CommandSender actorstore.CommandSender

	// ShutdownGrace overrides the default 5s shutdown grace period.
	ShutdownGrace time.Duration

	// ExistingActorID, if set, reuses an already-established identity
	// instead of minting a fresh one. TheaterRuntime's RestartActor uses
	// this so a restarted actor keeps its ActorId, matching the router's
	// "duplicate IDs overwrite, to support restart" rule (spec §4.6).
	ExistingActorID fn.Option[theaterid.ActorId]
}

// Runtime is the per-actor owner described in spec §4.8: it instantiates
// the wasm component, wires handler tasks, and propagates shutdown through
// a local ShutdownController.
type Runtime struct {
	actorID  theaterid.ActorId
	parentID fn.Option[theaterid.ActorId]
	perms    permission.Permissions

	store *actorstore.Store
	exec  *execctl.Executor
	ctrl  *execctl.Controller

	shutdown *shutdownctl.Controller

	handlers     []handler.Handler
	routerClient *router.Client
	storeClient  *store.Client
	mailbox      router.Mailbox

	wg sync.WaitGroup

	stopOnce sync.Once
	stopped  chan struct{}
}

// Spawn runs the 7-step spawn sequence from spec §4.8 and returns a running
// Runtime. On failure the returned error wraps ErrHandlerNotPermitted,
// ErrHandlerNotRegistered, or ErrInitFailed, or reports a failure to
// instantiate the component, set up a handler, or register with the
// router; no wasm is loaded and nothing is registered with the router
// unless every prior step succeeded.
func Spawn(ctx context.Context, cfg Config) (*Runtime, error) {
	actorID := theaterid.NewActorId()
	if cfg.ExistingActorID.IsSome() {
		actorID = cfg.ExistingActorID.UnwrapOr(actorID)
	}

	// Step 2: validate declared handlers against effective permissions
	// before loading any wasm. This module resolves "derived from
	// parent permissions intersected with manifest-requested
	// permissions" (spec §4.8 step 2) as: the manifest's requested tree
	// must itself already be a subset of the parent's grant, per
	// permission.Permissions.IsSubsetOf — see DESIGN.md's Open Question
	// decision for the rationale.
	if !cfg.Manifest.Permissions.IsSubsetOf(cfg.ParentPermissions) {
		return nil, fmt.Errorf(
			"%w: manifest %q requests permissions outside its "+
				"parent's grant", ErrHandlerNotPermitted,
			cfg.Manifest.Name,
		)
	}

	resolvedHandlers, err := cfg.Registry.Resolve(cfg.Manifest.Handlers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandlerNotRegistered, err)
	}

	// Step 1: local ShutdownController and mpsc channels.
	shutdownGrace := cfg.ShutdownGrace
	if shutdownGrace <= 0 {
		shutdownGrace = shutdownctl.DefaultGracePeriod
	}

	rt := &Runtime{
		actorID:      actorID,
		parentID:     cfg.ParentID,
		perms:        cfg.Manifest.Permissions,
		shutdown:     shutdownctl.New(shutdownGrace),
		handlers:     resolvedHandlers,
		routerClient: cfg.RouterClient,
		storeClient:  cfg.StoreClient,
		mailbox:      make(router.Mailbox, 64),
		stopped:      make(chan struct{}),
	}

	c := chain.New(actorID)
	rt.store = actorstore.New(actorID, c, cfg.CommandSender)

	handle := &actorHandle{actorID: actorID, store: rt.store, perms: rt.perms}

	// Step 3: instantiate the wasm component, install host functions,
	// register exports.
	component, instance, err := cfg.NewComponent(handle, cfg.Manifest.ComponentRef)
	if err != nil {
		return nil, fmt.Errorf("instantiating component: %w", err)
	}

	for _, h := range rt.handlers {
		if err := h.SetupHostFunctions(component); err != nil {
			return nil, fmt.Errorf(
				"setting up host functions for handler %q: %w",
				h.Name(), err,
			)
		}
	}

	for _, h := range rt.handlers {
		if err := h.AddExportFunctions(instance); err != nil {
			return nil, fmt.Errorf(
				"adding export functions for handler %q: %w",
				h.Name(), err,
			)
		}
	}

	functions := resolveFunctions(instance)

	rt.exec = execctl.NewExecutor(rt.store, cfg.StoreClient, functions)
	rt.ctrl = execctl.NewController(rt.exec)

	// Step 4: spawn the executor task, one task per handler with a
	// background loop. The controller itself has no task to spawn: its
	// methods are synchronous calls into the executor's lock-protected
	// snapshot block (see internal/execctl).
	execCtx, execCancel := context.WithCancel(context.Background())
	rt.wg.Add(1)
	go func() {
		defer rt.wg.Done()
		defer execCancel()
		rt.exec.Run(execCtx, rt.shutdown.Subscribe())
	}()

	rt.wg.Add(1)
	go func() {
		defer rt.wg.Done()
		rt.runMailbox(execCtx)
	}()

	for _, h := range rt.handlers {
		rt.wg.Add(1)
		go func(h handler.Handler) {
			defer rt.wg.Done()

			if err := h.Start(execCtx, handle, rt.shutdown.Subscribe()); err != nil {
				log.Errorf("actor %s: handler %q task exited: %v",
					actorID, h.Name(), err)
			}
		}(h)
	}

	// Step 5: register the mailbox with MessageRouter.
	if rt.routerClient != nil {
		if _, err := rt.routerClient.Register(ctx, actorID, rt.mailbox); err != nil {
			rt.abortAll()
			return nil, fmt.Errorf("registering with message router: %w", err)
		}
	}

	// Step 6: record runtime/actor-started.
	rt.recordStarted(cfg.Manifest)

	// Step 7: call the exported init function with the initial state.
	if err := rt.callInit(ctx, cfg.Manifest); err != nil {
		rt.abortAll()
		return nil, err
	}

	return rt, nil
}

// resolveFunctions builds the name->WasmFunction map the executor dispatches
// CallFunctionOps against, covering both the mandatory `init` export and
// whatever additional exports this actor's granted handlers recorded via
// AddExportFunctions (spec §4.8 step 3, §6's handle-send/handle-request).
func resolveFunctions(instance handler.ActorInstance) map[string]handler.WasmFunction {
	functions := make(map[string]handler.WasmFunction)

	for _, name := range []string{
		"init", "handle-send", "handle-request",
		"handle-channel-open", "handle-channel-message",
		"handle-channel-close",
	} {
		if fn, ok := instance.ExportedFunction(name); ok {
			functions[name] = fn
		}
	}

	return functions
}

func (rt *Runtime) recordStarted(m Manifest) {
	var parentID *string
	if rt.parentID.IsSome() {
		id := rt.parentID.UnwrapOr(theaterid.ActorId{}).String()
		parentID = &id
	}

	ev := actorStartedEvent{
		ActorID:      rt.actorID.String(),
		ManifestName: m.Name,
		ComponentRef: m.ComponentRef.String(),
		Handlers:     m.Handlers,
		ParentID:     parentID,
	}

	data, err := json.Marshal(ev)
	if err != nil {
		log.Errorf("actor %s: encoding actor-started event: %v", rt.actorID, err)
		return
	}

	rt.store.Chain().Append("runtime/actor-started", data, nil)
}

func (rt *Runtime) callInit(ctx context.Context, m Manifest) error {
	params, err := json.Marshal(initEnvelope{
		State:  m.InitState,
		Params: m.InitParams,
	})
	if err != nil {
		return fmt.Errorf("encoding init params: %w", err)
	}

	reply := make(chan execctl.CallFunctionResult, 1)

	if err := rt.exec.Submit(ctx, execctl.CallFunctionOp{
		Name: "init", Params: params, Reply: reply,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrInitFailed, err)
	}

	select {
	case res := <-reply:
		if res.Err != nil {
			return fmt.Errorf("%w: %v", ErrInitFailed, res.Err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrInitFailed, ctx.Err())
	}
}

// ActorID returns this actor's identifier.
func (rt *Runtime) ActorID() theaterid.ActorId { return rt.actorID }

// Controller returns the ActorController handle for pause/resume/metrics/
// state/chain queries (spec §4.7).
func (rt *Runtime) Controller() *execctl.Controller { return rt.ctrl }

// Executor returns the ActorExecutor handle, primarily so a supervisor or
// the management channel can submit CallFunctionOps directly.
func (rt *Runtime) Executor() *execctl.Executor { return rt.exec }

// Store returns the actor's scratchpad.
func (rt *Runtime) Store() *actorstore.Store { return rt.store }

// Permissions returns the actor's effective (validated) permission tree,
// used by TheaterRuntime to derive a child's parent grant without needing
// to keep its own copy of the manifest.
func (rt *Runtime) Permissions() permission.Permissions { return rt.perms }

// abortAll is used when spawn fails partway through (registration
// succeeded but init didn't, or vice versa): it unwinds whichever of the
// router registration and running tasks were already established, without
// the chain bookkeeping a graceful Shutdown performs.
func (rt *Runtime) abortAll() {
	rt.shutdown.Signal()
	_ = rt.ctrl.ForceStop(context.Background())
	rt.wg.Wait()

	if rt.routerClient != nil {
		_, _ = rt.routerClient.Unregister(context.Background(), rt.actorID)
	}
}

// Shutdown runs the 5-step shutdown sequence from spec §4.8. A Shutdown
// call observing an already-completed teardown returns ErrAlreadyStopped
// rather than repeating it.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	select {
	case <-rt.stopped:
		return ErrAlreadyStopped
	default:
	}

	var shutdownErr error

	rt.stopOnce.Do(func() {
		defer close(rt.stopped)

		// Step 1: signal the local ShutdownController. All handler
		// tasks and the mailbox loop receive the signal.
		rt.shutdown.Signal()

		// Step 2+3: wait up to the grace period for orderly exit,
		// then abort the executor if it hasn't stopped on its own.
		graceMs := rt.shutdown.GracePeriod().Milliseconds()
		if err := rt.ctrl.Shutdown(ctx, graceMs); err != nil {
			shutdownErr = err
		}

		done := make(chan struct{})
		go func() {
			rt.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(rt.shutdown.GracePeriod()):
			log.Warnf("actor %s: handler tasks still running after "+
				"grace period", rt.actorID)
		}

		// Step 4: unregister from MessageRouter.
		if rt.routerClient != nil {
			if _, err := rt.routerClient.Unregister(ctx, rt.actorID); err != nil {
				log.Errorf("actor %s: unregistering from router: %v",
					rt.actorID, err)
			}
		}

		// Step 5: record runtime/actor-stopped; persist chain. By this
		// point ctrl.Shutdown has already awaited the executor's
		// Done() channel, so ownership of the (otherwise
		// single-owner, unsynchronized) chain has passed from the
		// executor's goroutine to this one; appending and persisting
		// directly here is safe.
		rt.recordStopped("")

		if _, err := rt.store.Chain().Persist(ctx, rt.storeClient); err != nil {
			log.Errorf("actor %s: persisting chain: %v", rt.actorID, err)
		}
	})

	return shutdownErr
}

func (rt *Runtime) recordStopped(reason string) {
	ev := actorStoppedEvent{ActorID: rt.actorID.String(), Reason: reason}

	data, err := json.Marshal(ev)
	if err != nil {
		log.Errorf("actor %s: encoding actor-stopped event: %v", rt.actorID, err)
		return
	}

	rt.store.Chain().Append("runtime/actor-stopped", data, nil)
}

// RecordFailed appends a runtime/actor-failed event to this actor's own
// chain, per spec §4.9. The caller (TheaterRuntime's supervision logic) is
// responsible for also recording the corresponding actor-child-failed
// event on the parent's chain.
func (rt *Runtime) RecordFailed(errorKind, message string) {
	ev := actorFailedEvent{
		ActorID:   rt.actorID.String(),
		ErrorKind: errorKind,
		Message:   message,
	}

	data, err := json.Marshal(ev)
	if err != nil {
		log.Errorf("actor %s: encoding actor-failed event: %v", rt.actorID, err)
		return
	}

	rt.store.Chain().Append("runtime/actor-failed", data, nil)
}
