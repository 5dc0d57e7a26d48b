package theater

import (
	"context"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/theater-rt/theater/internal/actorruntime"
	"github.com/theater-rt/theater/internal/handler"
	"github.com/theater-rt/theater/internal/registry"
	"github.com/theater-rt/theater/internal/router"
	"github.com/theater-rt/theater/internal/shutdownctl"
	"github.com/theater-rt/theater/internal/store"
	"github.com/theater-rt/theater/internal/theaterid"
)

// Service is the theater runtime actor behavior. Every spawn/stop/restart
// and every supervision query is funneled through this single actor so the
// actors map and the parent→children edges never need their own lock, per
// spec §9's "global mutable registry → message-passing service" pattern
// (already used by internal/router and internal/store).
type Service struct {
	actors map[theaterid.ActorId]*actorProcess

	registryStore *registry.Store
	routerClient  *router.Client
	storeClient   *store.Client
	handlers      *handler.Registry
	newComponent  actorruntime.ComponentFactory

	shutdown *shutdownctl.Controller

	// self is set by StartTheaterRuntime once the actor is started, so Spawn can hand
	// every actor's CommandSender a Client pointed back at this same
	// actor.
	self *Client
}

// Config configures a Service.
type Config struct {
	RegistryStore *registry.Store
	RouterClient  *router.Client
	StoreClient   *store.Client
	Handlers      *handler.Registry
	NewComponent  actorruntime.ComponentFactory
	Shutdown      *shutdownctl.Controller
}

// NewService creates an empty theater runtime service.
func NewService(cfg Config) *Service {
	return &Service{
		actors:        make(map[theaterid.ActorId]*actorProcess),
		registryStore: cfg.RegistryStore,
		routerClient:  cfg.RouterClient,
		storeClient:   cfg.StoreClient,
		handlers:      cfg.Handlers,
		newComponent:  cfg.NewComponent,
		shutdown:      cfg.Shutdown,
	}
}

// Receive implements actor.ActorBehavior by dispatching to type-specific
// handlers.
func (s *Service) Receive(ctx context.Context,
	msg TheaterRequest) fn.Result[TheaterResponse] {

	switch m := msg.(type) {
	case SpawnActorRequest:
		return fn.Ok[TheaterResponse](s.handleSpawn(ctx, m))

	case StopActorRequest:
		return fn.Ok[TheaterResponse](s.handleStop(ctx, m))

	case RestartActorRequest:
		return fn.Ok[TheaterResponse](s.handleRestart(ctx, m))

	case ListActorsRequest:
		return fn.Ok[TheaterResponse](s.handleList())

	case GetActorStatusRequest:
		return fn.Ok[TheaterResponse](s.handleStatus(m))

	case GetActorStateRequest:
		return fn.Ok[TheaterResponse](s.handleState(m))

	case GetActorEventsRequest:
		return fn.Ok[TheaterResponse](s.handleEvents(m))

	case GetChildStateRequest:
		return fn.Ok[TheaterResponse](s.handleChildState(m))

	case ListChildrenRequest:
		return fn.Ok[TheaterResponse](s.handleListChildren(m))

	case GetChildEventsRequest:
		return fn.Ok[TheaterResponse](s.handleChildEvents(m))

	case ReportChildFailedRequest:
		return fn.Ok[TheaterResponse](s.handleReportChildFailed(ctx, m))

	case ShutdownAllRequest:
		return fn.Ok[TheaterResponse](s.handleShutdownAll(ctx))

	default:
		return fn.Err[TheaterResponse](fmt.Errorf(
			"unknown message type: %T", msg,
		))
	}
}

func (s *Service) handleSpawn(ctx context.Context, req SpawnActorRequest) SpawnActorResponse {
	parentPerms := req.OperatorPermissions

	if req.ParentID.IsSome() {
		parentID := req.ParentID.UnwrapOr(theaterid.ActorId{})

		parent, ok := s.actors[parentID]
		if !ok {
			return SpawnActorResponse{Err: fmt.Errorf(
				"%w: parent %s", ErrActorNotFound, parentID,
			)}
		}

		parentPerms = parent.runtime.Permissions()
	}

	actorID := theaterid.NewActorId()

	cfg := actorruntime.Config{
		Manifest:          req.Manifest,
		ParentID:          req.ParentID,
		ParentPermissions: parentPerms,
		Registry:          s.handlers,
		NewComponent:      s.newComponent,
		StoreClient:       s.storeClient,
		RouterClient:      s.routerClient,
		CommandSender:     newCommandSender(s.self, actorID),
		ShutdownGrace:     durationFromMs(req.ShutdownGrace),
		ExistingActorID:   fn.Some(actorID),
	}

	rt, err := actorruntime.Spawn(ctx, cfg)
	if err != nil {
		return SpawnActorResponse{Err: err}
	}

	proc := newActorProcess(rt, req.Manifest, req.ParentID)
	s.actors[actorID] = proc

	if req.ParentID.IsSome() {
		parentID := req.ParentID.UnwrapOr(theaterid.ActorId{})
		s.actors[parentID].children[actorID] = struct{}{}
	}

	s.persistProcess(ctx, actorID, proc)

	return SpawnActorResponse{ActorID: actorID}
}

func (s *Service) handleStop(ctx context.Context, req StopActorRequest) StopActorResponse {
	if _, ok := s.actors[req.ActorID]; !ok {
		return StopActorResponse{Err: fmt.Errorf(
			"%w: %s", ErrActorNotFound, req.ActorID,
		)}
	}

	s.stopRecursive(ctx, req.ActorID)

	return StopActorResponse{}
}

// stopRecursive stops id's descendants depth-first before id itself, per
// spec §4.9 ("stopping an actor recursively stops its descendants,
// depth-first, each with its own grace period").
func (s *Service) stopRecursive(ctx context.Context, id theaterid.ActorId) {
	proc, ok := s.actors[id]
	if !ok {
		return
	}

	for childID := range proc.children {
		s.stopRecursive(ctx, childID)
	}

	if proc.status == StatusRunning {
		proc.lastState = proc.runtime.Controller().State()

		if err := proc.runtime.Shutdown(ctx); err != nil {
			log.Errorf("stopping actor %s: %v", id, err)
		}
	}

	proc.status = StatusStopped

	if proc.parentID.IsSome() {
		parentID := proc.parentID.UnwrapOr(theaterid.ActorId{})
		if parent, ok := s.actors[parentID]; ok {
			delete(parent.children, id)
		}
	}

	delete(s.actors, id)
	s.persistProcess(ctx, id, proc)
}

func (s *Service) handleRestart(ctx context.Context, req RestartActorRequest) RestartActorResponse {
	proc, ok := s.actors[req.ActorID]
	if !ok {
		return RestartActorResponse{Err: fmt.Errorf(
			"%w: %s", ErrActorNotFound, req.ActorID,
		)}
	}

	if proc.status == StatusRunning {
		return RestartActorResponse{Err: fmt.Errorf(
			"%w: %s", ErrAlreadyRunning, req.ActorID,
		)}
	}

	manifest := proc.manifest
	if proc.lastState != nil {
		manifest.InitState = proc.lastState
	}

	parentPerms := proc.runtime.Permissions()
	if proc.parentID.IsSome() {
		parentID := proc.parentID.UnwrapOr(theaterid.ActorId{})
		if parent, ok := s.actors[parentID]; ok {
			parentPerms = parent.runtime.Permissions()
		}
	}

	cfg := actorruntime.Config{
		Manifest:          manifest,
		ParentID:          proc.parentID,
		ParentPermissions: parentPerms,
		Registry:          s.handlers,
		NewComponent:      s.newComponent,
		StoreClient:       s.storeClient,
		RouterClient:      s.routerClient,
		CommandSender:     newCommandSender(s.self, req.ActorID),
		ExistingActorID:   fn.Some(req.ActorID),
	}

	rt, err := actorruntime.Spawn(ctx, cfg)
	if err != nil {
		return RestartActorResponse{Err: err}
	}

	newProc := newActorProcess(rt, manifest, proc.parentID)
	newProc.children = proc.children
	s.actors[req.ActorID] = newProc

	s.persistProcess(ctx, req.ActorID, newProc)

	return RestartActorResponse{ActorID: req.ActorID}
}

func (s *Service) handleList() ListActorsResponse {
	out := make([]ActorSummary, 0, len(s.actors))
	for id, proc := range s.actors {
		out = append(out, proc.summary(id))
	}

	return ListActorsResponse{Actors: out}
}

func (s *Service) handleStatus(req GetActorStatusRequest) GetActorStatusResponse {
	proc, ok := s.actors[req.ActorID]
	if !ok {
		return GetActorStatusResponse{Err: fmt.Errorf(
			"%w: %s", ErrActorNotFound, req.ActorID,
		)}
	}

	return GetActorStatusResponse{Status: proc.status}
}

func (s *Service) handleState(req GetActorStateRequest) GetActorStateResponse {
	proc, ok := s.actors[req.ActorID]
	if !ok {
		return GetActorStateResponse{Err: fmt.Errorf(
			"%w: %s", ErrActorNotFound, req.ActorID,
		)}
	}

	if proc.status != StatusRunning {
		return GetActorStateResponse{State: proc.lastState}
	}

	return GetActorStateResponse{State: proc.runtime.Controller().State()}
}

func (s *Service) handleEvents(req GetActorEventsRequest) GetActorEventsResponse {
	proc, ok := s.actors[req.ActorID]
	if !ok {
		return GetActorEventsResponse{Err: fmt.Errorf(
			"%w: %s", ErrActorNotFound, req.ActorID,
		)}
	}

	if proc.status != StatusRunning {
		return GetActorEventsResponse{Events: proc.runtime.Store().Chain().Events()}
	}

	return GetActorEventsResponse{Events: proc.runtime.Controller().Chain()}
}

func (s *Service) childOf(parentID, childID theaterid.ActorId) (*actorProcess, error) {
	parent, ok := s.actors[parentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrActorNotFound, parentID)
	}

	if _, ok := parent.children[childID]; !ok {
		return nil, fmt.Errorf("%w: %s is not a child of %s",
			ErrNotParent, childID, parentID)
	}

	return s.actors[childID], nil
}

func (s *Service) handleChildState(req GetChildStateRequest) GetChildStateResponse {
	if _, err := s.childOf(req.ParentID, req.ChildID); err != nil {
		return GetChildStateResponse{Err: err}
	}

	resp := s.handleState(GetActorStateRequest{ActorID: req.ChildID})

	return GetChildStateResponse{State: resp.State, Err: resp.Err}
}

func (s *Service) handleListChildren(req ListChildrenRequest) ListChildrenResponse {
	parent, ok := s.actors[req.ParentID]
	if !ok {
		return ListChildrenResponse{Err: fmt.Errorf(
			"%w: %s", ErrActorNotFound, req.ParentID,
		)}
	}

	out := make([]ActorSummary, 0, len(parent.children))
	for childID := range parent.children {
		if child, ok := s.actors[childID]; ok {
			out = append(out, child.summary(childID))
		}
	}

	return ListChildrenResponse{Children: out}
}

func (s *Service) handleChildEvents(req GetChildEventsRequest) GetChildEventsResponse {
	if _, err := s.childOf(req.ParentID, req.ChildID); err != nil {
		return GetChildEventsResponse{Err: err}
	}

	resp := s.handleEvents(GetActorEventsRequest{ActorID: req.ChildID})

	return GetChildEventsResponse{Events: resp.Events, Err: resp.Err}
}

// handleReportChildFailed is a failing actor's own self-report (sent
// through its CommandSender, scoped to its own id as req.ChildID). It
// records runtime/actor-failed on the failing actor's own chain via
// actorruntime.Runtime.RecordFailed, then, if it has a parent, also
// appends actor-child-failed to the parent's chain carrying the child id,
// error kind, and latest chain hash, per spec §4.9.
func (s *Service) handleReportChildFailed(ctx context.Context, req ReportChildFailedRequest) ReportChildFailedResponse {
	child, ok := s.actors[req.ChildID]
	if !ok {
		return ReportChildFailedResponse{Err: fmt.Errorf(
			"%w: %s", ErrActorNotFound, req.ChildID,
		)}
	}

	child.status = StatusFailed
	child.runtime.RecordFailed(req.ErrorKind, req.Message)

	if !child.parentID.IsSome() {
		return ReportChildFailedResponse{}
	}

	parentID := child.parentID.UnwrapOr(theaterid.ActorId{})

	parent, ok := s.actors[parentID]
	if !ok {
		return ReportChildFailedResponse{}
	}

	var headHash string
	if head, ok := child.runtime.Store().Chain().Head(); ok {
		headHash = head.Hash.String()
	}

	ev := childFailedEvent{
		ChildID:   req.ChildID.String(),
		ErrorKind: req.ErrorKind,
		Message:   req.Message,
		ChainHead: headHash,
	}

	data, err := marshalEvent(ev)
	if err != nil {
		log.Errorf("encoding actor-child-failed event: %v", err)
		return ReportChildFailedResponse{Err: err}
	}

	parent.runtime.Store().Chain().Append("runtime/actor-child-failed", data, nil)

	return ReportChildFailedResponse{}
}

// handleShutdownAll implements spec §4.9's "Global shutdown": signal
// global ShutdownController → broadcast to all actor-local controllers →
// wait bounded → abort stragglers. The bounded wait and forced abort are
// actorruntime.Runtime.Shutdown's own job per actor (it already bounds on
// its local ShutdownController's grace period); this method's
// responsibility is purely to signal and then stop every root, depth-first,
// so descendants always stop before their parents.
func (s *Service) handleShutdownAll(ctx context.Context) ShutdownAllResponse {
	if s.shutdown != nil {
		s.shutdown.Signal()
	}

	var roots []theaterid.ActorId
	for id, proc := range s.actors {
		if proc.parentID.IsNone() {
			roots = append(roots, id)
		}
	}

	for _, id := range roots {
		s.stopRecursive(ctx, id)
	}

	return ShutdownAllResponse{}
}

// persistProcess writes a durable projection of proc to the registry, best
// effort: the registry exists for restart bookkeeping (spec.md's
// supplemented "actor-process restart recovery" feature), not as the
// source of truth for the live supervision tree, so a persistence failure
// is logged rather than surfaced to the caller.
func (s *Service) persistProcess(ctx context.Context, id theaterid.ActorId, proc *actorProcess) {
	if s.registryStore == nil {
		return
	}

	rec := registry.ActorProcessRecord{
		ActorID:      id,
		ComponentRef: proc.manifest.ComponentRef,
		ManifestName: proc.manifest.Name,
		Permissions:  proc.runtime.Permissions(),
		Status:       registry.ActorProcessStatus(proc.status),
		CreatedAt:    nowUnixMilli(),
		UpdatedAt:    nowUnixMilli(),
	}

	if proc.parentID.IsSome() {
		parentID := proc.parentID.UnwrapOr(theaterid.ActorId{})
		rec.ParentID = &parentID
	}

	if err := s.registryStore.Save(ctx, rec); err != nil {
		log.Errorf("persisting actor process %s: %v", id, err)
	}
}

func durationFromMs(ms int64) time.Duration {
	if ms <= 0 {
		return 0
	}

	return time.Duration(ms) * time.Millisecond
}
