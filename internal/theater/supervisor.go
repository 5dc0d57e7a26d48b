package theater

import (
	"context"
	"fmt"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/theater-rt/theater/internal/actorruntime"
	"github.com/theater-rt/theater/internal/actorstore"
	"github.com/theater-rt/theater/internal/chain"
	"github.com/theater-rt/theater/internal/permission"
	"github.com/theater-rt/theater/internal/theaterid"
)

// SupervisorOps is the typed Go surface spec §4.9 describes as "the parent
// actor's supervision host-function interface": spawn, list, stop,
// restart, get-state, get-events, all implicitly scoped to the calling
// actor's own children. Theater has no built-in restart policy; a handler
// wiring this into wasm host functions lets the parent actor's own code
// decide whether and when to call Restart (spec.md's supplemented
// "supervisor host interface" feature).
type SupervisorOps interface {
	Spawn(ctx context.Context, manifest actorruntime.Manifest) (theaterid.ActorId, error)
	List(ctx context.Context) ([]ActorSummary, error)
	Stop(ctx context.Context, child theaterid.ActorId) error
	Restart(ctx context.Context, child theaterid.ActorId) (theaterid.ActorId, error)
	GetState(ctx context.Context, child theaterid.ActorId) ([]byte, error)
	GetEvents(ctx context.Context, child theaterid.ActorId) ([]chain.ChainEvent, error)
}

// supervisorOps implements SupervisorOps for one specific actor (selfID),
// scoping every call to that actor's children via Client's supervisor-
// prefixed methods.
type supervisorOps struct {
	client *Client
	selfID theaterid.ActorId
}

// NewSupervisorOps returns the supervisor surface for the actor identified
// by selfID, talking to the theater runtime through client.
func NewSupervisorOps(client *Client, selfID theaterid.ActorId) SupervisorOps {
	return &supervisorOps{client: client, selfID: selfID}
}

func (o *supervisorOps) Spawn(ctx context.Context, manifest actorruntime.Manifest) (theaterid.ActorId, error) {
	resp, err := o.client.SpawnActor(ctx, manifest, fn.Some(o.selfID), permission.None())
	if err != nil {
		return theaterid.ActorId{}, err
	}

	return resp.ActorID, resp.Err
}

func (o *supervisorOps) List(ctx context.Context) ([]ActorSummary, error) {
	resp, err := o.client.ListChildren(ctx, o.selfID)
	if err != nil {
		return nil, err
	}

	return resp.Children, resp.Err
}

func (o *supervisorOps) Stop(ctx context.Context, child theaterid.ActorId) error {
	if _, err := o.client.GetChildState(ctx, o.selfID, child); err != nil {
		return err
	}

	resp, err := o.client.StopActor(ctx, child)
	if err != nil {
		return err
	}

	return resp.Err
}

func (o *supervisorOps) Restart(ctx context.Context, child theaterid.ActorId) (theaterid.ActorId, error) {
	if _, err := o.client.GetChildState(ctx, o.selfID, child); err != nil {
		return theaterid.ActorId{}, err
	}

	resp, err := o.client.RestartActor(ctx, child)
	if err != nil {
		return theaterid.ActorId{}, err
	}

	return resp.ActorID, resp.Err
}

func (o *supervisorOps) GetState(ctx context.Context, child theaterid.ActorId) ([]byte, error) {
	resp, err := o.client.GetChildState(ctx, o.selfID, child)
	if err != nil {
		return nil, err
	}

	return resp.State, resp.Err
}

func (o *supervisorOps) GetEvents(ctx context.Context, child theaterid.ActorId) ([]chain.ChainEvent, error) {
	resp, err := o.client.GetChildEvents(ctx, o.selfID, child)
	if err != nil {
		return nil, err
	}

	return resp.Events, resp.Err
}

// commandSender implements actorstore.CommandSender for one actor,
// translating the generic cmd any into a typed theater Client call. This
// is the indirection actorstore's own doc comment explains: actorstore
// cannot import theater (theater already imports actorstore via
// actorruntime), so the command vocabulary below is theater's, and a
// supervisor-capable handler sends these through actorstore.Store.
// TheaterCommand rather than calling SupervisorOps directly.
type commandSender struct {
	client *Client
	selfID theaterid.ActorId
}

func newCommandSender(client *Client, selfID theaterid.ActorId) *commandSender {
	return &commandSender{client: client, selfID: selfID}
}

// SpawnChildCmd asks the sending actor's own TheaterRuntime entry to spawn
// a new child of it.
type SpawnChildCmd struct {
	Manifest actorruntime.Manifest
}

// StopChildCmd stops one of the sending actor's children.
type StopChildCmd struct {
	ChildID theaterid.ActorId
}

// RestartChildCmd restarts one of the sending actor's children.
type RestartChildCmd struct {
	ChildID theaterid.ActorId
}

// ListChildrenCmd lists the sending actor's children.
type ListChildrenCmd struct{}

// GetChildStateCmd fetches one child's state snapshot.
type GetChildStateCmd struct {
	ChildID theaterid.ActorId
}

// GetChildEventsCmd fetches one child's event chain.
type GetChildEventsCmd struct {
	ChildID theaterid.ActorId
}

// ReportSelfFailedCmd is sent by an actor's own handler code (e.g. a panic
// recovery or unrecoverable-trap host function) to report that this actor
// itself has failed, per spec §4.9.
type ReportSelfFailedCmd struct {
	ErrorKind string
	Message   string
}

func (cs *commandSender) Send(ctx context.Context, cmd any) (any, error) {
	if cs == nil || cs.client == nil {
		return nil, nil
	}

	ops := NewSupervisorOps(cs.client, cs.selfID)

	switch c := cmd.(type) {
	case SpawnChildCmd:
		return ops.Spawn(ctx, c.Manifest)

	case StopChildCmd:
		return nil, ops.Stop(ctx, c.ChildID)

	case RestartChildCmd:
		return ops.Restart(ctx, c.ChildID)

	case ListChildrenCmd:
		return ops.List(ctx)

	case GetChildStateCmd:
		return ops.GetState(ctx, c.ChildID)

	case GetChildEventsCmd:
		return ops.GetEvents(ctx, c.ChildID)

	case ReportSelfFailedCmd:
		resp, err := cs.client.ReportChildFailed(ctx, cs.selfID, c.ErrorKind, c.Message)
		return resp, err

	// actorstore's DTO vocabulary: the same operations, reachable from
	// internal/handler without that package importing theater (see
	// actorstore/commands.go's doc comment for why).
	case actorstore.SupervisorStopCmd:
		return nil, ops.Stop(ctx, c.ChildID)

	case actorstore.SupervisorRestartCmd:
		return ops.Restart(ctx, c.ChildID)

	case actorstore.SupervisorListChildrenCmd:
		return ops.List(ctx)

	case actorstore.SupervisorGetChildStateCmd:
		return ops.GetState(ctx, c.ChildID)

	case actorstore.SupervisorGetChildEventsCmd:
		return ops.GetEvents(ctx, c.ChildID)

	case actorstore.SupervisorReportSelfFailedCmd:
		resp, err := cs.client.ReportChildFailed(ctx, cs.selfID, c.ErrorKind, c.Message)
		return resp, err

	default:
		return nil, fmt.Errorf("unknown theater command: %T", cmd)
	}
}
