package theater

import (
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/theater-rt/theater/internal/actorruntime"
	"github.com/theater-rt/theater/internal/baselib/actor"
	"github.com/theater-rt/theater/internal/chain"
	"github.com/theater-rt/theater/internal/permission"
	"github.com/theater-rt/theater/internal/theaterid"
)

// ServiceKey is the service key for the theater runtime actor.
var ServiceKey = actor.NewServiceKey[TheaterRequest, TheaterResponse](
	"theater-runtime",
)

// TheaterRequest is the sealed union of every command TheaterRuntime
// accepts, per spec §4.9's `theater_tx/theater_rx` inbound command channel.
type TheaterRequest interface {
	actor.Message
	isTheaterRequest()
}

func (SpawnActorRequest) isTheaterRequest()      {}
func (StopActorRequest) isTheaterRequest()       {}
func (RestartActorRequest) isTheaterRequest()    {}
func (ListActorsRequest) isTheaterRequest()      {}
func (GetActorStatusRequest) isTheaterRequest()  {}
func (GetActorStateRequest) isTheaterRequest()   {}
func (GetActorEventsRequest) isTheaterRequest()  {}
func (GetChildStateRequest) isTheaterRequest()   {}
func (ListChildrenRequest) isTheaterRequest()    {}
func (GetChildEventsRequest) isTheaterRequest()  {}
func (ReportChildFailedRequest) isTheaterRequest() {}
func (ShutdownAllRequest) isTheaterRequest()      {}

// TheaterResponse is the sealed union of TheaterRuntime's replies.
type TheaterResponse interface {
	isTheaterResponse()
}

func (SpawnActorResponse) isTheaterResponse()      {}
func (StopActorResponse) isTheaterResponse()       {}
func (RestartActorResponse) isTheaterResponse()    {}
func (ListActorsResponse) isTheaterResponse()      {}
func (GetActorStatusResponse) isTheaterResponse()  {}
func (GetActorStateResponse) isTheaterResponse()   {}
func (GetActorEventsResponse) isTheaterResponse()  {}
func (GetChildStateResponse) isTheaterResponse()   {}
func (ListChildrenResponse) isTheaterResponse()    {}
func (GetChildEventsResponse) isTheaterResponse()  {}
func (ReportChildFailedResponse) isTheaterResponse() {}
func (ShutdownAllResponse) isTheaterResponse()      {}

// ActorStatus mirrors the registry's persisted status, surfaced here so
// callers of the live runtime don't need to import internal/registry.
type ActorStatus string

const (
	StatusRunning ActorStatus = "running"
	StatusFailed  ActorStatus = "failed"
	StatusStopped ActorStatus = "stopped"
)

// SpawnActorRequest spawns a new actor from manifest. If ParentID is Some,
// the manifest's permissions are validated against that parent's own
// effective permissions and the new actor is recorded as its child; if
// None, OperatorPermissions is used as the grant for a top-level actor
// spawned directly by the operator (CLI or management channel).
type SpawnActorRequest struct {
	actor.BaseMessage

	Manifest             actorruntime.Manifest
	ParentID             fn.Option[theaterid.ActorId]
	OperatorPermissions  permission.Permissions
	ShutdownGrace        int64
}

func (SpawnActorRequest) MessageType() string { return "SpawnActorRequest" }

// SpawnActorResponse reports the newly spawned actor's id, or Err.
type SpawnActorResponse struct {
	ActorID theaterid.ActorId
	Err     error
}

// StopActorRequest stops actorID and, recursively, every descendant.
type StopActorRequest struct {
	actor.BaseMessage

	ActorID theaterid.ActorId
}

func (StopActorRequest) MessageType() string { return "StopActorRequest" }

// StopActorResponse acknowledges a StopActorRequest.
type StopActorResponse struct {
	Err error
}

// RestartActorRequest re-spawns a no-longer-running actorID under the same
// identity, same manifest, and the last state it reported before stopping.
// A still-running actor is rejected with ErrAlreadyRunning.
type RestartActorRequest struct {
	actor.BaseMessage

	ActorID theaterid.ActorId
}

func (RestartActorRequest) MessageType() string { return "RestartActorRequest" }

// RestartActorResponse reports the restarted actor's id (unchanged from the
// request) or Err.
type RestartActorResponse struct {
	ActorID theaterid.ActorId
	Err     error
}

// ListActorsRequest lists every actor the runtime currently knows about.
type ListActorsRequest struct {
	actor.BaseMessage
}

func (ListActorsRequest) MessageType() string { return "ListActorsRequest" }

// ActorSummary is one ListActors/ListChildren row.
type ActorSummary struct {
	ActorID      theaterid.ActorId
	ParentID     fn.Option[theaterid.ActorId]
	ManifestName string
	Status       ActorStatus
}

// ListActorsResponse is every currently known actor.
type ListActorsResponse struct {
	Actors []ActorSummary
}

// GetActorStatusRequest asks for a single actor's status.
type GetActorStatusRequest struct {
	actor.BaseMessage

	ActorID theaterid.ActorId
}

func (GetActorStatusRequest) MessageType() string { return "GetActorStatusRequest" }

// GetActorStatusResponse reports actorID's status, or Err if unknown.
type GetActorStatusResponse struct {
	Status ActorStatus
	Err    error
}

// GetActorStateRequest asks for the actor's latest known state bytes.
type GetActorStateRequest struct {
	actor.BaseMessage

	ActorID theaterid.ActorId
}

func (GetActorStateRequest) MessageType() string { return "GetActorStateRequest" }

// GetActorStateResponse carries the state snapshot, or Err.
type GetActorStateResponse struct {
	State []byte
	Err   error
}

// GetActorEventsRequest asks for the actor's full event chain.
type GetActorEventsRequest struct {
	actor.BaseMessage

	ActorID theaterid.ActorId
}

func (GetActorEventsRequest) MessageType() string { return "GetActorEventsRequest" }

// GetActorEventsResponse carries the chain snapshot, or Err.
type GetActorEventsResponse struct {
	Events []chain.ChainEvent
	Err    error
}

// GetChildStateRequest/ListChildrenRequest/GetChildEventsRequest are the
// supervisor-scoped variants of the equivalent plain queries: ParentID must
// actually be the parent of ChildID (where applicable), per spec §4.9's
// "parent actor's supervision host-function interface".
type GetChildStateRequest struct {
	actor.BaseMessage

	ParentID theaterid.ActorId
	ChildID  theaterid.ActorId
}

func (GetChildStateRequest) MessageType() string { return "GetChildStateRequest" }

// GetChildStateResponse mirrors GetActorStateResponse.
type GetChildStateResponse struct {
	State []byte
	Err   error
}

// ListChildrenRequest lists ParentID's direct children.
type ListChildrenRequest struct {
	actor.BaseMessage

	ParentID theaterid.ActorId
}

func (ListChildrenRequest) MessageType() string { return "ListChildrenRequest" }

// ListChildrenResponse mirrors ListActorsResponse, scoped to one parent.
type ListChildrenResponse struct {
	Children []ActorSummary
	Err      error
}

// GetChildEventsRequest mirrors GetActorEventsRequest, scoped to a child.
type GetChildEventsRequest struct {
	actor.BaseMessage

	ParentID theaterid.ActorId
	ChildID  theaterid.ActorId
}

func (GetChildEventsRequest) MessageType() string { return "GetChildEventsRequest" }

// GetChildEventsResponse mirrors GetActorEventsResponse.
type GetChildEventsResponse struct {
	Events []chain.ChainEvent
	Err    error
}

// ReportChildFailedRequest is sent internally (never by an external
// caller) by an actor's CommandSender when that actor's handler code reports
// the actor itself as failed; it drives the actor-child-failed event on the
// parent's chain described in spec §4.9.
type ReportChildFailedRequest struct {
	actor.BaseMessage

	ChildID   theaterid.ActorId
	ErrorKind string
	Message   string
}

func (ReportChildFailedRequest) MessageType() string { return "ReportChildFailedRequest" }

// ReportChildFailedResponse acknowledges a ReportChildFailedRequest.
type ReportChildFailedResponse struct {
	Err error
}

// ShutdownAllRequest signals the global ShutdownController and recursively
// stops every top-level actor (and therefore, transitively, every
// descendant), per spec §4.9's "Global shutdown" paragraph.
type ShutdownAllRequest struct {
	actor.BaseMessage
}

func (ShutdownAllRequest) MessageType() string { return "ShutdownAllRequest" }

// ShutdownAllResponse acknowledges a ShutdownAllRequest.
type ShutdownAllResponse struct{}
