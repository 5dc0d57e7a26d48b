package actorstore

import (
	"github.com/theater-rt/theater/internal/theaterid"
)

// The types below are the wire vocabulary a supervisor-capable Handler uses
// to reach TheaterCommand without actorstore (or internal/handler, which
// depends on it) importing internal/theater directly — theater already
// imports actorruntime, and actorruntime imports handler, so a handler ->
// theater import would close a cycle. theater's own CommandSender
// implementation type-switches on these alongside its native command
// structs.

// SupervisorStopCmd stops one of the sending actor's children.
type SupervisorStopCmd struct {
	ChildID theaterid.ActorId
}

// SupervisorRestartCmd restarts one of the sending actor's children.
type SupervisorRestartCmd struct {
	ChildID theaterid.ActorId
}

// SupervisorListChildrenCmd lists the sending actor's direct children.
type SupervisorListChildrenCmd struct{}

// SupervisorGetChildStateCmd fetches one child's state snapshot.
type SupervisorGetChildStateCmd struct {
	ChildID theaterid.ActorId
}

// SupervisorGetChildEventsCmd fetches one child's event chain.
type SupervisorGetChildEventsCmd struct {
	ChildID theaterid.ActorId
}

// SupervisorReportSelfFailedCmd is sent by an actor's own handler code
// (e.g. a panic-recovery or unrecoverable-trap host function) to report
// that this actor itself has failed, per spec §4.9.
type SupervisorReportSelfFailedCmd struct {
	ErrorKind string
	Message   string
}
