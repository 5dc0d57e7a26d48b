package theater

import "errors"

var (
	// ErrActorNotFound is returned when a command names an ActorId the
	// runtime has no ActorProcess for.
	ErrActorNotFound = errors.New("actor not found")

	// ErrNotParent is returned when a command scoped to a parent's
	// children (stop, restart, get-state, get-events via the supervisor
	// surface) names an actor that is not actually a child of the
	// caller.
	ErrNotParent = errors.New("actor is not a child of the caller")

	// ErrAlreadyRunning is returned by RestartActor when the target
	// actor's runtime is still alive (restart is for actors that have
	// already stopped or failed).
	ErrAlreadyRunning = errors.New("actor is already running")
)
