package theater

import (
	"context"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/theater-rt/theater/internal/actorruntime"
	"github.com/theater-rt/theater/internal/actorutil"
	"github.com/theater-rt/theater/internal/permission"
	"github.com/theater-rt/theater/internal/theaterid"
)

// Client provides actor-based theater runtime operations. It wraps a
// theater actor reference and provides type-safe methods for each command
// in spec §4.9.
type Client struct {
	ref ActorRef
}

// NewClient creates a new theater client wrapping the given actor
// reference.
func NewClient(ref ActorRef) *Client {
	return &Client{ref: ref}
}

// SpawnActor spawns a top-level actor (parentID is None) or a child (Some),
// per spec §4.9.
func (c *Client) SpawnActor(
	ctx context.Context, manifest actorruntime.Manifest,
	parentID fn.Option[theaterid.ActorId], operatorPermissions permission.Permissions,
) (SpawnActorResponse, error) {

	return actorutil.AskAwaitTyped[
		TheaterRequest, TheaterResponse, SpawnActorResponse,
	](ctx, c.ref, SpawnActorRequest{
		Manifest:            manifest,
		ParentID:            parentID,
		OperatorPermissions: operatorPermissions,
	})
}

// StopActor stops actorID and every descendant, recursively.
func (c *Client) StopActor(
	ctx context.Context, actorID theaterid.ActorId,
) (StopActorResponse, error) {
	return actorutil.AskAwaitTyped[
		TheaterRequest, TheaterResponse, StopActorResponse,
	](ctx, c.ref, StopActorRequest{ActorID: actorID})
}

// RestartActor re-spawns a no-longer-running actorID under the same
// identity; a still-running actor is rejected with ErrAlreadyRunning.
func (c *Client) RestartActor(
	ctx context.Context, actorID theaterid.ActorId,
) (RestartActorResponse, error) {
	return actorutil.AskAwaitTyped[
		TheaterRequest, TheaterResponse, RestartActorResponse,
	](ctx, c.ref, RestartActorRequest{ActorID: actorID})
}

// ListActors lists every actor the runtime currently knows about.
func (c *Client) ListActors(ctx context.Context) (ListActorsResponse, error) {
	return actorutil.AskAwaitTyped[
		TheaterRequest, TheaterResponse, ListActorsResponse,
	](ctx, c.ref, ListActorsRequest{})
}

// GetActorStatus asks for a single actor's status.
func (c *Client) GetActorStatus(
	ctx context.Context, actorID theaterid.ActorId,
) (GetActorStatusResponse, error) {
	return actorutil.AskAwaitTyped[
		TheaterRequest, TheaterResponse, GetActorStatusResponse,
	](ctx, c.ref, GetActorStatusRequest{ActorID: actorID})
}

// GetActorState asks for an actor's latest known state bytes.
func (c *Client) GetActorState(
	ctx context.Context, actorID theaterid.ActorId,
) (GetActorStateResponse, error) {
	return actorutil.AskAwaitTyped[
		TheaterRequest, TheaterResponse, GetActorStateResponse,
	](ctx, c.ref, GetActorStateRequest{ActorID: actorID})
}

// GetActorEvents asks for an actor's full event chain.
func (c *Client) GetActorEvents(
	ctx context.Context, actorID theaterid.ActorId,
) (GetActorEventsResponse, error) {
	return actorutil.AskAwaitTyped[
		TheaterRequest, TheaterResponse, GetActorEventsResponse,
	](ctx, c.ref, GetActorEventsRequest{ActorID: actorID})
}

// GetChildState is GetActorState scoped to a supervisor's own child.
func (c *Client) GetChildState(
	ctx context.Context, parentID, childID theaterid.ActorId,
) (GetChildStateResponse, error) {
	return actorutil.AskAwaitTyped[
		TheaterRequest, TheaterResponse, GetChildStateResponse,
	](ctx, c.ref, GetChildStateRequest{ParentID: parentID, ChildID: childID})
}

// ListChildren lists a supervisor's direct children.
func (c *Client) ListChildren(
	ctx context.Context, parentID theaterid.ActorId,
) (ListChildrenResponse, error) {
	return actorutil.AskAwaitTyped[
		TheaterRequest, TheaterResponse, ListChildrenResponse,
	](ctx, c.ref, ListChildrenRequest{ParentID: parentID})
}

// GetChildEvents is GetActorEvents scoped to a supervisor's own child.
func (c *Client) GetChildEvents(
	ctx context.Context, parentID, childID theaterid.ActorId,
) (GetChildEventsResponse, error) {
	return actorutil.AskAwaitTyped[
		TheaterRequest, TheaterResponse, GetChildEventsResponse,
	](ctx, c.ref, GetChildEventsRequest{ParentID: parentID, ChildID: childID})
}

// Shutdown signals the global ShutdownController and recursively stops
// every actor, per spec §4.9.
func (c *Client) Shutdown(ctx context.Context) error {
	_, err := actorutil.AskAwaitTyped[
		TheaterRequest, TheaterResponse, ShutdownAllResponse,
	](ctx, c.ref, ShutdownAllRequest{})

	return err
}

// ReportChildFailed is called by an actor's CommandSender when the actor
// reports itself as failed. The service marks the actor failed, has
// RecordFailed append its own runtime/actor-failed event, and records
// actor-child-failed on the parent's chain (spec §4.9).
func (c *Client) ReportChildFailed(
	ctx context.Context, childID theaterid.ActorId, errorKind, message string,
) (ReportChildFailedResponse, error) {
	return actorutil.AskAwaitTyped[
		TheaterRequest, TheaterResponse, ReportChildFailedResponse,
	](ctx, c.ref, ReportChildFailedRequest{
		ChildID: childID, ErrorKind: errorKind, Message: message,
	})
}
