package theater

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
	"github.com/theater-rt/theater/internal/actorruntime"
	"github.com/theater-rt/theater/internal/handler"
	"github.com/theater-rt/theater/internal/permission"
	"github.com/theater-rt/theater/internal/router"
	"github.com/theater-rt/theater/internal/shutdownctl"
	"github.com/theater-rt/theater/internal/store"
	"github.com/theater-rt/theater/internal/theaterid"
)

// wireEnvelope/wireResult mirror execctl's unexported wire shapes by field
// name, as internal/actorruntime's own tests do, so a fake wasm function
// can decode what the executor actually sends.
type wireEnvelope struct {
	State  []byte `json:"state,omitempty"`
	Params []byte `json:"params"`
}

type wireResult struct {
	NewState []byte `json:"new_state,omitempty"`
	Result   []byte `json:"result"`
}

type fakeComponent struct {
	handle handler.ActorHandle
	linked map[string]handler.HostFunction
}

func newFakeComponent(h handler.ActorHandle) *fakeComponent {
	return &fakeComponent{handle: h, linked: make(map[string]handler.HostFunction)}
}

func (c *fakeComponent) LinkHostFunction(ns, name string, fn handler.HostFunction) error {
	c.linked[ns+"/"+name] = fn
	return nil
}

func (c *fakeComponent) Handle() handler.ActorHandle { return c.handle }

type fakeInstance struct {
	exports map[string]handler.WasmFunction
}

func newFakeInstance() *fakeInstance {
	return &fakeInstance{exports: make(map[string]handler.WasmFunction)}
}

func (i *fakeInstance) ExportedFunction(name string) (handler.WasmFunction, bool) {
	fn, ok := i.exports[name]
	return fn, ok
}

func echoInit(ctx context.Context, raw []byte) ([]byte, error) {
	return json.Marshal(wireResult{Result: []byte(`"ok"`)})
}

func newTestRouterClient(t *testing.T) *router.Client {
	t.Helper()

	ref := router.StartRouterActor(router.ActorConfig{})
	return router.NewClient(ref)
}

func newTestStoreClient(t *testing.T) *store.Client {
	t.Helper()

	a, err := store.NewStoreActor(store.ActorConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	a.Start()
	t.Cleanup(a.Stop)

	return store.NewClient(a.Ref())
}

// newTestClient wires a full theater Service around fake wasm components,
// mirroring internal/actorruntime's own "no wasm engine in the corpus"
// test strategy (internal/handler/handler.go's doc comment).
func newTestClient(t *testing.T) *Client {
	t.Helper()

	newComponent := func(h handler.ActorHandle, ref theaterid.ContentRef) (
		handler.ActorComponent, handler.ActorInstance, error) {

		instance := newFakeInstance()
		instance.exports["init"] = echoInit

		return newFakeComponent(h), instance, nil
	}

	return StartTheaterRuntime(ActorConfig{}, Config{
		RouterClient: newTestRouterClient(t),
		StoreClient:  newTestStoreClient(t),
		Handlers:     handler.NewRegistry(),
		NewComponent: newComponent,
		Shutdown:     shutdownctl.New(time.Second),
	})
}

func testManifest(name string) actorruntime.Manifest {
	return actorruntime.Manifest{
		Name:         name,
		ComponentRef: theaterid.HashContent([]byte(name)),
		Permissions:  permission.None(),
	}
}

func TestSpawnTopLevelActorAppearsInListActors(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx := context.Background()

	resp, err := c.SpawnActor(ctx, testManifest("root"), fn.None[theaterid.ActorId](), permission.None())
	require.NoError(t, err)
	require.NoError(t, resp.Err)
	require.False(t, resp.ActorID.IsZero())

	list, err := c.ListActors(ctx)
	require.NoError(t, err)
	require.Len(t, list.Actors, 1)
	require.Equal(t, resp.ActorID, list.Actors[0].ActorID)
	require.Equal(t, StatusRunning, list.Actors[0].Status)
}

func TestSpawnChildIsRecordedUnderParent(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx := context.Background()

	parentResp, err := c.SpawnActor(ctx, testManifest("parent"), fn.None[theaterid.ActorId](), permission.None())
	require.NoError(t, err)
	require.NoError(t, parentResp.Err)

	childResp, err := c.SpawnActor(
		ctx, testManifest("child"), fn.Some(parentResp.ActorID), permission.None(),
	)
	require.NoError(t, err)
	require.NoError(t, childResp.Err)

	children, err := c.ListChildren(ctx, parentResp.ActorID)
	require.NoError(t, err)
	require.NoError(t, children.Err)
	require.Len(t, children.Children, 1)
	require.Equal(t, childResp.ActorID, children.Children[0].ActorID)
}

func TestSpawnChildRejectsUnknownParent(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx := context.Background()

	resp, err := c.SpawnActor(
		ctx, testManifest("orphan"), fn.Some(theaterid.NewActorId()), permission.None(),
	)
	require.NoError(t, err)
	require.ErrorIs(t, resp.Err, ErrActorNotFound)
}

// TestStopActorRecursivelyStopsChildren covers spec §4.9's "stopping an
// actor recursively stops its descendants, depth-first."
func TestStopActorRecursivelyStopsChildren(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx := context.Background()

	parentResp, err := c.SpawnActor(ctx, testManifest("parent"), fn.None[theaterid.ActorId](), permission.None())
	require.NoError(t, err)

	childResp, err := c.SpawnActor(
		ctx, testManifest("child"), fn.Some(parentResp.ActorID), permission.None(),
	)
	require.NoError(t, err)

	stopResp, err := c.StopActor(ctx, parentResp.ActorID)
	require.NoError(t, err)
	require.NoError(t, stopResp.Err)

	list, err := c.ListActors(ctx)
	require.NoError(t, err)
	require.Empty(t, list.Actors)

	statusResp, err := c.GetActorStatus(ctx, childResp.ActorID)
	require.NoError(t, err)
	require.ErrorIs(t, statusResp.Err, ErrActorNotFound)
}

func TestGetActorStatusUnknownActorFails(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)

	resp, err := c.GetActorStatus(context.Background(), theaterid.NewActorId())
	require.NoError(t, err)
	require.ErrorIs(t, resp.Err, ErrActorNotFound)
}

// TestRestartActorPreservesIdentity covers the restart supplement: a
// restarted actor keeps its original ActorId (spec.md's "duplicate IDs
// overwrite, to support restart" hint).
func TestRestartActorPreservesIdentity(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx := context.Background()

	spawnResp, err := c.SpawnActor(ctx, testManifest("worker"), fn.None[theaterid.ActorId](), permission.None())
	require.NoError(t, err)

	_, err = c.StopActor(ctx, spawnResp.ActorID)
	require.NoError(t, err)

	restartResp, err := c.RestartActor(ctx, spawnResp.ActorID)
	require.NoError(t, err)
	require.NoError(t, restartResp.Err)
	require.Equal(t, spawnResp.ActorID, restartResp.ActorID)

	status, err := c.GetActorStatus(ctx, spawnResp.ActorID)
	require.NoError(t, err)
	require.Equal(t, StatusRunning, status.Status)
}

func TestRestartActorRejectsAlreadyRunning(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx := context.Background()

	spawnResp, err := c.SpawnActor(ctx, testManifest("worker"), fn.None[theaterid.ActorId](), permission.None())
	require.NoError(t, err)

	resp, err := c.RestartActor(ctx, spawnResp.ActorID)
	require.NoError(t, err)
	require.ErrorIs(t, resp.Err, ErrAlreadyRunning)
}

// TestReportChildFailedRecordsEventOnParentChain covers spec §4.9: a
// crashing actor produces actor-child-failed on the parent's chain,
// carrying the child id and latest chain hash.
func TestReportChildFailedRecordsEventOnParentChain(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx := context.Background()

	parentResp, err := c.SpawnActor(ctx, testManifest("parent"), fn.None[theaterid.ActorId](), permission.None())
	require.NoError(t, err)

	childResp, err := c.SpawnActor(
		ctx, testManifest("child"), fn.Some(parentResp.ActorID), permission.None(),
	)
	require.NoError(t, err)

	_, err = c.ReportChildFailed(ctx, childResp.ActorID, "trap", "divide by zero")
	require.NoError(t, err)

	status, err := c.GetActorStatus(ctx, childResp.ActorID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, status.Status)

	parentEvents, err := c.GetActorEvents(ctx, parentResp.ActorID)
	require.NoError(t, err)

	var found bool
	for _, ev := range parentEvents.Events {
		if ev.EventType != "runtime/actor-child-failed" {
			continue
		}

		found = true

		var payload childFailedEvent
		require.NoError(t, json.Unmarshal(ev.Payload, &payload))
		require.Equal(t, childResp.ActorID.String(), payload.ChildID)
		require.Equal(t, "trap", payload.ErrorKind)
		require.Equal(t, "divide by zero", payload.Message)
		require.NotEmpty(t, payload.ChainHead)
	}
	require.True(t, found, "expected runtime/actor-child-failed on parent's chain")
}

// TestShutdownAllStopsEveryActor covers spec §4.9's global shutdown:
// signal the global controller, then recursively stop every root (and
// therefore every descendant).
func TestShutdownAllStopsEveryActor(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx := context.Background()

	rootAResp, err := c.SpawnActor(ctx, testManifest("a"), fn.None[theaterid.ActorId](), permission.None())
	require.NoError(t, err)

	_, err = c.SpawnActor(ctx, testManifest("b"), fn.None[theaterid.ActorId](), permission.None())
	require.NoError(t, err)

	_, err = c.SpawnActor(ctx, testManifest("child-of-a"), fn.Some(rootAResp.ActorID), permission.None())
	require.NoError(t, err)

	require.NoError(t, c.Shutdown(ctx))

	list, err := c.ListActors(ctx)
	require.NoError(t, err)
	require.Empty(t, list.Actors)
}

func TestSupervisorOpsScopeQueriesToOwnChildren(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx := context.Background()

	parentAResp, err := c.SpawnActor(ctx, testManifest("parent-a"), fn.None[theaterid.ActorId](), permission.None())
	require.NoError(t, err)

	parentBResp, err := c.SpawnActor(ctx, testManifest("parent-b"), fn.None[theaterid.ActorId](), permission.None())
	require.NoError(t, err)

	childResp, err := c.SpawnActor(
		ctx, testManifest("child"), fn.Some(parentAResp.ActorID), permission.None(),
	)
	require.NoError(t, err)

	opsA := NewSupervisorOps(c, parentAResp.ActorID)
	_, err = opsA.GetState(ctx, childResp.ActorID)
	require.NoError(t, err)

	opsB := NewSupervisorOps(c, parentBResp.ActorID)
	_, err = opsB.GetState(ctx, childResp.ActorID)
	require.ErrorIs(t, err, ErrNotParent)
}
