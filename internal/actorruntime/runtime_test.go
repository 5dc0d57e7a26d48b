package actorruntime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
	"github.com/theater-rt/theater/internal/handler"
	"github.com/theater-rt/theater/internal/permission"
	"github.com/theater-rt/theater/internal/router"
	"github.com/theater-rt/theater/internal/store"
	"github.com/theater-rt/theater/internal/theaterid"
)

// wireEnvelope/wireResult mirror execctl's unexported callEnvelope/
// callResultEnvelope wire shapes by field name, so a fake wasm function can
// decode what the executor actually sends without importing execctl's
// unexported types.
type wireEnvelope struct {
	State  []byte `json:"state,omitempty"`
	Params []byte `json:"params"`
}

type wireResult struct {
	NewState []byte `json:"new_state,omitempty"`
	Result   []byte `json:"result"`
}

// fakeComponent/fakeInstance stand in for a real wasm component-model
// binding, per internal/handler's documented "no wasm engine in the
// corpus" decision: tests supply a Go closure for every export a scenario
// needs instead of loading a .wasm module.
type fakeComponent struct {
	handle  handler.ActorHandle
	linked  map[string]handler.HostFunction
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

// echoInit accepts any init call, recording nothing, and leaves state nil.
func echoInit(ctx context.Context, raw []byte) ([]byte, error) {
	var env wireEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	return json.Marshal(wireResult{Result: []byte(`"ok"`)})
}

// echoHandleSend decodes the sendEnvelope and echoes it back as the result,
// so tests can assert the mailbox wired the right payload through.
func echoHandleSend(received chan<- sendEnvelope) handler.WasmFunction {
	return func(ctx context.Context, raw []byte) ([]byte, error) {
		var env wireEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, err
		}

		var send sendEnvelope
		if err := json.Unmarshal(env.Params, &send); err != nil {
			return nil, err
		}

		received <- send

		return json.Marshal(wireResult{Result: []byte(`"ack"`)})
	}
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

func baseConfig(t *testing.T, newComponent ComponentFactory) Config {
	t.Helper()

	return Config{
		Manifest: Manifest{
			Name:         "example",
			ComponentRef: theaterid.HashContent([]byte("component")),
			Handlers:     nil,
			Permissions:  permission.None(),
		},
		ParentPermissions: permission.None(),
		Registry:          handler.NewRegistry(),
		NewComponent:      newComponent,
		StoreClient:       newTestStoreClient(t),
		RouterClient:      newTestRouterClient(t),
	}
}

func TestSpawnRunsInitAndRegistersWithRouter(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t, func(h handler.ActorHandle, ref theaterid.ContentRef) (
		handler.ActorComponent, handler.ActorInstance, error) {

		instance := newFakeInstance()
		instance.exports["init"] = echoInit

		return newFakeComponent(h), instance, nil
	})

	rt, err := Spawn(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { rt.Shutdown(context.Background()) })

	events := rt.Controller().Chain()
	require.Len(t, events, 1)
	require.Equal(t, "runtime/actor-started", events[0].EventType)
}

func TestSpawnRejectsPermissionsOutsideParentGrant(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t, func(h handler.ActorHandle, ref theaterid.ContentRef) (
		handler.ActorComponent, handler.ActorInstance, error) {

		instance := newFakeInstance()
		instance.exports["init"] = echoInit
		return newFakeComponent(h), instance, nil
	})

	cfg.Manifest.Permissions.Random = fn.Some(permission.RandomPermissions{MaxBytesPerCall: 64})
	// ParentPermissions stays None, so the manifest's grant is not a subset.

	_, err := Spawn(context.Background(), cfg)
	require.ErrorIs(t, err, ErrHandlerNotPermitted)
}

func TestSpawnRejectsUnregisteredHandler(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t, func(h handler.ActorHandle, ref theaterid.ContentRef) (
		handler.ActorComponent, handler.ActorInstance, error) {

		instance := newFakeInstance()
		instance.exports["init"] = echoInit
		return newFakeComponent(h), instance, nil
	})
	cfg.Manifest.Handlers = []string{"no-such-handler"}

	_, err := Spawn(context.Background(), cfg)
	require.ErrorIs(t, err, ErrHandlerNotRegistered)
}

func TestMailboxDeliversSendMessageToHandleSendExport(t *testing.T) {
	t.Parallel()

	received := make(chan sendEnvelope, 1)

	cfg := baseConfig(t, func(h handler.ActorHandle, ref theaterid.ContentRef) (
		handler.ActorComponent, handler.ActorInstance, error) {

		instance := newFakeInstance()
		instance.exports["init"] = echoInit
		instance.exports["handle-send"] = echoHandleSend(received)
		return newFakeComponent(h), instance, nil
	})

	rt, err := Spawn(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { rt.Shutdown(context.Background()) })

	sender := theaterid.NewActorId()
	rt.mailbox <- router.SendMessage{From: sender, Data: []byte("hello")}

	select {
	case env := <-received:
		require.Equal(t, sender.String(), env.From)
		require.Equal(t, []byte("hello"), env.Data)
	case <-time.After(time.Second):
		t.Fatal("handle-send was never invoked")
	}
}

func TestShutdownUnregistersFromRouterAndStopsTasks(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t, func(h handler.ActorHandle, ref theaterid.ContentRef) (
		handler.ActorComponent, handler.ActorInstance, error) {

		instance := newFakeInstance()
		instance.exports["init"] = echoInit
		return newFakeComponent(h), instance, nil
	})

	rt, err := Spawn(context.Background(), cfg)
	require.NoError(t, err)

	require.NoError(t, rt.Shutdown(context.Background()))

	// The executor's Run loop has exited by now, so reading the chain
	// directly (rather than through the controller's executor-owned
	// snapshot) is safe, per chain.go's single-owner documentation.
	events := rt.Store().Chain().Events()
	require.Len(t, events, 2)
	require.Equal(t, "runtime/actor-stopped", events[1].EventType)

	// A second Shutdown call repeats none of the teardown and reports
	// ErrAlreadyStopped.
	require.ErrorIs(t, rt.Shutdown(context.Background()), ErrAlreadyStopped)
}
