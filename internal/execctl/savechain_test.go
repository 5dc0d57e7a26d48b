package execctl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/theater-rt/theater/internal/actorstore"
	"github.com/theater-rt/theater/internal/chain"
	"github.com/theater-rt/theater/internal/handler"
	"github.com/theater-rt/theater/internal/store"
	"github.com/theater-rt/theater/internal/theaterid"
)

func newRealStoreClient(t *testing.T) *store.Client {
	t.Helper()

	a, err := store.NewStoreActor(store.ActorConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	a.Start()
	t.Cleanup(a.Stop)

	return store.NewClient(a.Ref())
}

func TestSaveChainPersistsViaContentStore(t *testing.T) {
	t.Parallel()

	clnt := newRealStoreClient(t)

	actorID := theaterid.NewActorId()
	c := chain.New(actorID)
	c.Append("runtime/actor-started", []byte("{}"), nil)

	as := actorstore.New(actorID, c, nil)
	exec := NewExecutor(as, clnt, map[string]handler.WasmFunction{})

	shutdownCh := make(chan struct{})
	go exec.Run(context.Background(), shutdownCh)
	defer close(shutdownCh)

	reply := make(chan SaveChainResult, 1)
	err := exec.Submit(context.Background(), SaveChainOp{Reply: reply})
	require.NoError(t, err)

	res := <-reply
	require.NoError(t, res.Err)
	require.False(t, res.Ref.IsZero())

	loaded, err := chain.Load(context.Background(), clnt, actorID)
	require.NoError(t, err)
	require.Len(t, loaded.Events(), 1)
}

func TestControllerChainReflectsLastCompletedStep(t *testing.T) {
	t.Parallel()

	actorID := theaterid.NewActorId()
	c := chain.New(actorID)

	as := actorstore.New(actorID, c, nil)
	exec := NewExecutor(as, nil, map[string]handler.WasmFunction{
		"append": func(ctx context.Context, raw []byte) ([]byte, error) {
			as.Chain().Append("handler/did-thing", []byte("{}"), nil)
			return []byte(`{"new_state":null,"result":null}`), nil
		},
	})
	ctrl := NewController(exec)

	shutdownCh := make(chan struct{})
	go exec.Run(context.Background(), shutdownCh)
	defer close(shutdownCh)

	require.Empty(t, ctrl.Chain())

	reply := make(chan CallFunctionResult, 1)
	err := exec.Submit(context.Background(), CallFunctionOp{Name: "append", Reply: reply})
	require.NoError(t, err)

	select {
	case res := <-reply:
		require.NoError(t, res.Err)
	case <-time.After(time.Second):
		t.Fatal("call never completed")
	}

	require.Len(t, ctrl.Chain(), 1)
}
