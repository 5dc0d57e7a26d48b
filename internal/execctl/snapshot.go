package execctl

import (
	"sync"

	"github.com/theater-rt/theater/internal/chain"
)

// snapshotBlock is the shared state the controller reads and the executor
// writes, per spec §4.7's "Shared state semantics": the controller always
// observes a consistent snapshot no older than the last completed executor
// step, never a partial update from a step in progress. A reader-writer
// lock with a single writer (the executor) and brief critical sections
// satisfies this without the controller ever blocking behind wasm.
//
// Chain events are cached here too, rather than letting the Controller read
// the live *chain.Chain directly: the chain is exclusively owned by the
// executor's goroutine (its host functions append events synchronously
// during a CallFunction), so any other goroutine reading its event slice
// concurrently would race with an in-progress Append.
type snapshotBlock struct {
	mu      sync.RWMutex
	metrics Metrics
	state   []byte
	events  []chain.ChainEvent
}

func newSnapshotBlock() *snapshotBlock {
	return &snapshotBlock{}
}

func (s *snapshotBlock) read() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.metrics
}

func (s *snapshotBlock) readState() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp := make([]byte, len(s.state))
	copy(cp, s.state)

	return cp
}

// recordCall installs the new state, the post-call chain events, and bumps
// the call metrics atomically w.r.t. readers, at the step boundary after a
// CallFunction completes.
func (s *snapshotBlock) recordCall(
	name string, newState []byte, at int64, failed bool, events []chain.ChainEvent,
) {

	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.CallCount++
	s.metrics.LastCallName = name
	s.metrics.LastCallAt = at
	s.metrics.Failed = failed
	s.state = newState
	s.events = events
}

func (s *snapshotBlock) readEvents() []chain.ChainEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chain.ChainEvent, len(s.events))
	copy(out, s.events)

	return out
}

func (s *snapshotBlock) setPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.Paused = paused
}
