package execctl

import (
	"context"
	"time"

	"github.com/theater-rt/theater/internal/chain"
)

// DefaultShutdownGraceMs is the grace period a Shutdown call waits for the
// executor to finish its current step before the Controller aborts it, per
// spec §4.10's 5s default.
const DefaultShutdownGraceMs = 5000

// Controller answers ControlOperations in bounded time regardless of
// executor state, per spec §4.7. It never awaits anything that can block
// behind wasm: Pause/Resume/ForceStop act on shared, lock-protected state;
// Metrics/State/Chain read the snapshot block the executor maintains.
type Controller struct {
	exec *Executor
}

// NewController creates a Controller bound to exec.
func NewController(exec *Executor) *Controller {
	return &Controller{exec: exec}
}

// Pause toggles the executor-observed pause flag on. Returns immediately;
// any CallFunction already in flight runs to completion.
func (c *Controller) Pause() {
	c.exec.pause()
}

// Resume toggles the executor-observed pause flag off.
func (c *Controller) Resume() {
	c.exec.resume()
}

// Shutdown waits up to graceMs for the executor's Run loop to exit, then
// aborts it. It sends no stop signal of its own: Run exits on its shutdown
// channel, which the caller closes. Returns once the executor has stopped,
// or with ctx's error after issuing the abort if ctx ends first.
func (c *Controller) Shutdown(ctx context.Context, graceMs int64) error {
	if graceMs <= 0 {
		graceMs = DefaultShutdownGraceMs
	}

	timer := time.NewTimer(time.Duration(graceMs) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-c.exec.Done():
		return nil
	case <-timer.C:
		c.exec.abort()
		<-c.exec.Done()
		return nil
	case <-ctx.Done():
		c.exec.abort()
		return ctx.Err()
	}
}

// ForceStop aborts the executor task immediately; any in-flight
// CallFunction replies ErrInterrupted.
func (c *Controller) ForceStop(ctx context.Context) error {
	c.exec.abort()

	select {
	case <-c.exec.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Metrics returns a non-blocking snapshot of the executor's call metrics.
func (c *Controller) Metrics() Metrics {
	return c.exec.snapshot.read()
}

// State returns a copy of the latest known state bytes.
func (c *Controller) State() []byte {
	return c.exec.snapshot.readState()
}

// Chain returns a snapshot of the event-chain prefix, as of the last
// completed executor step. The live chain is exclusively owned by the
// executor's goroutine, so the Controller reads the cached copy in the
// shared snapshot block rather than the chain directly.
func (c *Controller) Chain() []chain.ChainEvent {
	return c.exec.snapshot.readEvents()
}
