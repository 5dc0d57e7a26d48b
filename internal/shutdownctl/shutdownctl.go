// Package shutdownctl implements the ShutdownController described in spec
// §4.10: a broadcast cancellation signal with a default grace period, used
// both per-actor (ActorRuntime) and globally (TheaterRuntime).
package shutdownctl

import (
	"sync"
	"time"
)

// DefaultGracePeriod is the grace period applied to any user of a
// Controller unless overridden, per spec §4.10.
const DefaultGracePeriod = 5 * time.Second

// Receiver observes a Controller's shutdown signal by reading (or
// selecting on) the channel; it fires once, when the Controller's Signal
// method is called. A Receiver dropped before the signal fires is
// considered already shut down, per spec §4.10 — it simply never blocks
// anyone else.
type Receiver <-chan struct{}

// Controller wraps a broadcast channel: every subscriber shares the same
// receiver, and Signal closes it once, waking every subscriber at once
// (closing a channel is Go's native broadcast primitive).
type Controller struct {
	mu       sync.Mutex
	signaled bool
	grace    time.Duration
	ch       chan struct{}
}

// New creates a Controller with the given grace period. A zero or negative
// grace period uses DefaultGracePeriod.
func New(grace time.Duration) *Controller {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}

	return &Controller{
		grace: grace,
		ch:    make(chan struct{}),
	}
}

// Subscribe returns a Receiver that will observe this Controller's next
// Signal call. If Signal has already been called, the returned Receiver is
// already closed and reads return immediately.
func (c *Controller) Subscribe() Receiver {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Receiver(c.ch)
}

// Signal delivers the shutdown signal to every current and future
// subscriber. Idempotent: only the first call actually closes the channel.
func (c *Controller) Signal() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.signaled {
		return
	}

	c.signaled = true
	close(c.ch)
}

// Signaled reports whether Signal has already been called.
func (c *Controller) Signaled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.signaled
}

// GracePeriod returns the configured grace period.
func (c *Controller) GracePeriod() time.Duration {
	return c.grace
}
