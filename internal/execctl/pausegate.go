package execctl

import "sync"

// pauseGate is the executor-observed flag Pause/Resume toggle, per spec
// §4.7. It is checked between wasm calls rather than inside one, so a
// paused executor still drains control ops instantly.
type pauseGate struct {
	mu     sync.Mutex
	paused bool
	resume chan struct{}
}

func newPauseGate() *pauseGate {
	return &pauseGate{}
}

func (g *pauseGate) pause() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.paused {
		return
	}

	g.paused = true
	g.resume = make(chan struct{})
}

func (g *pauseGate) unpause() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.paused {
		return
	}

	g.paused = false
	close(g.resume)
}

// wait returns without blocking. If the gate is paused, it returns the
// channel that closes on resume, for the caller to select on alongside
// shutdown/cancellation signals. If the gate is not paused, it returns a
// nil channel.
func (g *pauseGate) wait() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.paused {
		return nil
	}

	return g.resume
}

func (g *pauseGate) isPaused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.paused
}
