// Package chain implements the per-actor append-only, hash-linked event
// chain described in spec §4.2. A Chain is a plain, unsynchronized value:
// per spec §3 an EventChain is exclusively owned by its ActorStore, which in
// turn is touched only by a single executor task, so no internal locking is
// required.
package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/theater-rt/theater/internal/store"
	"github.com/theater-rt/theater/internal/theaterid"
)

// Subscriber receives a copy of every event appended to a chain. Notify
// failures are logged, never fatal, per spec §4.2.
type Subscriber interface {
	Notify(ev ChainEvent)
}

// Chain is an append-only, hash-linked log of ChainEvents belonging to one
// actor.
type Chain struct {
	actorID theaterid.ActorId
	events  []ChainEvent
	sub     Subscriber
}

// New creates an empty chain for the given actor.
func New(actorID theaterid.ActorId) *Chain {
	return &Chain{actorID: actorID}
}

// Subscribe installs the chain's single notification subscriber, replacing
// any prior one.
func (c *Chain) Subscribe(sub Subscriber) {
	c.sub = sub
}

// Append records a new event atop the current head and returns it.
func (c *Chain) Append(eventType string, payload []byte, description *string) ChainEvent {
	var parentHash EventHash
	if len(c.events) > 0 {
		parentHash = c.events[len(c.events)-1].Hash
	}

	ev := ChainEvent{
		Hash:        computeHash(parentHash, payload),
		EventType:   eventType,
		Payload:     payload,
		Timestamp:   nowUnixMilli(),
		Description: description,
	}
	if len(c.events) > 0 {
		ev.ParentHash = &parentHash
	}

	c.events = append(c.events, ev)

	if c.sub != nil {
		c.notify(ev)
	}

	return ev
}

func (c *Chain) notify(ev ChainEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("chain subscriber panicked for actor %s: %v",
				c.actorID, r)
		}
	}()

	c.sub.Notify(ev)
}

// Head returns the most recently appended event, if any.
func (c *Chain) Head() (ChainEvent, bool) {
	if len(c.events) == 0 {
		return ChainEvent{}, false
	}

	return c.events[len(c.events)-1], true
}

// Events returns the chain's events in order. The returned slice is a copy;
// callers may not mutate the chain through it.
func (c *Chain) Events() []ChainEvent {
	out := make([]ChainEvent, len(c.events))
	copy(out, c.events)

	return out
}

// Verify re-walks the chain validating the invariants in spec §3: the root
// event has no parent hash, every subsequent event's parent hash matches its
// predecessor's hash, and every event's hash is reproduced by recomputing
// SHA1 over its recorded parent hash and payload.
func (c *Chain) Verify() error {
	var parentHash EventHash

	for i, ev := range c.events {
		if i == 0 {
			if ev.ParentHash != nil {
				return fmt.Errorf(
					"%w: root event %d has non-empty parent hash",
					ErrChainCorruption, i,
				)
			}
		} else {
			if ev.ParentHash == nil || *ev.ParentHash != parentHash {
				return fmt.Errorf(
					"%w: event %d parent hash does not match "+
						"predecessor's hash", ErrChainCorruption, i,
				)
			}
		}

		if err := verifyLink(parentHash, ev); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}

		parentHash = ev.Hash
	}

	return nil
}

// Persist writes the serialized chain to the content store and updates the
// actor's conventional chain-head label to point at it.
func (c *Chain) Persist(ctx context.Context, client *store.Client) (theaterid.ContentRef, error) {
	data, err := marshalEvents(c.events)
	if err != nil {
		return theaterid.ContentRef{}, fmt.Errorf("serializing chain: %w", err)
	}

	resp, err := client.ReplaceAtLabel(
		ctx, theaterid.ChainHeadLabel(c.actorID), data,
	)
	if err != nil {
		return theaterid.ContentRef{}, fmt.Errorf("asking content store: %w", err)
	}
	if resp.Err != nil {
		return theaterid.ContentRef{}, fmt.Errorf("persisting chain: %w", resp.Err)
	}

	return resp.Ref, nil
}

// Load fetches the persisted chain for actorID from the content store and
// verifies it, per spec §8's load_chain/save_chain round-trip law.
func Load(ctx context.Context, client *store.Client, actorID theaterid.ActorId) (*Chain, error) {
	labelResp, err := client.GetByLabel(ctx, theaterid.ChainHeadLabel(actorID))
	if err != nil {
		return nil, fmt.Errorf("asking content store: %w", err)
	}
	if len(labelResp.Refs) == 0 {
		return New(actorID), nil
	}

	// replace_at_label always leaves exactly one ref under the
	// chain-head label.
	ref := labelResp.Refs[len(labelResp.Refs)-1]

	getResp, err := client.Get(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("asking content store: %w", err)
	}
	if getResp.Err != nil {
		return nil, fmt.Errorf("reading persisted chain: %w", getResp.Err)
	}

	events, err := unmarshalEvents(getResp.Data)
	if err != nil {
		return nil, err
	}

	c := &Chain{actorID: actorID, events: events}
	if err := c.Verify(); err != nil {
		return nil, err
	}

	return c, nil
}

// nowUnixMilli is overridable in tests to produce deterministic timestamps.
var nowUnixMilli = func() int64 {
	return time.Now().UnixMilli()
}
