// Package theater implements the TheaterRuntime described in spec §4.9:
// the global orchestrator holding every live ActorProcess, the parent→
// children supervision tree, and the command channel actors and the
// management surface both send to.
package theater

import (
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/theater-rt/theater/internal/actorruntime"
	"github.com/theater-rt/theater/internal/theaterid"
)

// actorProcess is the live, in-memory counterpart of spec §3's
// ActorProcess: the running actorruntime.Runtime plus the supervision-tree
// edges. internal/registry persists a durable projection of this for
// restart bookkeeping (spec.md's supplemented "actor-process restart
// recovery" feature); this struct is never itself persisted.
type actorProcess struct {
	runtime  *actorruntime.Runtime
	manifest actorruntime.Manifest
	parentID fn.Option[theaterid.ActorId]
	children map[theaterid.ActorId]struct{}
	status   ActorStatus

	// lastState is the most recently observed state snapshot, captured
	// just before a graceful stop so RestartActor has something to feed
	// back into init.
	lastState []byte
}

func newActorProcess(
	rt *actorruntime.Runtime, manifest actorruntime.Manifest,
	parentID fn.Option[theaterid.ActorId],
) *actorProcess {

	return &actorProcess{
		runtime:  rt,
		manifest: manifest,
		parentID: parentID,
		children: make(map[theaterid.ActorId]struct{}),
		status:   StatusRunning,
	}
}

func (p *actorProcess) summary(id theaterid.ActorId) ActorSummary {
	return ActorSummary{
		ActorID:      id,
		ParentID:     p.parentID,
		ManifestName: p.manifest.Name,
		Status:       p.status,
	}
}
