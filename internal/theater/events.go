package theater

import (
	"encoding/json"
	"time"
)

// childFailedEvent is the payload for the runtime/actor-child-failed event
// appended to a parent's chain when one of its children fails, per spec
// §4.9 ("carrying the child id, error kind, and latest chain hash").
type childFailedEvent struct {
	ChildID   string `json:"child_id"`
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
	ChainHead string `json:"chain_head,omitempty"`
}

func marshalEvent(v any) ([]byte, error) {
	return json.Marshal(v)
}

// nowUnixMilli is overridable in tests for deterministic registry
// timestamps, mirroring internal/chain's own clock seam.
var nowUnixMilli = func() int64 {
	return time.Now().UnixMilli()
}
