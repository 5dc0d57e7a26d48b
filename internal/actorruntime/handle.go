package actorruntime

import (
	"github.com/theater-rt/theater/internal/actorstore"
	"github.com/theater-rt/theater/internal/permission"
	"github.com/theater-rt/theater/internal/theaterid"
)

// actorHandle implements handler.ActorHandle, giving every granted
// handler's host functions and background task the identity, scratchpad,
// and permission tree for the actor they belong to, per spec §4.4 point 6.
type actorHandle struct {
	actorID theaterid.ActorId
	store   *actorstore.Store
	perms   permission.Permissions
}

func (h *actorHandle) ActorID() theaterid.ActorId { return h.actorID }
func (h *actorHandle) Store() *actorstore.Store   { return h.store }

func (h *actorHandle) Permissions() permission.Permissions {
	return h.perms
}
