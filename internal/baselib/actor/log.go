package actor

import (
	"github.com/btcsuite/btclog"
	"github.com/theater-rt/theater/internal/logging"
)

// log is this subsystem's logger, disabled by default until UseLogger is
// called. The other logging subsystems in this module (store, chain,
// router, registry, permission, execctl, actorruntime, theater) follow the
// same convention.
var log = logging.Disabled()

// UseLogger sets the subsystem logger used by this package. Should be called
// once at daemon start-up, before any ActorSystem is created.
func UseLogger(l btclog.Logger) {
	log = logging.New(l)
}
