package actorruntime

import (
	"github.com/btcsuite/btclog"
	"github.com/theater-rt/theater/internal/logging"
)

// log is this subsystem's logger, disabled by default until UseLogger is
// called.
var log = logging.Disabled()

// UseLogger sets the subsystem logger used by this package.
func UseLogger(l btclog.Logger) {
	log = logging.New(l)
}
