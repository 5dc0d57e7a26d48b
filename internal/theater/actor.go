package theater

import (
	"github.com/theater-rt/theater/internal/baselib/actor"
)

// ActorRef is the typed actor reference for the theater runtime actor.
type ActorRef = actor.ActorRef[TheaterRequest, TheaterResponse]

// TellOnlyRef is a tell-only reference to the theater runtime actor.
type TellOnlyRef = actor.TellOnlyRef[TheaterRequest]

// ActorConfig holds configuration for creating the theater runtime actor.
type ActorConfig struct {
	// ID is the unique identifier for the actor.
	ID string

	// MailboxSize is the buffer capacity for the runtime's own command
	// mailbox (spec §4.9's theater_tx/theater_rx).
	MailboxSize int
}

// NewTheaterActor creates a new, unstarted theater runtime actor wrapping
// svc.
func NewTheaterActor(cfg ActorConfig, svc *Service) *actor.Actor[TheaterRequest, TheaterResponse] {
	mailboxSize := cfg.MailboxSize
	if mailboxSize <= 0 {
		mailboxSize = 100
	}

	actorID := cfg.ID
	if actorID == "" {
		actorID = "theater-runtime"
	}

	return actor.NewActor(actor.ActorConfig[TheaterRequest, TheaterResponse]{
		ID:          actorID,
		Behavior:    svc,
		MailboxSize: mailboxSize,
	})
}

// StartTheaterRuntime creates, starts, and wires up a full TheaterRuntime:
// the command actor (spec §4.9's theater_tx/theater_rx), and a Client
// pointed back at itself so every SpawnActor call can hand the new actor's
// supervisor-capable handlers a CommandSender that reaches this same
// runtime.
func StartTheaterRuntime(actorCfg ActorConfig, svcCfg Config) *Client {
	svc := NewService(svcCfg)

	a := NewTheaterActor(actorCfg, svc)
	a.Start()

	client := NewClient(a.Ref())
	svc.self = client

	return client
}

// Ensure Service implements ActorBehavior.
var _ actor.ActorBehavior[TheaterRequest, TheaterResponse] = (*Service)(nil)
