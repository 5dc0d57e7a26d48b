package router

import (
	"github.com/theater-rt/theater/internal/baselib/actor"
)

// ActorRef is the typed actor reference for the message router service.
type ActorRef = actor.ActorRef[RouterRequest, RouterResponse]

// TellOnlyRef is a tell-only reference to the message router service.
type TellOnlyRef = actor.TellOnlyRef[RouterRequest]

// ActorConfig holds configuration for creating a message router actor.
type ActorConfig struct {
	// ID is the unique identifier for the actor.
	ID string

	// MailboxSize is the buffer capacity for the actor's own command
	// mailbox (distinct from the per-actor Mailboxes it routes to).
	MailboxSize int
}

// NewRouterActor creates a new message router actor with the given
// configuration.
func NewRouterActor(cfg ActorConfig) *actor.Actor[RouterRequest, RouterResponse] {
	svc := NewService()

	mailboxSize := cfg.MailboxSize
	if mailboxSize <= 0 {
		mailboxSize = 100
	}

	actorID := cfg.ID
	if actorID == "" {
		actorID = "message-router"
	}

	return actor.NewActor(actor.ActorConfig[RouterRequest, RouterResponse]{
		ID:          actorID,
		Behavior:    svc,
		MailboxSize: mailboxSize,
	})
}

// StartRouterActor creates and starts a new message router actor, returning
// its reference.
func StartRouterActor(cfg ActorConfig) ActorRef {
	a := NewRouterActor(cfg)
	a.Start()
	return a.Ref()
}

// Ensure Service implements ActorBehavior.
var _ actor.ActorBehavior[RouterRequest, RouterResponse] = (*Service)(nil)
