package store

import (
	"github.com/theater-rt/theater/internal/baselib/actor"
)

// ActorRef is the typed actor reference for the content store service.
type ActorRef = actor.ActorRef[StoreRequest, StoreResponse]

// TellOnlyRef is a tell-only reference to the content store service.
type TellOnlyRef = actor.TellOnlyRef[StoreRequest]

// ActorConfig holds configuration for creating a content store actor.
type ActorConfig struct {
	// ID is the unique identifier for the actor.
	ID string

	// Dir is the root directory the store persists to.
	Dir string

	// MailboxSize is the buffer capacity for the actor's mailbox.
	MailboxSize int
}

// NewStoreActor creates a new content store actor with the given
// configuration.
func NewStoreActor(cfg ActorConfig) (*actor.Actor[StoreRequest, StoreResponse], error) {
	svc, err := NewService(cfg.Dir)
	if err != nil {
		return nil, err
	}

	mailboxSize := cfg.MailboxSize
	if mailboxSize <= 0 {
		mailboxSize = 100
	}

	actorID := cfg.ID
	if actorID == "" {
		actorID = "content-store"
	}

	return actor.NewActor(actor.ActorConfig[StoreRequest, StoreResponse]{
		ID:          actorID,
		Behavior:    svc,
		MailboxSize: mailboxSize,
	}), nil
}

// StartStoreActor creates and starts a new content store actor, returning
// its reference.
func StartStoreActor(cfg ActorConfig) (ActorRef, error) {
	a, err := NewStoreActor(cfg)
	if err != nil {
		return nil, err
	}

	a.Start()

	return a.Ref(), nil
}

// Ensure Service implements ActorBehavior.
var _ actor.ActorBehavior[StoreRequest, StoreResponse] = (*Service)(nil)
