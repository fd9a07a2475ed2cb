package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/domain"
)

// MutationEvent announces that a board mutation has been committed and that
// the board's automation rules for TriggerType should run against Card.
type MutationEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	BoardID     uuid.UUID          `json:"boardId"`
	TriggerType domain.TriggerType `json:"triggerType"`

	// Card is the post-mutation snapshot.
	Card domain.Card `json:"card"`

	// ActorID is the user whose write caused the mutation. It is uuid.Nil for
	// mutations triggered by an external scheduler.
	ActorID uuid.UUID `json:"actorId"`

	CreatedAt time.Time `json:"createdAt"`
}

// NewMutationEvent creates a MutationEvent for the given snapshot.
func NewMutationEvent(
	triggerType domain.TriggerType,
	card domain.Card,
	actorID uuid.UUID,
) *MutationEvent {
	return &MutationEvent{
		ID:          uuid.New(),
		BoardID:     card.BoardID,
		TriggerType: triggerType,
		Card:        card,
		ActorID:     actorID,
		CreatedAt:   time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *MutationEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows the coordinator to publish mutations without knowing who runs automation.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *MutationEvent) error
}
