package collab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/automation"
	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/phrazzld/corkboard/internal/events"
	"github.com/phrazzld/corkboard/internal/platform/logger"
	"github.com/phrazzld/corkboard/internal/realtime"
	"github.com/phrazzld/corkboard/internal/store"
)

var (
	// ErrBoardMismatch is returned when a card does not belong to the board
	// named by the caller.
	ErrBoardMismatch = errors.New("card does not belong to board")

	// ErrNotViewingBoard is returned when a connection edits a card on a
	// board it has not joined.
	ErrNotViewingBoard = errors.New("connection has not joined board")
)

// Broadcaster fans events out to board and user channels.
type Broadcaster interface {
	realtime.BoardBroadcaster
	UserBroadcaster
}

// Sessions is the part of the connection registry the coordinator drives.
type Sessions interface {
	Subscribe(connID uuid.UUID, ch realtime.Channel) (realtime.Membership, error)
	Unsubscribe(connID uuid.UUID, ch realtime.Channel) (realtime.Membership, error)
	UserOf(connID uuid.UUID) (uuid.UUID, error)
	IsSubscribed(connID uuid.UUID, ch realtime.Channel) bool
	Viewing(userID uuid.UUID, ch realtime.Channel) bool
	Connected(userID uuid.UUID) bool
}

// EditLocks is the edit-lock contract the coordinator depends on.
type EditLocks interface {
	Acquire(ctx context.Context, boardID, cardID, userID uuid.UUID)
	Release(ctx context.Context, cardID, userID uuid.UUID) bool
	ForceReleaseAll(ctx context.Context, userID uuid.UUID) []realtime.EditLock
	ReleaseBoard(ctx context.Context, boardID, userID uuid.UUID) []realtime.EditLock
	Holder(cardID uuid.UUID) (realtime.EditLock, bool)
}

// Deps are the collaborators of a Coordinator.
type Deps struct {
	Sessions    Sessions
	Presence    realtime.PresenceStore
	Locks       EditLocks
	Broadcaster Broadcaster
	Activity    store.ActivityStore
	Notifier    automation.Notifier
	Cards       store.CardStore
	Events      events.EventEmitter
}

// Coordinator is the collaboration façade.
type Coordinator struct {
	deps   Deps
	logger *slog.Logger
	now    func() time.Time
	boards boardLocks
}

// NewCoordinator creates a Coordinator. It returns an error if any dependency is nil.
func NewCoordinator(deps Deps, log *slog.Logger) (*Coordinator, error) {
	switch {
	case deps.Sessions == nil:
		return nil, domain.NewValidationError("sessions", "cannot be nil", domain.ErrValidation)
	case deps.Presence == nil:
		return nil, domain.NewValidationError("presence", "cannot be nil", domain.ErrValidation)
	case deps.Locks == nil:
		return nil, domain.NewValidationError("locks", "cannot be nil", domain.ErrValidation)
	case deps.Broadcaster == nil:
		return nil, domain.NewValidationError("broadcaster", "cannot be nil", domain.ErrValidation)
	case deps.Activity == nil:
		return nil, domain.NewValidationError("activity", "cannot be nil", domain.ErrValidation)
	case deps.Notifier == nil:
		return nil, domain.NewValidationError("notifier", "cannot be nil", domain.ErrValidation)
	case deps.Cards == nil:
		return nil, domain.NewValidationError("cards", "cannot be nil", domain.ErrValidation)
	case deps.Events == nil:
		return nil, domain.NewValidationError("events", "cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		deps:   deps,
		logger: log.With(slog.String("component", "collab_coordinator")),
		now:    time.Now,
		boards: boardLocks{locks: make(map[uuid.UUID]*boardLock)},
	}, nil
}

// notice is the notification sent to affected users of a mutation.
type notice struct {
	kind    domain.NotificationType
	title   string
	message string
}

// mutation is one announced write.
type mutation struct {
	actorID    uuid.UUID
	card       domain.Card
	event      string
	payload    any
	trigger    domain.TriggerType
	details    any
	recipients []uuid.UUID
	notice     notice
}

// AnnounceCardCreated announces a new card.
func (c *Coordinator) AnnounceCardCreated(ctx context.Context, actorID uuid.UUID, card domain.Card) error {
	return c.announce(ctx, mutation{
		actorID:    actorID,
		card:       card,
		event:      realtime.EventCardCreated,
		payload:    card,
		trigger:    domain.TriggerCardCreated,
		details:    map[string]any{"title": card.Title, "columnId": card.ColumnID},
		recipients: card.AssigneesExcept(actorID),
		notice: notice{
			kind:    domain.NotificationAssigned,
			title:   "New card assigned to you",
			message: fmt.Sprintf("You are assigned to %q", card.Title),
		},
	})
}

// AnnounceCardUpdated announces an edit of card fields.
func (c *Coordinator) AnnounceCardUpdated(ctx context.Context, actorID uuid.UUID, card domain.Card) error {
	return c.announce(ctx, mutation{
		actorID:    actorID,
		card:       card,
		event:      realtime.EventCardUpdated,
		payload:    card,
		trigger:    domain.TriggerCardUpdated,
		details:    map[string]any{"title": card.Title},
		recipients: card.AssigneesExcept(actorID),
		notice: notice{
			kind:    domain.NotificationCardUpdated,
			title:   "Card updated",
			message: fmt.Sprintf("%q was updated", card.Title),
		},
	})
}

// AnnounceCardMoved announces a column change.
func (c *Coordinator) AnnounceCardMoved(ctx context.Context, actorID uuid.UUID, card domain.Card, fromColumnID uuid.UUID) error {
	return c.announce(ctx, mutation{
		actorID:    actorID,
		card:       card,
		event:      realtime.EventCardMoved,
		payload:    CardMoved{Card: card, FromColumnID: fromColumnID},
		trigger:    domain.TriggerCardMoved,
		details:    map[string]any{"fromColumnId": fromColumnID, "toColumnId": card.ColumnID},
		recipients: card.AssigneesExcept(actorID),
		notice: notice{
			kind:    domain.NotificationCardMoved,
			title:   "Card moved",
			message: fmt.Sprintf("%q was moved", card.Title),
		},
	})
}

// AnnounceCardArchived announces an archived card.
func (c *Coordinator) AnnounceCardArchived(ctx context.Context, actorID uuid.UUID, card domain.Card) error {
	return c.announce(ctx, mutation{
		actorID:    actorID,
		card:       card,
		event:      realtime.EventCardArchived,
		payload:    card,
		trigger:    domain.TriggerCardArchived,
		details:    map[string]any{"title": card.Title},
		recipients: card.AssigneesExcept(actorID),
		notice: notice{
			kind:    domain.NotificationArchived,
			title:   "Card archived",
			message: fmt.Sprintf("%q was archived", card.Title),
		},
	})
}

// AnnounceComment announces a new comment on a card.
func (c *Coordinator) AnnounceComment(ctx context.Context, actorID uuid.UUID, card domain.Card, comment domain.Comment) error {
	return c.announce(ctx, mutation{
		actorID:    actorID,
		card:       card,
		event:      realtime.EventCommentAdded,
		payload:    CommentAdded{Comment: comment, BoardID: card.BoardID},
		trigger:    domain.TriggerCommentAdded,
		details:    map[string]any{"commentId": comment.ID},
		recipients: card.AssigneesExcept(actorID),
		notice: notice{
			kind:    domain.NotificationComment,
			title:   "New comment",
			message: fmt.Sprintf("New comment on %q", card.Title),
		},
	})
}

// AnnounceLabelAdded announces a label attached to a card. Nobody is notified.
func (c *Coordinator) AnnounceLabelAdded(ctx context.Context, actorID uuid.UUID, card domain.Card, labelID uuid.UUID) error {
	return c.announce(ctx, mutation{
		actorID: actorID,
		card:    card,
		event:   realtime.EventLabelAdded,
		payload: LabelAdded{BoardID: card.BoardID, CardID: card.ID, LabelID: labelID},
		trigger: domain.TriggerLabelAdded,
		details: map[string]any{"labelId": labelID},
	})
}

// AnnounceAssigneeAdded announces a new assignee, who is notified unless they
// assigned themselves.
func (c *Coordinator) AnnounceAssigneeAdded(ctx context.Context, actorID uuid.UUID, card domain.Card, assigneeID uuid.UUID) error {
	var recipients []uuid.UUID
	if assigneeID != actorID {
		recipients = []uuid.UUID{assigneeID}
	}
	return c.announce(ctx, mutation{
		actorID:    actorID,
		card:       card,
		event:      realtime.EventAssigneeAdded,
		payload:    AssigneeAdded{BoardID: card.BoardID, CardID: card.ID, UserID: assigneeID},
		trigger:    domain.TriggerAssigneeAdded,
		details:    map[string]any{"assigneeId": assigneeID},
		recipients: recipients,
		notice: notice{
			kind:    domain.NotificationAssigned,
			title:   "Assigned to card",
			message: fmt.Sprintf("You were assigned to %q", card.Title),
		},
	})
}

// announce broadcasts, records activity, notifies and then emits the
// mutation for automation. Activity and notification errors are joined and
// returned; automation never affects the result.
func (c *Coordinator) announce(ctx context.Context, m mutation) error {
	log := logger.FromContextOrDefault(ctx, c.logger).With(
		"event", m.event,
		"board_id", m.card.BoardID,
		"card_id", m.card.ID,
		"actor_id", m.actorID)

	c.deps.Broadcaster.ToBoard(ctx, m.card.BoardID, m.event, m.payload)

	var errs []error
	entry := domain.NewActivityEntry(m.card.BoardID, m.card.ID, m.actorID, m.event, m.details)
	if err := c.deps.Activity.Append(ctx, entry); err != nil {
		log.Error("failed to append activity entry", "error", err)
		errs = append(errs, fmt.Errorf("append activity: %w", err))
	}

	for _, userID := range m.recipients {
		if err := c.deps.Notifier.Notify(ctx, c.notification(userID, m)); err != nil {
			log.Error("failed to notify user", "user_id", userID, "error", err)
			errs = append(errs, fmt.Errorf("notify %s: %w", userID, err))
		}
	}

	c.emit(ctx, log, m.trigger, m.card, m.actorID)
	return errors.Join(errs...)
}

func (c *Coordinator) notification(userID uuid.UUID, m mutation) *domain.Notification {
	cardID := m.card.ID
	return &domain.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		BoardID:   m.card.BoardID,
		CardID:    &cardID,
		Type:      m.notice.kind,
		Title:     m.notice.title,
		Message:   m.notice.message,
		CreatedAt: c.now().UTC(),
	}
}

// emit hands the snapshot to the automation tail without waiting for it.
func (c *Coordinator) emit(ctx context.Context, log *slog.Logger, trigger domain.TriggerType, card domain.Card, actorID uuid.UUID) {
	event := events.NewMutationEvent(trigger, card, actorID)
	if err := c.deps.Events.EmitEvent(ctx, event); err != nil {
		log.Warn("automation not scheduled", "trigger_type", trigger, "error", err)
	}
}

// TriggerRules schedules the board's automation for a trigger on the current
// state of a card. It is the entry point for collaborators outside the
// request path, such as the recurring-card scheduler.
func (c *Coordinator) TriggerRules(ctx context.Context, boardID uuid.UUID, triggerType domain.TriggerType, cardID uuid.UUID) error {
	card, err := c.Snapshot(ctx, boardID, cardID)
	if err != nil {
		return err
	}
	c.emit(ctx, logger.FromContextOrDefault(ctx, c.logger), triggerType, card, uuid.Nil)
	return nil
}

// Snapshot reads the current state of a card and checks it belongs to boardID.
func (c *Coordinator) Snapshot(ctx context.Context, boardID, cardID uuid.UUID) (domain.Card, error) {
	card, err := c.deps.Cards.GetByID(ctx, cardID)
	if err != nil {
		return domain.Card{}, fmt.Errorf("failed to load card %s: %w", cardID, err)
	}
	if card.BoardID != boardID {
		return domain.Card{}, fmt.Errorf("%w: card %s, board %s", ErrBoardMismatch, cardID, boardID)
	}
	return *card, nil
}
