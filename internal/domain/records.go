package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChecklistPositionStep is the gap between consecutive checklist positions.
const ChecklistPositionStep = 1024

// Comment is a comment posted on a card.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	CardID    uuid.UUID `json:"cardId"`
	AuthorID  uuid.UUID `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewComment creates a comment, rejecting empty content.
func NewComment(cardID, authorID uuid.UUID, content string) (*Comment, error) {
	if cardID == uuid.Nil {
		return nil, NewValidationError("cardId", "cannot be empty", ErrInvalidID)
	}
	if authorID == uuid.Nil {
		return nil, NewValidationError("authorId", "cannot be empty", ErrInvalidID)
	}
	if strings.TrimSpace(content) == "" {
		return nil, NewValidationError("content", "cannot be empty", ErrEmptyContent)
	}
	return &Comment{
		ID:        uuid.New(),
		CardID:    cardID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Checklist is an ordered checklist attached to a card.
type Checklist struct {
	ID        uuid.UUID `json:"id"`
	CardID    uuid.UUID `json:"cardId"`
	Title     string    `json:"title"`
	Position  float64   `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
}

// NextChecklistPosition returns the position for a checklist appended after
// last. A nil last means the card has no checklist yet.
func NextChecklistPosition(last *float64) float64 {
	if last == nil {
		return ChecklistPositionStep
	}
	return *last + ChecklistPositionStep
}

// NotificationType classifies a user notification.
type NotificationType string

// Notification types produced by the coordinator and automation.
const (
	NotificationCardMoved   NotificationType = "cardMoved"
	NotificationComment     NotificationType = "comment"
	NotificationAssigned    NotificationType = "assigned"
	NotificationCardUpdated NotificationType = "cardUpdated"
	NotificationArchived    NotificationType = "cardArchived"
	NotificationAutomation  NotificationType = "automation"
)

// Notification is a persisted message for one user.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"userId"`
	BoardID   uuid.UUID        `json:"boardId"`
	CardID    *uuid.UUID       `json:"cardId,omitempty"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	ReadAt    *time.Time       `json:"readAt,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// ActivityEntry is an append-only board activity log record.
type ActivityEntry struct {
	ID        uuid.UUID       `json:"id"`
	BoardID   uuid.UUID       `json:"boardId"`
	CardID    *uuid.UUID      `json:"cardId,omitempty"`
	ActorID   uuid.UUID       `json:"actorId"`
	Action    string          `json:"action"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewActivityEntry creates an activity entry for a card-scoped mutation.
func NewActivityEntry(boardID, cardID, actorID uuid.UUID, action string, details any) *ActivityEntry {
	entry := &ActivityEntry{
		ID:        uuid.New(),
		BoardID:   boardID,
		ActorID:   actorID,
		Action:    action,
		CreatedAt: time.Now().UTC(),
	}
	if cardID != uuid.Nil {
		id := cardID
		entry.CardID = &id
	}
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			entry.Details = b
		}
	}
	return entry
}
