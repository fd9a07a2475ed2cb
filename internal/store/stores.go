package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/domain"
)

// CardStore reads card snapshots and applies the card mutations automation
// actions need.
type CardStore interface {
	// GetByID returns the card with its current assignees and labels.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// MoveToColumn sets the card's column.
	MoveToColumn(ctx context.Context, cardID, columnID uuid.UUID) error

	// SetPriority overwrites the card's priority.
	SetPriority(ctx context.Context, cardID uuid.UUID, priority domain.Priority) error

	// SetDueDate overwrites the card's due date.
	SetDueDate(ctx context.Context, cardID uuid.UUID, dueDate time.Time) error

	// Archive stamps the card's archived timestamp.
	Archive(ctx context.Context, cardID uuid.UUID, at time.Time) error

	// AddLabel attaches a label. Attaching an already attached label is a no-op.
	AddLabel(ctx context.Context, cardID, labelID uuid.UUID) error

	// AddAssignee assigns a user. Assigning an existing assignee is a no-op.
	AddAssignee(ctx context.Context, cardID, userID uuid.UUID) error
}

// CommentStore persists card comments.
type CommentStore interface {
	Create(ctx context.Context, comment *domain.Comment) error
}

// ChecklistStore persists card checklists.
type ChecklistStore interface {
	// LastPosition returns the highest checklist position on the card, or nil
	// if the card has no checklist.
	LastPosition(ctx context.Context, cardID uuid.UUID) (*float64, error)

	Create(ctx context.Context, checklist *domain.Checklist) error
}

// NotificationStore persists user notifications.
type NotificationStore interface {
	Create(ctx context.Context, notification *domain.Notification) error

	// CountUnread returns the number of unread notifications of a user.
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// ActivityStore appends board activity entries.
type ActivityStore interface {
	Append(ctx context.Context, entry *domain.ActivityEntry) error
}

// RuleStore is the read path of the administrative rule API, plus Create for
// seeding.
type RuleStore interface {
	// ListEnabledByBoard returns every enabled rule of a board, oldest first.
	ListEnabledByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.AutomationRule, error)

	// GetByID returns a rule regardless of its enabled flag.
	// Returns ErrRuleNotFound if the rule does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AutomationRule, error)

	Create(ctx context.Context, rule *domain.AutomationRule) error
}

// ExecutionLogStore is the append-only automation audit trail.
type ExecutionLogStore interface {
	Append(ctx context.Context, entry *domain.ExecutionLogEntry) error

	// ListByRule returns the newest entries of a rule, newest first.
	ListByRule(ctx context.Context, ruleID uuid.UUID, limit int) ([]*domain.ExecutionLogEntry, error)
}
