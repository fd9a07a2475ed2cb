package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Priority is the priority label of a card.
type Priority string

// Priority values.
const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// ParsePriority validates a priority name.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, nil
	}
	return "", NewValidationError("priority", fmt.Sprintf("unknown value %q", s), ErrInvalidPriority)
}

// Card field names understood by Card.Field. They match the wire names used in
// automation conditions.
const (
	FieldID          = "id"
	FieldBoardID     = "boardId"
	FieldColumnID    = "columnId"
	FieldSwimlaneID  = "swimlaneId"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldPriority    = "priority"
	FieldDueDate     = "dueDate"
	FieldPosition    = "position"
	FieldArchived    = "archived"
	FieldArchivedAt  = "archivedAt"
	FieldCreatedBy   = "createdBy"
	FieldCreatedAt   = "createdAt"
	FieldUpdatedAt   = "updatedAt"
)

// Card is the post-mutation snapshot of a card as read from the entity store.
// It is passed by value into condition evaluation and action execution.
type Card struct {
	ID          uuid.UUID   `json:"id"`
	BoardID     uuid.UUID   `json:"boardId"`
	ColumnID    uuid.UUID   `json:"columnId"`
	SwimlaneID  *uuid.UUID  `json:"swimlaneId,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Priority    Priority    `json:"priority,omitempty"`
	DueDate     *time.Time  `json:"dueDate,omitempty"`
	Position    float64     `json:"position"`
	ArchivedAt  *time.Time  `json:"archivedAt,omitempty"`
	CreatedBy   uuid.UUID   `json:"createdBy"`
	AssigneeIDs []uuid.UUID `json:"assigneeIds"`
	LabelIDs    []uuid.UUID `json:"labelIds"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Field resolves a field name to a comparable scalar value. Identifiers resolve
// to their string form, timestamps to RFC3339 strings, numbers to float64, and
// unset optional fields to nil. Unknown field names report ok=false so callers
// fail closed instead of reading arbitrary data.
func (c Card) Field(name string) (any, bool) {
	switch name {
	case FieldID:
		return c.ID.String(), true
	case FieldBoardID:
		return c.BoardID.String(), true
	case FieldColumnID:
		return c.ColumnID.String(), true
	case FieldSwimlaneID:
		if c.SwimlaneID == nil {
			return nil, true
		}
		return c.SwimlaneID.String(), true
	case FieldTitle:
		return c.Title, true
	case FieldDescription:
		return c.Description, true
	case FieldPriority:
		if c.Priority == "" {
			return nil, true
		}
		return string(c.Priority), true
	case FieldDueDate:
		return formatOptionalTime(c.DueDate), true
	case FieldPosition:
		return c.Position, true
	case FieldArchived:
		return c.ArchivedAt != nil, true
	case FieldArchivedAt:
		return formatOptionalTime(c.ArchivedAt), true
	case FieldCreatedBy:
		return c.CreatedBy.String(), true
	case FieldCreatedAt:
		return c.CreatedAt.UTC().Format(time.RFC3339), true
	case FieldUpdatedAt:
		return c.UpdatedAt.UTC().Format(time.RFC3339), true
	}
	return nil, false
}

// HasAssignee reports whether userID is currently assigned to the card.
func (c Card) HasAssignee(userID uuid.UUID) bool {
	for _, id := range c.AssigneeIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// HasLabel reports whether labelID is currently attached to the card.
func (c Card) HasLabel(labelID uuid.UUID) bool {
	for _, id := range c.LabelIDs {
		if id == labelID {
			return true
		}
	}
	return false
}

// AssigneesExcept returns the card's assignees other than actorID.
func (c Card) AssigneesExcept(actorID uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(c.AssigneeIDs))
	for _, id := range c.AssigneeIDs {
		if id != actorID {
			out = append(out, id)
		}
	}
	return out
}

func formatOptionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
