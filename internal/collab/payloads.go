package collab

import (
	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/domain"
)

// CardMoved is the payload of cardMoved.
type CardMoved struct {
	domain.Card
	FromColumnID uuid.UUID `json:"fromColumnId"`
}

// CommentAdded is the payload of commentAdded.
type CommentAdded struct {
	domain.Comment
	BoardID uuid.UUID `json:"boardId"`
}

// LabelAdded is the payload of labelAdded.
type LabelAdded struct {
	BoardID uuid.UUID `json:"boardId"`
	CardID  uuid.UUID `json:"cardId"`
	LabelID uuid.UUID `json:"labelId"`
}

// AssigneeAdded is the payload of assigneeAdded.
type AssigneeAdded struct {
	BoardID uuid.UUID `json:"boardId"`
	CardID  uuid.UUID `json:"cardId"`
	UserID  uuid.UUID `json:"userId"`
}
