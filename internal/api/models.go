package api

import (
	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/realtime"
)

// Mutation kinds accepted by the mutation endpoint. They share their names
// with the board events broadcast for them.
const (
	MutationCardCreated   = realtime.EventCardCreated
	MutationCardUpdated   = realtime.EventCardUpdated
	MutationCardMoved     = realtime.EventCardMoved
	MutationCardArchived  = realtime.EventCardArchived
	MutationCommentAdded  = realtime.EventCommentAdded
	MutationLabelAdded    = realtime.EventLabelAdded
	MutationAssigneeAdded = realtime.EventAssigneeAdded
)

// MutationRequest reports a committed write so it can be announced. The card
// is re-read from the store, so only identifiers travel in the request.
type MutationRequest struct {
	Kind         string     `json:"kind"                   validate:"required,oneof=cardCreated cardUpdated cardMoved cardArchived commentAdded labelAdded assigneeAdded"`
	BoardID      uuid.UUID  `json:"boardId"                validate:"required"`
	CardID       uuid.UUID  `json:"cardId"                 validate:"required"`
	CommentID    *uuid.UUID `json:"commentId,omitempty"    validate:"required_if=Kind commentAdded"`
	Content      string     `json:"content,omitempty"      validate:"max=10000"`
	LabelID      *uuid.UUID `json:"labelId,omitempty"      validate:"required_if=Kind labelAdded"`
	AssigneeID   *uuid.UUID `json:"assigneeId,omitempty"   validate:"required_if=Kind assigneeAdded"`
	FromColumnID *uuid.UUID `json:"fromColumnId,omitempty" validate:"required_if=Kind cardMoved"`
}

// MutationResponse acknowledges an announced mutation. Degraded is set when
// the broadcast went out but activity or notifications could not be written.
type MutationResponse struct {
	Kind     string    `json:"kind"`
	CardID   uuid.UUID `json:"cardId"`
	Degraded bool      `json:"degraded,omitempty"`
}

// TriggerRequest asks for a board's automation to run against a card.
type TriggerRequest struct {
	TriggerType string    `json:"triggerType" validate:"required,max=64"`
	CardID      uuid.UUID `json:"cardId"      validate:"required"`
}

// TriggerResponse acknowledges a scheduled automation run.
type TriggerResponse struct {
	BoardID     uuid.UUID `json:"boardId"`
	CardID      uuid.UUID `json:"cardId"`
	TriggerType string    `json:"triggerType"`
}

// PresenceResponse lists the users viewing a board.
type PresenceResponse struct {
	BoardID uuid.UUID   `json:"boardId"`
	Users   []uuid.UUID `json:"users"`
}

// LockResponse describes a card's edit lock.
type LockResponse struct {
	CardID  uuid.UUID  `json:"cardId"`
	Locked  bool       `json:"locked"`
	BoardID *uuid.UUID `json:"boardId,omitempty"`
	UserID  *uuid.UUID `json:"userId,omitempty"`
}

// Client message types of the realtime gateway.
const (
	MessageJoinBoard    = "joinBoard"
	MessageLeaveBoard   = "leaveBoard"
	MessageStartEditing = "startEditing"
	MessageStopEditing  = "stopEditing"
)

// ClientMessage is one inbound frame of a realtime connection.
type ClientMessage struct {
	Type    string    `json:"type"    validate:"required,oneof=joinBoard leaveBoard startEditing stopEditing"`
	BoardID uuid.UUID `json:"boardId" validate:"required_unless=Type stopEditing"`
	CardID  uuid.UUID `json:"cardId"  validate:"required_unless=Type joinBoard Type leaveBoard"`
}

// AuthenticatedPayload is sent once a connection is bound to a user.
type AuthenticatedPayload struct {
	ConnectionID uuid.UUID `json:"connectionId"`
	UserID       uuid.UUID `json:"userId"`
}

// ErrorPayload reports a rejected client message.
type ErrorPayload struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
}
