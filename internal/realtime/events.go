package realtime

import "github.com/google/uuid"

// Event names are part of the client wire contract.
const (
	EventPresenceUpdate     = "presenceUpdate"
	EventCardEditingStarted = "cardEditingStarted"
	EventCardEditingStopped = "cardEditingStopped"
	EventCardCreated        = "cardCreated"
	EventCardUpdated        = "cardUpdated"
	EventCardMoved          = "cardMoved"
	EventCardArchived       = "cardArchived"
	EventCommentAdded       = "commentAdded"
	EventLabelAdded         = "labelAdded"
	EventAssigneeAdded      = "assigneeAdded"
	EventNotification       = "notification"
	EventNotificationUnread = "notificationUnread"
	EventAuthenticated      = "authenticated"
	EventError              = "error"
)

// PresenceUpdate is the payload of presenceUpdate.
type PresenceUpdate struct {
	BoardID uuid.UUID   `json:"boardId"`
	Users   []uuid.UUID `json:"users"`
}

// EditingStarted is the payload of cardEditingStarted.
type EditingStarted struct {
	BoardID uuid.UUID `json:"boardId"`
	CardID  uuid.UUID `json:"cardId"`
	UserID  uuid.UUID `json:"userId"`
}

// EditingStopped is the payload of cardEditingStopped.
type EditingStopped struct {
	BoardID uuid.UUID `json:"boardId"`
	CardID  uuid.UUID `json:"cardId"`
}

// UnreadPing is the payload of notificationUnread. Unread is omitted when the
// count could not be read.
type UnreadPing struct {
	UserID uuid.UUID `json:"userId"`
	Unread *int      `json:"unread,omitempty"`
}
