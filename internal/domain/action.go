package domain

import (
	"encoding/json"
	"fmt"
)

// ActionType tags an automation action.
type ActionType string

// Recognized action types.
const (
	ActionMoveCard         ActionType = "moveCard"
	ActionSetLabel         ActionType = "setLabel"
	ActionSetAssignee      ActionType = "setAssignee"
	ActionSetPriority      ActionType = "setPriority"
	ActionAddComment       ActionType = "addComment"
	ActionSetDueDate       ActionType = "setDueDate"
	ActionArchive          ActionType = "archive"
	ActionSendNotification ActionType = "sendNotification"
	ActionCreateChecklist  ActionType = "createChecklist"
)

// Action is one step of an automation rule. The set of implementations is
// closed: every stored {type, params} document decodes into exactly one of the
// types below, with UnknownAction carrying anything unrecognized.
type Action interface {
	Type() ActionType
	isAction()
}

// MoveCardAction moves the card to another column.
type MoveCardAction struct {
	ColumnID string `json:"columnId,omitempty"`
}

// SetLabelAction attaches a label to the card.
type SetLabelAction struct {
	LabelID string `json:"labelId,omitempty"`
}

// SetAssigneeAction assigns a user to the card.
type SetAssigneeAction struct {
	UserID string `json:"userId,omitempty"`
}

// SetPriorityAction overwrites the card priority.
type SetPriorityAction struct {
	Priority string `json:"priority,omitempty"`
}

// AddCommentAction posts a comment on the card.
type AddCommentAction struct {
	Content  string `json:"content,omitempty"`
	AuthorID string `json:"authorId,omitempty"`
}

// SetDueDateAction overwrites the card due date. DueDate is RFC3339.
type SetDueDateAction struct {
	DueDate string `json:"dueDate,omitempty"`
}

// ArchiveAction archives the card.
type ArchiveAction struct{}

// SendNotificationAction notifies every assignee of the card.
type SendNotificationAction struct {
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
}

// CreateChecklistAction appends a checklist after the card's last one.
type CreateChecklistAction struct {
	Title string `json:"title,omitempty"`
}

// UnknownAction preserves an action whose type is not recognized.
type UnknownAction struct {
	Tag    string
	Params json.RawMessage
}

func (MoveCardAction) Type() ActionType         { return ActionMoveCard }
func (SetLabelAction) Type() ActionType         { return ActionSetLabel }
func (SetAssigneeAction) Type() ActionType      { return ActionSetAssignee }
func (SetPriorityAction) Type() ActionType      { return ActionSetPriority }
func (AddCommentAction) Type() ActionType       { return ActionAddComment }
func (SetDueDateAction) Type() ActionType       { return ActionSetDueDate }
func (ArchiveAction) Type() ActionType          { return ActionArchive }
func (SendNotificationAction) Type() ActionType { return ActionSendNotification }
func (CreateChecklistAction) Type() ActionType  { return ActionCreateChecklist }
func (a UnknownAction) Type() ActionType        { return ActionType(a.Tag) }

func (MoveCardAction) isAction()         {}
func (SetLabelAction) isAction()         {}
func (SetAssigneeAction) isAction()      {}
func (SetPriorityAction) isAction()      {}
func (AddCommentAction) isAction()       {}
func (SetDueDateAction) isAction()       {}
func (ArchiveAction) isAction()          {}
func (SendNotificationAction) isAction() {}
func (CreateChecklistAction) isAction()  {}
func (UnknownAction) isAction()          {}

// actionDocument is the persisted shape of an action.
type actionDocument struct {
	Type   string          `json:"type"`
	Params json.RawMessage `json:"params,omitempty"`
}

// DecodeAction converts a {type, params} document into its typed action.
// Unknown types never fail; they decode into UnknownAction. Params that are
// not a JSON object are an error for recognized types.
func DecodeAction(raw []byte) (Action, error) {
	var doc actionDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, NewValidationError("action", "must be a JSON object", err)
	}

	var target Action
	switch ActionType(doc.Type) {
	case ActionMoveCard:
		target = &MoveCardAction{}
	case ActionSetLabel:
		target = &SetLabelAction{}
	case ActionSetAssignee:
		target = &SetAssigneeAction{}
	case ActionSetPriority:
		target = &SetPriorityAction{}
	case ActionAddComment:
		target = &AddCommentAction{}
	case ActionSetDueDate:
		target = &SetDueDateAction{}
	case ActionArchive:
		return ArchiveAction{}, nil
	case ActionSendNotification:
		target = &SendNotificationAction{}
	case ActionCreateChecklist:
		target = &CreateChecklistAction{}
	default:
		return UnknownAction{Tag: doc.Type, Params: doc.Params}, nil
	}

	if len(doc.Params) > 0 && string(doc.Params) != "null" {
		if err := json.Unmarshal(doc.Params, target); err != nil {
			return nil, NewValidationError(
				"action.params",
				fmt.Sprintf("invalid params for %s", doc.Type),
				err,
			)
		}
	}
	return derefAction(target), nil
}

func derefAction(a Action) Action {
	switch v := a.(type) {
	case *MoveCardAction:
		return *v
	case *SetLabelAction:
		return *v
	case *SetAssigneeAction:
		return *v
	case *SetPriorityAction:
		return *v
	case *AddCommentAction:
		return *v
	case *SetDueDateAction:
		return *v
	case *SendNotificationAction:
		return *v
	case *CreateChecklistAction:
		return *v
	}
	return a
}

// ActionParams returns the params document of an action, as stored in the
// execution log.
func ActionParams(a Action) json.RawMessage {
	switch v := a.(type) {
	case UnknownAction:
		if len(v.Params) == 0 {
			return json.RawMessage(`{}`)
		}
		return v.Params
	case ArchiveAction:
		return json.RawMessage(`{}`)
	}
	b, err := json.Marshal(a)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}

// EncodeAction renders an action back into its {type, params} document.
func EncodeAction(a Action) ([]byte, error) {
	return json.Marshal(actionDocument{
		Type:   string(a.Type()),
		Params: ActionParams(a),
	})
}

// ActionList is the ordered action list of a rule with JSON support.
type ActionList []Action

// MarshalJSON implements json.Marshaler.
func (l ActionList) MarshalJSON() ([]byte, error) {
	docs := make([]json.RawMessage, 0, len(l))
	for _, a := range l {
		b, err := EncodeAction(a)
		if err != nil {
			return nil, err
		}
		docs = append(docs, b)
	}
	return json.Marshal(docs)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *ActionList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = nil
		return nil
	}
	var docs []json.RawMessage
	if err := json.Unmarshal(data, &docs); err != nil {
		return NewValidationError("actions", "must be a JSON array", err)
	}
	out := make(ActionList, 0, len(docs))
	for _, doc := range docs {
		a, err := DecodeAction(doc)
		if err != nil {
			return err
		}
		out = append(out, a)
	}
	*l = out
	return nil
}
