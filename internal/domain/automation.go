package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TriggerType identifies which kind of board mutation a rule listens for.
type TriggerType string

// Trigger types emitted by the collaboration coordinator.
const (
	TriggerCardCreated        TriggerType = "cardCreated"
	TriggerCardUpdated        TriggerType = "cardUpdated"
	TriggerCardMoved          TriggerType = "cardMoved"
	TriggerCardArchived       TriggerType = "cardArchived"
	TriggerCommentAdded       TriggerType = "commentAdded"
	TriggerLabelAdded         TriggerType = "labelAdded"
	TriggerAssigneeAdded      TriggerType = "assigneeAdded"
	TriggerDueDateChanged     TriggerType = "dueDateChanged"
	TriggerChecklistCompleted TriggerType = "checklistCompleted"
)

// Trigger is the trigger descriptor of a rule.
type Trigger struct {
	Type TriggerType `json:"type"`
}

// AutomationRule is a board-owned "when X, if conditions, do Y" definition.
type AutomationRule struct {
	ID         uuid.UUID   `json:"id"`
	BoardID    uuid.UUID   `json:"boardId"`
	Name       string      `json:"name"`
	Trigger    Trigger     `json:"trigger"`
	Conditions []Condition `json:"conditions"`
	Actions    ActionList  `json:"actions"`
	Enabled    bool        `json:"enabled"`
	CreatedBy  uuid.UUID   `json:"createdBy"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// Validate checks the rule has the identifiers and trigger it needs.
func (r *AutomationRule) Validate() error {
	if r.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if r.BoardID == uuid.Nil {
		return NewValidationError("boardId", "cannot be empty", ErrInvalidID)
	}
	if strings.TrimSpace(string(r.Trigger.Type)) == "" {
		return NewValidationError("trigger.type", "cannot be empty", ErrInvalidTriggerType)
	}
	for _, c := range r.Conditions {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ExecutionStatus is the outcome of one attempted action.
type ExecutionStatus string

// Execution outcomes.
const (
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionFailure ExecutionStatus = "failure"
)

// ExecutionLogEntry records a single action attempt of a rule invocation.
type ExecutionLogEntry struct {
	ID           uuid.UUID       `json:"id"`
	RuleID       uuid.UUID       `json:"ruleId"`
	EntityID     uuid.UUID       `json:"entityId"`
	Status       ExecutionStatus `json:"status"`
	ActionType   ActionType      `json:"actionType"`
	ActionParams json.RawMessage `json:"actionParams"`
	Error        string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// NewExecutionLogEntry builds an entry for an action attempt. A nil actionErr
// yields a success entry.
func NewExecutionLogEntry(ruleID, entityID uuid.UUID, action Action, actionErr error) *ExecutionLogEntry {
	entry := &ExecutionLogEntry{
		ID:           uuid.New(),
		RuleID:       ruleID,
		EntityID:     entityID,
		Status:       ExecutionSuccess,
		ActionType:   action.Type(),
		ActionParams: ActionParams(action),
		CreatedAt:    time.Now().UTC(),
	}
	if actionErr != nil {
		entry.Status = ExecutionFailure
		entry.Error = actionErr.Error()
	}
	return entry
}

// Validate checks the entry before it is appended to the log.
func (e *ExecutionLogEntry) Validate() error {
	if e.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if e.RuleID == uuid.Nil {
		return NewValidationError("ruleId", "cannot be empty", ErrInvalidID)
	}
	if e.Status != ExecutionSuccess && e.Status != ExecutionFailure {
		return NewValidationError("status", "must be success or failure", ErrInvalidExecutionStatus)
	}
	return nil
}
