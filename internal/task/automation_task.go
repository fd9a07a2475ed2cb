package task

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/phrazzld/corkboard/internal/events"
)

// AutomationRunner runs a board's automation rules for a mutation.
// Implementations swallow their own failures.
type AutomationRunner interface {
	TriggerRules(ctx context.Context, boardID uuid.UUID, triggerType domain.TriggerType, card domain.Card)
}

// AutomationTask runs the automation rules for one mutation event.
type AutomationTask struct {
	id     uuid.UUID
	event  *events.MutationEvent
	runner AutomationRunner
}

var _ Task = (*AutomationTask)(nil)

// NewAutomationTask wraps event for the worker pool.
func NewAutomationTask(event *events.MutationEvent, runner AutomationRunner) *AutomationTask {
	return &AutomationTask{id: uuid.New(), event: event, runner: runner}
}

func (t *AutomationTask) ID() uuid.UUID { return t.id }

func (t *AutomationTask) Type() string { return TypeAutomation }

// Event returns the mutation the task was created for.
func (t *AutomationTask) Event() *events.MutationEvent { return t.event }

// Execute runs the rules against the card snapshot carried by the event.
// Rule and action failures are the runner's to record, so it returns nil.
func (t *AutomationTask) Execute(ctx context.Context) error {
	t.runner.TriggerRules(ctx, t.event.BoardID, t.event.TriggerType, t.event.Card)
	return nil
}
