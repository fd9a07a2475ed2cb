package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/phrazzld/corkboard/internal/events"
)

// AutomationEventHandler implements the events.EventHandler interface by
// turning mutation events into automation tasks on the queue. It returns as
// soon as the task is queued; the rules run on the worker pool.
type AutomationEventHandler struct {
	queue  Sink
	runner AutomationRunner
	logger *slog.Logger
}

// NewAutomationEventHandler creates a handler that enqueues automation tasks
// run by runner onto queue.
func NewAutomationEventHandler(
	queue Sink,
	runner AutomationRunner,
	logger *slog.Logger,
) (*AutomationEventHandler, error) {
	if queue == nil {
		return nil, domain.NewValidationError("queue", "cannot be nil", domain.ErrValidation)
	}
	if runner == nil {
		return nil, domain.NewValidationError("runner", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AutomationEventHandler{
		queue:  queue,
		runner: runner,
		logger: logger.With("component", "automation_event_handler"),
	}, nil
}

// HandleEvent enqueues an AutomationTask for the event.
// A full or closed queue drops the run and is reported as an error.
func (h *AutomationEventHandler) HandleEvent(ctx context.Context, event *events.MutationEvent) error {
	task := NewAutomationTask(event, h.runner)

	if err := h.queue.Enqueue(task); err != nil {
		h.logger.Warn("dropping automation run",
			"error", err,
			"event_id", event.ID,
			"board_id", event.BoardID,
			"trigger_type", event.TriggerType,
			"card_id", event.Card.ID)
		return fmt.Errorf("failed to enqueue automation task: %w", err)
	}

	h.logger.Debug("automation task enqueued",
		"task_id", task.ID(),
		"event_id", event.ID,
		"trigger_type", event.TriggerType)
	return nil
}

// Ensure AutomationEventHandler implements events.EventHandler
var _ events.EventHandler = (*AutomationEventHandler)(nil)
