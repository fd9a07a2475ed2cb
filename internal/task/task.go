package task

import (
	"context"

	"github.com/google/uuid"
)

// TypeAutomation runs a board's automation rules for one mutation.
const TypeAutomation = "automation_run"

// Task is one unit of background work.
type Task interface {
	ID() uuid.UUID
	Type() string
	Execute(ctx context.Context) error
}

// Source hands tasks to workers. The channel is closed when no more tasks
// will arrive.
type Source interface {
	Tasks() <-chan Task
}

// Sink accepts tasks without blocking the producer.
type Sink interface {
	Enqueue(task Task) error
}
