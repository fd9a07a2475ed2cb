package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

// TaskQueue is a bounded in-memory Source and Sink. A full queue rejects
// work instead of applying backpressure to the request path.
type TaskQueue struct {
	logger *slog.Logger

	// closeMu is held for reading while sending so Close never races a send.
	closeMu sync.RWMutex
	closed  bool
	ch      chan Task
}

var (
	_ Source = (*TaskQueue)(nil)
	_ Sink   = (*TaskQueue)(nil)
)

// NewTaskQueue creates a queue buffering up to capacity tasks. A
// non-positive capacity buffers one.
func NewTaskQueue(capacity int, log *slog.Logger) *TaskQueue {
	if log == nil {
		log = slog.Default()
	}
	return &TaskQueue{
		logger: log.With("component", "task_queue"),
		ch:     make(chan Task, max(capacity, 1)),
	}
}

// Enqueue buffers task or fails with ErrQueueFull or ErrQueueClosed.
func (q *TaskQueue) Enqueue(task Task) error {
	q.closeMu.RLock()
	defer q.closeMu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.ch <- task:
	default:
		return fmt.Errorf("%w (capacity %d)", ErrQueueFull, cap(q.ch))
	}
	q.logger.Debug("task enqueued",
		"task_id", task.ID(),
		"task_type", task.Type(),
		"depth", len(q.ch))
	return nil
}

// Close stops accepting tasks. Buffered tasks stay readable from Tasks.
// Calling Close more than once is harmless.
func (q *TaskQueue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
	q.logger.Info("task queue closed", "buffered", len(q.ch))
}

// Tasks returns the receive side of the queue.
func (q *TaskQueue) Tasks() <-chan Task { return q.ch }

// Len reports how many tasks are buffered.
func (q *TaskQueue) Len() int { return len(q.ch) }
