package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/corkboard/internal/platform/logger"
)

// WorkerPool runs tasks from a queue on a fixed number of goroutines.
// A task that has started always runs to completion: the context handed to
// Execute is detached from Stop.
type WorkerPool struct {
	queue       Source
	workerCount int
	logger      *slog.Logger

	// stopping is closed by Stop; workers stop picking up tasks once it is.
	stopping chan struct{}
	wg       sync.WaitGroup

	// onError, if set, is called after a task fails or panics.
	onError func(task Task, err error)

	startOnce sync.Once
	stopOnce  sync.Once
}

// WorkerPoolConfig sizes a WorkerPool.
type WorkerPoolConfig struct {
	// WorkerCount below one is raised to one.
	WorkerCount int
}

// DefaultWorkerPoolConfig returns two workers.
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{WorkerCount: 2}
}

// NewWorkerPool creates a stopped pool reading from queue.
func NewWorkerPool(queue Source, config WorkerPoolConfig, log *slog.Logger) *WorkerPool {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "worker_pool")

	workerCount := config.WorkerCount
	if workerCount <= 0 {
		log.Warn("worker count must be positive, using one worker", "configured", config.WorkerCount)
		workerCount = 1
	}

	return &WorkerPool{
		queue:       queue,
		workerCount: workerCount,
		logger:      log,
		stopping:    make(chan struct{}),
	}
}

// SetErrorHandler installs a callback for failed tasks. Call it before Start.
func (p *WorkerPool) SetErrorHandler(handler func(task Task, err error)) {
	p.onError = handler
}

// Start launches the workers. Later calls have no effect.
func (p *WorkerPool) Start() {
	p.startOnce.Do(func() {
		p.logger.Info("starting worker pool", "worker_count", p.workerCount)
		p.wg.Add(p.workerCount)
		for i := 0; i < p.workerCount; i++ {
			go p.worker(i)
		}
	})
}

// Stop stops the workers from taking new tasks and waits for running tasks
// to finish. Tasks still buffered in the queue are not run.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("stopping worker pool")
		close(p.stopping)
		p.wg.Wait()
		p.logger.Info("worker pool stopped")
	})
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	tasks := p.queue.Tasks()
	for {
		// Checked first so a stopped pool does not drain a busy queue.
		select {
		case <-p.stopping:
			return
		default:
		}

		select {
		case <-p.stopping:
			return
		case task, ok := <-tasks:
			if !ok {
				p.logger.Debug("task queue closed, worker exiting", "worker_id", id)
				return
			}
			p.run(id, task)
		}
	}
}

// run executes one task, converting a panic into an error.
func (p *WorkerPool) run(workerID int, task Task) {
	log := p.logger.With(
		"worker_id", workerID,
		"task_id", task.ID(),
		"task_type", task.Type())
	ctx := logger.WithLogger(context.Background(), log)

	started := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panic: %v", r)
			}
		}()
		return task.Execute(ctx)
	}()

	if err != nil {
		log.Error("task failed", "error", err, "duration", time.Since(started))
		if p.onError != nil {
			p.onError(task, err)
		}
		return
	}
	log.Debug("task completed", "duration", time.Since(started))
}
