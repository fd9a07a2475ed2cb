// Package task manages background job queuing and processing.
//
// Mutation events are converted into AutomationTasks by AutomationEventHandler
// and pushed onto a bounded TaskQueue; a WorkerPool executes them off the
// request path. Tasks are not persisted: a run dropped because the queue is
// full, or still queued at shutdown, is logged and lost.
package task
