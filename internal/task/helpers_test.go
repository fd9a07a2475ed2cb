package task

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// stubTask is a Task whose behavior is supplied by the test.
type stubTask struct {
	id  uuid.UUID
	run func(ctx context.Context) error
}

func newStubTask(run func(ctx context.Context) error) *stubTask {
	return &stubTask{id: uuid.New(), run: run}
}

func (s *stubTask) ID() uuid.UUID { return s.id }
func (s *stubTask) Type() string  { return "stub" }

func (s *stubTask) Execute(ctx context.Context) error {
	if s.run == nil {
		return nil
	}
	return s.run(ctx)
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
