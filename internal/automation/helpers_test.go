package automation

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/phrazzld/corkboard/internal/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type executorFixture struct {
	cards      *mocks.MockCardStore
	comments   *mocks.MockCommentStore
	checklists *mocks.MockChecklistStore
	notifier   *mocks.MockNotifier
	logs       *mocks.MockExecutionLogStore
	executor   *Executor
}

// newExecutorFixture builds an executor over fresh mocks. The execution log
// accepts every entry.
func newExecutorFixture(t *testing.T) *executorFixture {
	t.Helper()
	f := &executorFixture{
		cards:      &mocks.MockCardStore{},
		comments:   &mocks.MockCommentStore{},
		checklists: &mocks.MockChecklistStore{},
		notifier:   &mocks.MockNotifier{},
		logs:       &mocks.MockExecutionLogStore{},
	}
	f.logs.On("Append", mock.Anything, mock.Anything).Return(nil)

	executor, err := NewExecutor(ExecutorDeps{
		Cards:         f.cards,
		Comments:      f.comments,
		Checklists:    f.checklists,
		Notifier:      f.notifier,
		ExecutionLogs: f.logs,
	}, discardLogger())
	require.NoError(t, err)
	executor.now = func() time.Time { return fixedNow }
	f.executor = executor
	return f
}

func (f *executorFixture) assertNoCollaboratorCalls(t *testing.T) {
	t.Helper()
	require.Empty(t, f.cards.Calls)
	require.Empty(t, f.comments.Calls)
	require.Empty(t, f.checklists.Calls)
	require.Empty(t, f.notifier.Calls)
}

func testCard() domain.Card {
	return domain.Card{
		ID:          uuid.New(),
		BoardID:     uuid.New(),
		ColumnID:    uuid.New(),
		Title:       "Ship release",
		Priority:    domain.PriorityHigh,
		Position:    1024,
		CreatedBy:   uuid.New(),
		AssigneeIDs: []uuid.UUID{},
		LabelIDs:    []uuid.UUID{},
		CreatedAt:   fixedNow,
		UpdatedAt:   fixedNow,
	}
}
