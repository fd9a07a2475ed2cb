package collab

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/automation"
	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/phrazzld/corkboard/internal/events"
	"github.com/phrazzld/corkboard/internal/mocks"
	"github.com/phrazzld/corkboard/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestMutationRunsAutomationAsynchronously wires the announce path to the
// automation engine through the emitter and worker pool.
func TestMutationRunsAutomationAsynchronously(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.activity.On("Append", mock.Anything, mock.Anything).Return(nil)

	board, doneColumn := uuid.New(), uuid.New()
	rule := &domain.AutomationRule{
		ID:      uuid.New(),
		BoardID: board,
		Name:    "done means low",
		Trigger: domain.Trigger{Type: domain.TriggerCardMoved},
		Conditions: []domain.Condition{
			{Field: domain.FieldColumnID, Operator: domain.OperatorEquals, Value: doneColumn.String()},
		},
		Actions: domain.ActionList{domain.SetPriorityAction{Priority: "LOW"}},
		Enabled: true,
	}

	release := make(chan struct{})
	var releaseOnce sync.Once
	unblock := func() { releaseOnce.Do(func() { close(release) }) }
	rules := &mocks.MockRuleStore{}
	rules.On("ListEnabledByBoard", mock.Anything, board).
		Run(func(mock.Arguments) { <-release }).
		Return([]*domain.AutomationRule{rule}, nil)
	rules.On("GetByID", mock.Anything, rule.ID).Return(rule, nil)

	applied := make(chan domain.Priority, 1)
	cards := &mocks.MockCardStore{}
	logs := &mocks.MockExecutionLogStore{}
	logs.On("Append", mock.Anything, mock.Anything).Return(nil)

	executor, err := automation.NewExecutor(automation.ExecutorDeps{
		Cards:         cards,
		Comments:      &mocks.MockCommentStore{},
		Checklists:    &mocks.MockChecklistStore{},
		Notifier:      f.notifier,
		ExecutionLogs: logs,
	}, discardLogger())
	require.NoError(t, err)
	engine, err := automation.NewEngine(rules, executor, discardLogger())
	require.NoError(t, err)

	queue := task.NewTaskQueue(8, discardLogger())
	pool := task.NewWorkerPool(queue, task.WorkerPoolConfig{WorkerCount: 1}, discardLogger())
	pool.Start()
	t.Cleanup(func() {
		unblock()
		queue.Close()
		pool.Stop()
	})

	handler, err := task.NewAutomationEventHandler(queue, engine, discardLogger())
	require.NoError(t, err)
	emitter := events.NewInMemoryEventEmitter(discardLogger())
	emitter.RegisterHandler(handler)

	coordinator, err := NewCoordinator(Deps{
		Sessions:    f.registry,
		Presence:    f.presence,
		Locks:       f.locks,
		Broadcaster: f.broadcaster,
		Activity:    f.activity,
		Notifier:    f.notifier,
		Cards:       f.cards,
		Events:      emitter,
	}, discardLogger())
	require.NoError(t, err)

	card := newCard(board)
	card.ColumnID = doneColumn
	cards.On("SetPriority", mock.Anything, card.ID, domain.PriorityLow).
		Run(func(args mock.Arguments) { applied <- args.Get(2).(domain.Priority) }).
		Return(nil)

	require.NoError(t, coordinator.AnnounceCardMoved(ctx, uuid.New(), card, uuid.New()))
	select {
	case <-applied:
		t.Fatal("automation ran inside the mutation call")
	default:
	}

	unblock()
	select {
	case p := <-applied:
		assert.Equal(t, domain.PriorityLow, p)
	case <-time.After(2 * time.Second):
		t.Fatal("automation did not run")
	}

	require.Eventually(t, func() bool { return len(logs.Entries()) == 1 }, 2*time.Second, 10*time.Millisecond)
	entry := logs.Entries()[0]
	assert.Equal(t, rule.ID, entry.RuleID)
	assert.Equal(t, card.ID, entry.EntityID)
	assert.Equal(t, domain.ExecutionSuccess, entry.Status)
}
