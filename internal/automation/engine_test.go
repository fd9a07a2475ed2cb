package automation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/phrazzld/corkboard/internal/mocks"
	"github.com/phrazzld/corkboard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockApplier is a testify mock of ActionApplier.
type mockApplier struct {
	mock.Mock
}

func (m *mockApplier) Apply(ctx context.Context, ruleID uuid.UUID, action domain.Action, card domain.Card) error {
	return m.Called(ctx, ruleID, action, card).Error(0)
}

func newRule(boardID uuid.UUID, trigger domain.TriggerType, conditions []domain.Condition, actions ...domain.Action) *domain.AutomationRule {
	return &domain.AutomationRule{
		ID:         uuid.New(),
		BoardID:    boardID,
		Name:       string(trigger) + " rule",
		Trigger:    domain.Trigger{Type: trigger},
		Conditions: conditions,
		Actions:    actions,
		Enabled:    true,
		CreatedBy:  uuid.New(),
		CreatedAt:  fixedNow,
		UpdatedAt:  fixedNow,
	}
}

// stubRules makes the rule store return rules from both the list and the
// per-rule read.
func stubRules(rules *mocks.MockRuleStore, boardID uuid.UUID, list ...*domain.AutomationRule) {
	rules.On("ListEnabledByBoard", mock.Anything, boardID).Return(list, nil)
	for _, r := range list {
		rules.On("GetByID", mock.Anything, r.ID).Return(r, nil)
	}
}

func TestNewEngine_ValidatesDeps(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(nil, &mockApplier{}, nil)
	assert.Error(t, err)
	_, err = NewEngine(&mocks.MockRuleStore{}, nil, nil)
	assert.Error(t, err)
}

func TestEngine_OnlyMatchingRulesExecute(t *testing.T) {
	t.Parallel()

	boardID := uuid.New()
	card := testCard()
	card.BoardID = boardID

	matching := newRule(boardID, domain.TriggerCardCreated, nil,
		domain.SetPriorityAction{Priority: "LOW"}, domain.ArchiveAction{})
	otherTrigger := newRule(boardID, domain.TriggerCardMoved, nil, domain.ArchiveAction{})
	failingCondition := newRule(boardID, domain.TriggerCardCreated,
		[]domain.Condition{{Field: "priority", Operator: domain.OperatorEquals, Value: "URGENT"}},
		domain.ArchiveAction{})

	rules := &mocks.MockRuleStore{}
	stubRules(rules, boardID, matching, otherTrigger, failingCondition)
	applier := &mockApplier{}
	applier.On("Apply", mock.Anything, matching.ID, mock.Anything, card).Return(nil)

	engine, err := NewEngine(rules, applier, discardLogger())
	require.NoError(t, err)

	summary := engine.TriggerRulesWithSummary(context.Background(), boardID, domain.TriggerCardCreated, card)

	applier.AssertNumberOfCalls(t, "Apply", 2)
	assert.Equal(t, domain.SetPriorityAction{Priority: "LOW"}, applier.Calls[0].Arguments.Get(2))
	assert.Equal(t, domain.ArchiveAction{}, applier.Calls[1].Arguments.Get(2))
	rules.AssertNotCalled(t, "GetByID", mock.Anything, otherTrigger.ID)
	rules.AssertNotCalled(t, "GetByID", mock.Anything, failingCondition.ID)
	assert.Equal(t, RunSummary{RulesLoaded: 3, RulesMatched: 1, ActionsAttempted: 2}, summary)
}

func TestEngine_UsesRefetchedDefinition(t *testing.T) {
	t.Parallel()

	boardID := uuid.New()
	card := testCard()
	listed := newRule(boardID, domain.TriggerCardUpdated, nil, domain.ArchiveAction{})
	current := *listed
	current.Actions = domain.ActionList{domain.SetPriorityAction{Priority: "HIGH"}}

	rules := &mocks.MockRuleStore{}
	rules.On("ListEnabledByBoard", mock.Anything, boardID).Return([]*domain.AutomationRule{listed}, nil)
	rules.On("GetByID", mock.Anything, listed.ID).Return(&current, nil)
	applier := &mockApplier{}
	applier.On("Apply", mock.Anything, listed.ID, domain.SetPriorityAction{Priority: "HIGH"}, card).Return(nil).Once()

	engine, err := NewEngine(rules, applier, discardLogger())
	require.NoError(t, err)
	engine.TriggerRules(context.Background(), boardID, domain.TriggerCardUpdated, card)

	applier.AssertExpectations(t)
	applier.AssertNumberOfCalls(t, "Apply", 1)
}

func TestEngine_SkipsRulesDisabledOrDeletedMeanwhile(t *testing.T) {
	t.Parallel()

	boardID := uuid.New()
	disabled := newRule(boardID, domain.TriggerCardMoved, nil, domain.ArchiveAction{})
	deleted := newRule(boardID, domain.TriggerCardMoved, nil, domain.ArchiveAction{})
	disabledNow := *disabled
	disabledNow.Enabled = false

	rules := &mocks.MockRuleStore{}
	rules.On("ListEnabledByBoard", mock.Anything, boardID).Return([]*domain.AutomationRule{disabled, deleted}, nil)
	rules.On("GetByID", mock.Anything, disabled.ID).Return(&disabledNow, nil)
	rules.On("GetByID", mock.Anything, deleted.ID).Return(nil, store.ErrRuleNotFound)
	applier := &mockApplier{}

	engine, err := NewEngine(rules, applier, discardLogger())
	require.NoError(t, err)
	summary := engine.TriggerRulesWithSummary(context.Background(), boardID, domain.TriggerCardMoved, testCard())

	applier.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 2, summary.RulesMatched)
	assert.Equal(t, 1, summary.RuleErrors)
}

func TestEngine_RuleStoreFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	boardID := uuid.New()
	rules := &mocks.MockRuleStore{}
	rules.On("ListEnabledByBoard", mock.Anything, boardID).Return(nil, errors.New("db down"))
	applier := &mockApplier{}

	engine, err := NewEngine(rules, applier, discardLogger())
	require.NoError(t, err)

	var summary RunSummary
	assert.NotPanics(t, func() {
		summary = engine.TriggerRulesWithSummary(context.Background(), boardID, domain.TriggerCardCreated, testCard())
	})
	assert.Equal(t, 1, summary.RuleErrors)
	applier.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_PanicInOneRuleDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	boardID := uuid.New()
	card := testCard()
	exploding := newRule(boardID, domain.TriggerCardCreated, nil, domain.ArchiveAction{})
	healthy := newRule(boardID, domain.TriggerCardCreated, nil, domain.ArchiveAction{})

	rules := &mocks.MockRuleStore{}
	stubRules(rules, boardID, exploding, healthy)
	applier := &mockApplier{}
	applier.On("Apply", mock.Anything, exploding.ID, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { panic("boom") })
	applier.On("Apply", mock.Anything, healthy.ID, mock.Anything, mock.Anything).Return(nil)

	engine, err := NewEngine(rules, applier, discardLogger())
	require.NoError(t, err)
	summary := engine.TriggerRulesWithSummary(context.Background(), boardID, domain.TriggerCardCreated, card)

	assert.Equal(t, 1, summary.RuleErrors)
	applier.AssertCalled(t, "Apply", mock.Anything, healthy.ID, mock.Anything, mock.Anything)
}

func TestEngine_ActionTimeout(t *testing.T) {
	t.Parallel()

	boardID := uuid.New()
	rule := newRule(boardID, domain.TriggerCardCreated, nil, domain.ArchiveAction{})
	rules := &mocks.MockRuleStore{}
	stubRules(rules, boardID, rule)

	var deadline time.Time
	var hasDeadline bool
	applier := &mockApplier{}
	applier.On("Apply", mock.Anything, rule.ID, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			deadline, hasDeadline = args.Get(0).(context.Context).Deadline()
		}).
		Return(nil)

	engine, err := NewEngine(rules, applier, discardLogger(), WithActionTimeout(time.Minute))
	require.NoError(t, err)
	engine.TriggerRules(context.Background(), boardID, domain.TriggerCardCreated, testCard())

	require.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

// The following tests run the real executor behind the engine.

func TestEngine_FailedActionDoesNotStopLaterActions(t *testing.T) {
	t.Parallel()

	boardID := uuid.New()
	card := testCard()
	card.BoardID = boardID
	rule := newRule(boardID, domain.TriggerCardCreated, nil,
		domain.AddCommentAction{Content: "needs an author"},
		domain.ArchiveAction{})

	rules := &mocks.MockRuleStore{}
	stubRules(rules, boardID, rule)
	f := newExecutorFixture(t)
	f.cards.On("Archive", mock.Anything, card.ID, fixedNow).Return(nil).Once()

	engine, err := NewEngine(rules, f.executor, discardLogger())
	require.NoError(t, err)
	summary := engine.TriggerRulesWithSummary(context.Background(), boardID, domain.TriggerCardCreated, card)

	f.cards.AssertExpectations(t)
	f.comments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Equal(t, RunSummary{RulesLoaded: 1, RulesMatched: 1, ActionsAttempted: 2, ActionsFailed: 1}, summary)

	entries := f.logs.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ActionAddComment, entries[0].ActionType)
	assert.Equal(t, domain.ExecutionFailure, entries[0].Status)
	assert.Equal(t, domain.ActionArchive, entries[1].ActionType)
	assert.Equal(t, domain.ExecutionSuccess, entries[1].Status)
}

func TestEngine_MovedToDoneLowersPriority(t *testing.T) {
	t.Parallel()

	boardID := uuid.New()
	doneColumn := uuid.New()
	card := testCard()
	card.BoardID = boardID
	card.ColumnID = doneColumn

	rule := newRule(boardID, domain.TriggerCardMoved,
		[]domain.Condition{{Field: "columnId", Operator: domain.OperatorEquals, Value: doneColumn.String()}},
		domain.SetPriorityAction{Priority: "LOW"})

	rules := &mocks.MockRuleStore{}
	stubRules(rules, boardID, rule)
	f := newExecutorFixture(t)
	f.cards.On("SetPriority", mock.Anything, card.ID, domain.PriorityLow).Return(nil).Once()

	engine, err := NewEngine(rules, f.executor, discardLogger())
	require.NoError(t, err)
	engine.TriggerRules(context.Background(), boardID, domain.TriggerCardMoved, card)

	f.cards.AssertExpectations(t)
	f.cards.AssertNumberOfCalls(t, "SetPriority", 1)
	entries := f.logs.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ExecutionSuccess, entries[0].Status)
	assert.Equal(t, rule.ID, entries[0].RuleID)
	assert.Equal(t, card.ID, entries[0].EntityID)
	assert.JSONEq(t, `{"priority":"LOW"}`, string(entries[0].ActionParams))
}
