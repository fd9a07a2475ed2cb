package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/phrazzld/corkboard/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockRuleStore is a mock of store.RuleStore.
type MockRuleStore struct {
	mock.Mock
}

var _ store.RuleStore = (*MockRuleStore)(nil)

// ListEnabledByBoard is a mock implementation of store.RuleStore.ListEnabledByBoard
func (m *MockRuleStore) ListEnabledByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.AutomationRule, error) {
	args := m.Called(ctx, boardID)
	if rules, ok := args.Get(0).([]*domain.AutomationRule); ok {
		return rules, args.Error(1)
	}
	return nil, args.Error(1)
}

// GetByID is a mock implementation of store.RuleStore.GetByID
func (m *MockRuleStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.AutomationRule, error) {
	args := m.Called(ctx, id)
	if rule, ok := args.Get(0).(*domain.AutomationRule); ok {
		return rule, args.Error(1)
	}
	return nil, args.Error(1)
}

// Create is a mock implementation of store.RuleStore.Create
func (m *MockRuleStore) Create(ctx context.Context, rule *domain.AutomationRule) error {
	return m.Called(ctx, rule).Error(0)
}

// MockExecutionLogStore is a mock of store.ExecutionLogStore. Appended
// entries are also recorded for Entries, which is safe to call while another
// goroutine appends.
type MockExecutionLogStore struct {
	mock.Mock

	mu      sync.Mutex
	entries []*domain.ExecutionLogEntry
}

var _ store.ExecutionLogStore = (*MockExecutionLogStore)(nil)

// Append is a mock implementation of store.ExecutionLogStore.Append
func (m *MockExecutionLogStore) Append(ctx context.Context, entry *domain.ExecutionLogEntry) error {
	m.mu.Lock()
	m.entries = append(m.entries, entry)
	m.mu.Unlock()
	return m.Called(ctx, entry).Error(0)
}

// ListByRule is a mock implementation of store.ExecutionLogStore.ListByRule
func (m *MockExecutionLogStore) ListByRule(
	ctx context.Context,
	ruleID uuid.UUID,
	limit int,
) ([]*domain.ExecutionLogEntry, error) {
	args := m.Called(ctx, ruleID, limit)
	if entries, ok := args.Get(0).([]*domain.ExecutionLogEntry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

// Entries returns the entries passed to Append, in call order.
func (m *MockExecutionLogStore) Entries() []*domain.ExecutionLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.ExecutionLogEntry(nil), m.entries...)
}
