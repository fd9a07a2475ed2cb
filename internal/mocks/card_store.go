package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/phrazzld/corkboard/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockCardStore is a mock of store.CardStore.
type MockCardStore struct {
	mock.Mock
}

var _ store.CardStore = (*MockCardStore)(nil)

// GetByID is a mock implementation of store.CardStore.GetByID
func (m *MockCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	args := m.Called(ctx, id)
	if card, ok := args.Get(0).(*domain.Card); ok {
		return card, args.Error(1)
	}
	return nil, args.Error(1)
}

// MoveToColumn is a mock implementation of store.CardStore.MoveToColumn
func (m *MockCardStore) MoveToColumn(ctx context.Context, cardID, columnID uuid.UUID) error {
	return m.Called(ctx, cardID, columnID).Error(0)
}

// SetPriority is a mock implementation of store.CardStore.SetPriority
func (m *MockCardStore) SetPriority(ctx context.Context, cardID uuid.UUID, priority domain.Priority) error {
	return m.Called(ctx, cardID, priority).Error(0)
}

// SetDueDate is a mock implementation of store.CardStore.SetDueDate
func (m *MockCardStore) SetDueDate(ctx context.Context, cardID uuid.UUID, dueDate time.Time) error {
	return m.Called(ctx, cardID, dueDate).Error(0)
}

// Archive is a mock implementation of store.CardStore.Archive
func (m *MockCardStore) Archive(ctx context.Context, cardID uuid.UUID, at time.Time) error {
	return m.Called(ctx, cardID, at).Error(0)
}

// AddLabel is a mock implementation of store.CardStore.AddLabel
func (m *MockCardStore) AddLabel(ctx context.Context, cardID, labelID uuid.UUID) error {
	return m.Called(ctx, cardID, labelID).Error(0)
}

// AddAssignee is a mock implementation of store.CardStore.AddAssignee
func (m *MockCardStore) AddAssignee(ctx context.Context, cardID, userID uuid.UUID) error {
	return m.Called(ctx, cardID, userID).Error(0)
}
