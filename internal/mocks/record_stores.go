package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/phrazzld/corkboard/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockCommentStore is a mock of store.CommentStore.
type MockCommentStore struct {
	mock.Mock
}

var _ store.CommentStore = (*MockCommentStore)(nil)

// Create is a mock implementation of store.CommentStore.Create
func (m *MockCommentStore) Create(ctx context.Context, comment *domain.Comment) error {
	return m.Called(ctx, comment).Error(0)
}

// MockChecklistStore is a mock of store.ChecklistStore.
type MockChecklistStore struct {
	mock.Mock
}

var _ store.ChecklistStore = (*MockChecklistStore)(nil)

// LastPosition is a mock implementation of store.ChecklistStore.LastPosition
func (m *MockChecklistStore) LastPosition(ctx context.Context, cardID uuid.UUID) (*float64, error) {
	args := m.Called(ctx, cardID)
	if pos, ok := args.Get(0).(*float64); ok {
		return pos, args.Error(1)
	}
	return nil, args.Error(1)
}

// Create is a mock implementation of store.ChecklistStore.Create
func (m *MockChecklistStore) Create(ctx context.Context, checklist *domain.Checklist) error {
	return m.Called(ctx, checklist).Error(0)
}

// MockNotificationStore is a mock of store.NotificationStore.
type MockNotificationStore struct {
	mock.Mock
}

var _ store.NotificationStore = (*MockNotificationStore)(nil)

// Create is a mock implementation of store.NotificationStore.Create
func (m *MockNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

// CountUnread is a mock implementation of store.NotificationStore.CountUnread
func (m *MockNotificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// MockActivityStore is a mock of store.ActivityStore.
type MockActivityStore struct {
	mock.Mock
}

var _ store.ActivityStore = (*MockActivityStore)(nil)

// Append is a mock implementation of store.ActivityStore.Append
func (m *MockActivityStore) Append(ctx context.Context, entry *domain.ActivityEntry) error {
	return m.Called(ctx, entry).Error(0)
}
