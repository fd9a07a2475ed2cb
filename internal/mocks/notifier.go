package mocks

import (
	"context"

	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockNotifier is a mock of the notification delivery collaborator used by
// the automation executor.
type MockNotifier struct {
	mock.Mock
}

// Notify is a mock implementation of Notify
func (m *MockNotifier) Notify(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}
