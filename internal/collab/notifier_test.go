package collab

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/phrazzld/corkboard/internal/mocks"
	"github.com/phrazzld/corkboard/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newNotification(userID uuid.UUID) *domain.Notification {
	return &domain.Notification{
		ID:      uuid.New(),
		UserID:  userID,
		BoardID: uuid.New(),
		Type:    domain.NotificationComment,
		Title:   "New comment",
		Message: "hello",
	}
}

func TestNotifier_Notify(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("stores then pushes notification and unread count", func(t *testing.T) {
		t.Parallel()
		store := &mocks.MockNotificationStore{}
		b := &recordingBroadcaster{}
		n, err := NewNotifier(store, b, discardLogger())
		require.NoError(t, err)

		userID := uuid.New()
		notification := newNotification(userID)
		store.On("Create", mock.Anything, notification).Return(nil).Once()
		store.On("CountUnread", mock.Anything, userID).Return(3, nil).Once()

		require.NoError(t, n.Notify(ctx, notification))

		store.AssertExpectations(t)
		pushed := b.byEvent(realtime.EventNotification)
		require.Len(t, pushed, 1)
		assert.Equal(t, userID, pushed[0].UserID)
		assert.Same(t, notification, pushed[0].Payload)

		pings := b.byEvent(realtime.EventNotificationUnread)
		require.Len(t, pings, 1)
		ping := pings[0].Payload.(realtime.UnreadPing)
		assert.Equal(t, userID, ping.UserID)
		require.NotNil(t, ping.Unread)
		assert.Equal(t, 3, *ping.Unread)
	})

	t.Run("store failure pushes nothing", func(t *testing.T) {
		t.Parallel()
		store := &mocks.MockNotificationStore{}
		b := &recordingBroadcaster{}
		n, err := NewNotifier(store, b, discardLogger())
		require.NoError(t, err)

		store.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))

		err = n.Notify(ctx, newNotification(uuid.New()))

		assert.Error(t, err)
		assert.Empty(t, b.sends)
		store.AssertNotCalled(t, "CountUnread", mock.Anything, mock.Anything)
	})

	t.Run("count failure still pings", func(t *testing.T) {
		t.Parallel()
		store := &mocks.MockNotificationStore{}
		b := &recordingBroadcaster{}
		n, err := NewNotifier(store, b, discardLogger())
		require.NoError(t, err)

		store.On("Create", mock.Anything, mock.Anything).Return(nil)
		store.On("CountUnread", mock.Anything, mock.Anything).Return(0, errors.New("timeout"))

		require.NoError(t, n.Notify(ctx, newNotification(uuid.New())))

		pings := b.byEvent(realtime.EventNotificationUnread)
		require.Len(t, pings, 1)
		assert.Nil(t, pings[0].Payload.(realtime.UnreadPing).Unread)
	})
}

func TestNewNotifier_ValidatesDeps(t *testing.T) {
	t.Parallel()

	_, err := NewNotifier(nil, &recordingBroadcaster{}, nil)
	assert.Error(t, err)
	_, err = NewNotifier(&mocks.MockNotificationStore{}, nil, nil)
	assert.Error(t, err)
}
