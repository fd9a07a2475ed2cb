package collab

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/phrazzld/corkboard/internal/platform/logger"
	"github.com/phrazzld/corkboard/internal/realtime"
	"github.com/phrazzld/corkboard/internal/store"
)

// UserBroadcaster sends an event to every connection of a user.
type UserBroadcaster interface {
	ToUser(ctx context.Context, userID uuid.UUID, event string, payload any)
}

// Notifier persists a notification and pushes it to the user's personal
// channel, followed by an unread ping.
type Notifier struct {
	notifications store.NotificationStore
	broadcaster   UserBroadcaster
	logger        *slog.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(notifications store.NotificationStore, broadcaster UserBroadcaster, log *slog.Logger) (*Notifier, error) {
	if notifications == nil {
		return nil, domain.NewValidationError("notifications", "cannot be nil", domain.ErrValidation)
	}
	if broadcaster == nil {
		return nil, domain.NewValidationError("broadcaster", "cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{
		notifications: notifications,
		broadcaster:   broadcaster,
		logger:        log.With(slog.String("component", "notifier")),
	}, nil
}

// Notify stores n and pushes it. Nothing is pushed if storing fails.
func (n *Notifier) Notify(ctx context.Context, notification *domain.Notification) error {
	if err := n.notifications.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to store notification for user %s: %w", notification.UserID, err)
	}

	n.broadcaster.ToUser(ctx, notification.UserID, realtime.EventNotification, notification)

	ping := realtime.UnreadPing{UserID: notification.UserID}
	if count, err := n.notifications.CountUnread(ctx, notification.UserID); err != nil {
		logger.FromContextOrDefault(ctx, n.logger).Warn("failed to count unread notifications",
			"user_id", notification.UserID,
			"error", err)
	} else {
		ping.Unread = &count
	}
	n.broadcaster.ToUser(ctx, notification.UserID, realtime.EventNotificationUnread, ping)
	return nil
}
