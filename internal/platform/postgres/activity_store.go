package postgres

import (
	"context"
	"log/slog"

	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/phrazzld/corkboard/internal/platform/logger"
	"github.com/phrazzld/corkboard/internal/store"
)

// PostgresActivityStore implements store.ActivityStore.
type PostgresActivityStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresActivityStore creates an activity store over db.
// If logger is nil, a default logger will be used.
func NewPostgresActivityStore(db store.DBTX, logger *slog.Logger) *PostgresActivityStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresActivityStore{
		db:     db,
		logger: logger.With(slog.String("component", "activity_store")),
	}
}

var _ store.ActivityStore = (*PostgresActivityStore)(nil)

// Append implements store.ActivityStore.Append.
func (s *PostgresActivityStore) Append(ctx context.Context, entry *domain.ActivityEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var cardID, details any
	if entry.CardID != nil {
		cardID = *entry.CardID
	}
	if len(entry.Details) > 0 {
		details = string(entry.Details)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log (id, board_id, card_id, actor_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.ID, entry.BoardID, cardID, entry.ActorID, entry.Action, details, entry.CreatedAt)
	if err != nil {
		log.Error("failed to append activity",
			slog.String("error", err.Error()),
			slog.String("board_id", entry.BoardID.String()),
			slog.String("action", entry.Action))
		return MapError(err)
	}
	return nil
}
