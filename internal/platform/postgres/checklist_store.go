package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/phrazzld/corkboard/internal/platform/logger"
	"github.com/phrazzld/corkboard/internal/store"
)

// PostgresChecklistStore implements store.ChecklistStore.
type PostgresChecklistStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresChecklistStore creates a checklist store over db.
// If logger is nil, a default logger will be used.
func NewPostgresChecklistStore(db store.DBTX, logger *slog.Logger) *PostgresChecklistStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresChecklistStore{
		db:     db,
		logger: logger.With(slog.String("component", "checklist_store")),
	}
}

var _ store.ChecklistStore = (*PostgresChecklistStore)(nil)

// LastPosition implements store.ChecklistStore.LastPosition.
func (s *PostgresChecklistStore) LastPosition(ctx context.Context, cardID uuid.UUID) (*float64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var last sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(position) FROM checklists WHERE card_id = $1`, cardID).Scan(&last)
	if err != nil {
		log.Error("failed to read last checklist position",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, MapError(err)
	}

	if !last.Valid {
		return nil, nil
	}
	return &last.Float64, nil
}

// Create implements store.ChecklistStore.Create.
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresChecklistStore) Create(ctx context.Context, checklist *domain.Checklist) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checklists (id, card_id, title, position, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, checklist.ID, checklist.CardID, checklist.Title, checklist.Position, checklist.CreatedAt)
	if err != nil {
		log.Error("failed to create checklist",
			slog.String("error", err.Error()),
			slog.String("checklist_id", checklist.ID.String()),
			slog.String("card_id", checklist.CardID.String()))
		return MapForeignKeyViolation(err, map[string]error{
			"checklists_card_id_fkey": store.ErrCardNotFound,
		})
	}

	log.Debug("checklist created",
		slog.String("checklist_id", checklist.ID.String()),
		slog.Float64("position", checklist.Position))
	return nil
}
