package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/phrazzld/corkboard/internal/platform/logger"
	"github.com/phrazzld/corkboard/internal/store"
)

// Foreign key constraints referenced by card mutations.
const (
	cardsColumnFK      = "cards_column_id_fkey"
	cardLabelsCardFK   = "card_labels_card_id_fkey"
	cardLabelsLabelFK  = "card_labels_label_id_fkey"
	cardAssigneeCardFK = "card_assignees_card_id_fkey"
)

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCardStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the CardStore interface.
// It needs a *sql.DB rather than a DBTX because snapshot reads open their own
// read-only transaction. If logger is nil, a default logger will be used.
func NewPostgresCardStore(db *sql.DB, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

// GetByID implements store.CardStore.GetByID.
// The card row, its assignees and its labels are read in one repeatable-read
// transaction so the snapshot is consistent.
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var card *domain.Card
	err := store.ReadSnapshot(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		c, err := scanCard(tx.QueryRowContext(ctx, `
			SELECT id, board_id, column_id, swimlane_id, title, description, priority,
			       due_date, position, archived_at, created_by, created_at, updated_at
			FROM cards
			WHERE id = $1
		`, id))
		if err != nil {
			return err
		}

		c.AssigneeIDs, err = queryIDs(ctx, tx,
			`SELECT user_id FROM card_assignees WHERE card_id = $1 ORDER BY created_at, user_id`, id)
		if err != nil {
			return fmt.Errorf("failed to load assignees: %w", err)
		}

		c.LabelIDs, err = queryIDs(ctx, tx,
			`SELECT label_id FROM card_labels WHERE card_id = $1 ORDER BY created_at, label_id`, id)
		if err != nil {
			return fmt.Errorf("failed to load labels: %w", err)
		}

		card = c
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card not found", slog.String("card_id", id.String()))
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get card by ID",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, MapError(err)
	}

	return card, nil
}

// MoveToColumn implements store.CardStore.MoveToColumn.
func (s *PostgresCardStore) MoveToColumn(ctx context.Context, cardID, columnID uuid.UUID) error {
	err := s.update(ctx, cardID, "move",
		`UPDATE cards SET column_id = $2, updated_at = $3 WHERE id = $1`,
		columnID, time.Now().UTC())
	return MapForeignKeyViolation(err, map[string]error{cardsColumnFK: store.ErrColumnNotFound})
}

// SetPriority implements store.CardStore.SetPriority.
func (s *PostgresCardStore) SetPriority(ctx context.Context, cardID uuid.UUID, priority domain.Priority) error {
	return s.update(ctx, cardID, "set_priority",
		`UPDATE cards SET priority = $2, updated_at = $3 WHERE id = $1`,
		string(priority), time.Now().UTC())
}

// SetDueDate implements store.CardStore.SetDueDate.
func (s *PostgresCardStore) SetDueDate(ctx context.Context, cardID uuid.UUID, dueDate time.Time) error {
	return s.update(ctx, cardID, "set_due_date",
		`UPDATE cards SET due_date = $2, updated_at = $3 WHERE id = $1`,
		dueDate.UTC(), time.Now().UTC())
}

// Archive implements store.CardStore.Archive.
func (s *PostgresCardStore) Archive(ctx context.Context, cardID uuid.UUID, at time.Time) error {
	return s.update(ctx, cardID, "archive",
		`UPDATE cards SET archived_at = $2, updated_at = $2 WHERE id = $1`,
		at.UTC())
}

// AddLabel implements store.CardStore.AddLabel.
func (s *PostgresCardStore) AddLabel(ctx context.Context, cardID, labelID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO card_labels (card_id, label_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (card_id, label_id) DO NOTHING
	`, cardID, labelID, time.Now().UTC())
	if err != nil {
		log.Error("failed to add label",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()),
			slog.String("label_id", labelID.String()))
		return MapForeignKeyViolation(err, map[string]error{
			cardLabelsCardFK:  store.ErrCardNotFound,
			cardLabelsLabelFK: store.ErrLabelNotFound,
		})
	}
	return nil
}

// AddAssignee implements store.CardStore.AddAssignee.
func (s *PostgresCardStore) AddAssignee(ctx context.Context, cardID, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO card_assignees (card_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (card_id, user_id) DO NOTHING
	`, cardID, userID, time.Now().UTC())
	if err != nil {
		log.Error("failed to add assignee",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()),
			slog.String("user_id", userID.String()))
		return MapForeignKeyViolation(err, map[string]error{
			cardAssigneeCardFK: store.ErrCardNotFound,
		})
	}
	return nil
}

// update runs a single-row UPDATE keyed on the card id ($1).
func (s *PostgresCardStore) update(
	ctx context.Context,
	cardID uuid.UUID,
	op string,
	query string,
	args ...any,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, query, append([]any{cardID}, args...)...)
	if err != nil {
		log.Error("card update failed",
			slog.String("operation", op),
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return err
	}

	if err := CheckRowsAffected(result, "card"); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrCardNotFound
		}
		return err
	}

	log.Debug("card updated",
		slog.String("operation", op),
		slog.String("card_id", cardID.String()))
	return nil
}

func scanCard(row *sql.Row) (*domain.Card, error) {
	var (
		c          domain.Card
		swimlaneID uuid.NullUUID
		priority   string
		dueDate    sql.NullTime
		archivedAt sql.NullTime
	)
	err := row.Scan(
		&c.ID,
		&c.BoardID,
		&c.ColumnID,
		&swimlaneID,
		&c.Title,
		&c.Description,
		&priority,
		&dueDate,
		&c.Position,
		&archivedAt,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Priority = domain.Priority(priority)
	if swimlaneID.Valid {
		id := swimlaneID.UUID
		c.SwimlaneID = &id
	}
	if dueDate.Valid {
		t := dueDate.Time.UTC()
		c.DueDate = &t
	}
	if archivedAt.Valid {
		t := archivedAt.Time.UTC()
		c.ArchivedAt = &t
	}
	return &c, nil
}

func queryIDs(ctx context.Context, db store.DBTX, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
