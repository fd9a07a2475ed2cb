package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/phrazzld/corkboard/internal/platform/logger"
	"github.com/phrazzld/corkboard/internal/store"
)

// defaultExecutionLogLimit caps ListByRule when no positive limit is given.
const defaultExecutionLogLimit = 100

// PostgresExecutionLogStore implements store.ExecutionLogStore.
// Entries are only ever inserted.
type PostgresExecutionLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresExecutionLogStore creates an execution log store over db.
// If logger is nil, a default logger will be used.
func NewPostgresExecutionLogStore(db store.DBTX, logger *slog.Logger) *PostgresExecutionLogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresExecutionLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "execution_log_store")),
	}
}

var _ store.ExecutionLogStore = (*PostgresExecutionLogStore)(nil)

// Append implements store.ExecutionLogStore.Append.
func (s *PostgresExecutionLogStore) Append(ctx context.Context, entry *domain.ExecutionLogEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	params := entry.ActionParams
	if len(params) == 0 {
		params = []byte(`{}`)
	}
	var errText any
	if entry.Error != "" {
		errText = entry.Error
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO automation_execution_logs
			(id, rule_id, entity_id, status, action_type, action_params, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		entry.ID,
		entry.RuleID,
		entry.EntityID,
		string(entry.Status),
		string(entry.ActionType),
		string(params),
		errText,
		entry.CreatedAt,
	)
	if err != nil {
		log.Error("failed to append execution log entry",
			slog.String("error", err.Error()),
			slog.String("rule_id", entry.RuleID.String()),
			slog.String("action_type", string(entry.ActionType)))
		return MapError(err)
	}
	return nil
}

// ListByRule implements store.ExecutionLogStore.ListByRule.
func (s *PostgresExecutionLogStore) ListByRule(
	ctx context.Context,
	ruleID uuid.UUID,
	limit int,
) ([]*domain.ExecutionLogEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = defaultExecutionLogLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, rule_id, entity_id, status, action_type, action_params, error, created_at
		FROM automation_execution_logs
		WHERE rule_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`, ruleID, limit)
	if err != nil {
		log.Error("failed to list execution log",
			slog.String("error", err.Error()),
			slog.String("rule_id", ruleID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	entries := []*domain.ExecutionLogEntry{}
	for rows.Next() {
		var (
			e          domain.ExecutionLogEntry
			status     string
			actionType string
			params     []byte
			errText    sql.NullString
		)
		if err := rows.Scan(
			&e.ID, &e.RuleID, &e.EntityID, &status, &actionType, &params, &errText, &e.CreatedAt,
		); err != nil {
			return nil, MapError(err)
		}
		e.Status = domain.ExecutionStatus(status)
		e.ActionType = domain.ActionType(actionType)
		e.ActionParams = params
		e.Error = errText.String
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return entries, nil
}
