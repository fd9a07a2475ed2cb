package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/phrazzld/corkboard/internal/platform/logger"
	"github.com/phrazzld/corkboard/internal/store"
)

const ruleColumns = `id, board_id, name, trigger, conditions, actions, enabled, created_by, created_at, updated_at`

// PostgresRuleStore implements store.RuleStore. Triggers, conditions and
// actions are stored as JSONB documents and decoded on every read.
type PostgresRuleStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRuleStore creates a rule store over db.
// If logger is nil, a default logger will be used.
func NewPostgresRuleStore(db store.DBTX, logger *slog.Logger) *PostgresRuleStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRuleStore{
		db:     db,
		logger: logger.With(slog.String("component", "rule_store")),
	}
}

var _ store.RuleStore = (*PostgresRuleStore)(nil)

// ListEnabledByBoard implements store.RuleStore.ListEnabledByBoard.
// Rows whose documents cannot be decoded are skipped with a warning so one
// corrupt rule does not disable the rest of the board's automation.
func (s *PostgresRuleStore) ListEnabledByBoard(
	ctx context.Context,
	boardID uuid.UUID,
) ([]*domain.AutomationRule, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ruleColumns+`
		FROM automation_rules
		WHERE board_id = $1 AND enabled
		ORDER BY created_at, id
	`, boardID)
	if err != nil {
		log.Error("failed to list enabled rules",
			slog.String("error", err.Error()),
			slog.String("board_id", boardID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	rules := []*domain.AutomationRule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			if errors.Is(err, store.ErrInvalidEntity) {
				log.Warn("skipping undecodable automation rule",
					slog.String("error", err.Error()),
					slog.String("board_id", boardID.String()))
				continue
			}
			return nil, MapError(err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	log.Debug("listed enabled rules",
		slog.String("board_id", boardID.String()),
		slog.Int("count", len(rules)))
	return rules, nil
}

// GetByID implements store.RuleStore.GetByID.
func (s *PostgresRuleStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.AutomationRule, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rule, err := scanRule(s.db.QueryRowContext(ctx, `
		SELECT `+ruleColumns+`
		FROM automation_rules
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("rule not found", slog.String("rule_id", id.String()))
			return nil, store.ErrRuleNotFound
		}
		log.Error("failed to get rule by ID",
			slog.String("error", err.Error()),
			slog.String("rule_id", id.String()))
		return nil, MapError(err)
	}
	return rule, nil
}

// Create implements store.RuleStore.Create.
func (s *PostgresRuleStore) Create(ctx context.Context, rule *domain.AutomationRule) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := rule.Validate(); err != nil {
		log.Warn("rule validation failed during create",
			slog.String("error", err.Error()),
			slog.String("rule_id", rule.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	trigger, err := json.Marshal(rule.Trigger)
	if err != nil {
		return fmt.Errorf("failed to encode trigger: %w", err)
	}
	conditions := rule.Conditions
	if conditions == nil {
		conditions = []domain.Condition{}
	}
	conditionsDoc, err := json.Marshal(conditions)
	if err != nil {
		return fmt.Errorf("failed to encode conditions: %w", err)
	}
	actionsDoc, err := json.Marshal(rule.Actions)
	if err != nil {
		return fmt.Errorf("failed to encode actions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO automation_rules (`+ruleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		rule.ID,
		rule.BoardID,
		rule.Name,
		string(trigger),
		string(conditionsDoc),
		string(actionsDoc),
		rule.Enabled,
		rule.CreatedBy,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("automation rule already exists", slog.String("rule_id", rule.ID.String()))
		} else {
			log.Error("failed to create rule",
				slog.String("error", err.Error()),
				slog.String("rule_id", rule.ID.String()))
		}
		return MapError(err)
	}

	log.Info("automation rule created",
		slog.String("rule_id", rule.ID.String()),
		slog.String("board_id", rule.BoardID.String()),
		slog.String("trigger", string(rule.Trigger.Type)))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*domain.AutomationRule, error) {
	var (
		rule                   domain.AutomationRule
		trigger, conds, action []byte
	)
	if err := row.Scan(
		&rule.ID,
		&rule.BoardID,
		&rule.Name,
		&trigger,
		&conds,
		&action,
		&rule.Enabled,
		&rule.CreatedBy,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(trigger, &rule.Trigger); err != nil {
		return nil, fmt.Errorf("%w: rule %s trigger: %v", store.ErrInvalidEntity, rule.ID, err)
	}
	conditions, err := domain.DecodeConditions(conds)
	if err != nil {
		return nil, fmt.Errorf("%w: rule %s conditions: %v", store.ErrInvalidEntity, rule.ID, err)
	}
	rule.Conditions = conditions
	if len(action) > 0 {
		if err := json.Unmarshal(action, &rule.Actions); err != nil {
			return nil, fmt.Errorf("%w: rule %s actions: %v", store.ErrInvalidEntity, rule.ID, err)
		}
	}
	return &rule, nil
}
