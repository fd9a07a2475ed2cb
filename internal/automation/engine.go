package automation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/phrazzld/corkboard/internal/platform/logger"
	"github.com/phrazzld/corkboard/internal/store"
)

// RunSummary counts what one trigger did.
type RunSummary struct {
	RulesLoaded      int
	RulesMatched     int
	ActionsAttempted int
	ActionsFailed    int
	RuleErrors       int
}

// Engine runs the automation rules of a board for a trigger.
type Engine struct {
	rules         store.RuleStore
	executor      ActionApplier
	logger        *slog.Logger
	actionTimeout time.Duration
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithActionTimeout bounds each action. Zero leaves actions unbounded.
func WithActionTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.actionTimeout = d }
}

// NewEngine creates an Engine. It returns an error if a dependency is nil.
func NewEngine(rules store.RuleStore, executor ActionApplier, log *slog.Logger, opts ...EngineOption) (*Engine, error) {
	if rules == nil {
		return nil, domain.NewValidationError("rules", "cannot be nil", domain.ErrValidation)
	}
	if executor == nil {
		return nil, domain.NewValidationError("executor", "cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		rules:    rules,
		executor: executor,
		logger:   log.With(slog.String("component", "automation_engine")),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// TriggerRules runs every enabled rule of the board whose trigger matches and
// whose conditions hold for the card. Failures are logged, never returned.
func (e *Engine) TriggerRules(ctx context.Context, boardID uuid.UUID, triggerType domain.TriggerType, card domain.Card) {
	e.TriggerRulesWithSummary(ctx, boardID, triggerType, card)
}

// TriggerRulesWithSummary is TriggerRules reporting what happened.
func (e *Engine) TriggerRulesWithSummary(
	ctx context.Context,
	boardID uuid.UUID,
	triggerType domain.TriggerType,
	card domain.Card,
) (summary RunSummary) {
	log := logger.FromContextOrDefault(ctx, e.logger).With(
		"board_id", boardID,
		"trigger_type", triggerType,
		"card_id", card.ID)

	defer func() {
		if r := recover(); r != nil {
			summary.RuleErrors++
			log.Error("automation trigger panicked", "panic", fmt.Sprintf("%v", r))
		}
	}()

	rules, err := e.rules.ListEnabledByBoard(ctx, boardID)
	if err != nil {
		summary.RuleErrors++
		log.Error("failed to load automation rules", "error", err)
		return summary
	}
	summary.RulesLoaded = len(rules)

	for _, rule := range rules {
		if rule.Trigger.Type != triggerType {
			continue
		}
		for _, c := range rule.Conditions {
			if !c.Operator.Known() {
				log.Warn("unknown condition operator treated as passing",
					"rule_id", rule.ID,
					"operator", c.Operator)
			}
		}
		if !Evaluate(rule.Conditions, card) {
			log.Debug("automation rule conditions not met", "rule_id", rule.ID)
			continue
		}
		summary.RulesMatched++
		e.runRule(ctx, log, rule.ID, card, &summary)
	}

	log.Debug("automation trigger finished",
		"rules_loaded", summary.RulesLoaded,
		"rules_matched", summary.RulesMatched,
		"actions_attempted", summary.ActionsAttempted,
		"actions_failed", summary.ActionsFailed)
	return summary
}

// runRule re-reads the rule and applies its actions in order. A panic or
// read failure ends this rule only.
func (e *Engine) runRule(ctx context.Context, log *slog.Logger, ruleID uuid.UUID, card domain.Card, summary *RunSummary) {
	log = log.With("rule_id", ruleID)
	defer func() {
		if r := recover(); r != nil {
			summary.RuleErrors++
			log.Error("automation rule panicked", "panic", fmt.Sprintf("%v", r))
		}
	}()

	rule, err := e.rules.GetByID(ctx, ruleID)
	if err != nil {
		summary.RuleErrors++
		if store.IsNotFoundError(err) {
			log.Warn("automation rule disappeared before execution")
		} else {
			log.Error("failed to reload automation rule", "error", err)
		}
		return
	}
	if !rule.Enabled {
		log.Info("automation rule disabled before execution")
		return
	}

	log.Info("running automation rule", "rule_name", rule.Name, "actions", len(rule.Actions))
	for _, action := range rule.Actions {
		summary.ActionsAttempted++
		if err := e.apply(ctx, rule.ID, action, card); err != nil {
			summary.ActionsFailed++
		}
	}
}

func (e *Engine) apply(ctx context.Context, ruleID uuid.UUID, action domain.Action, card domain.Card) error {
	if e.actionTimeout <= 0 {
		return e.executor.Apply(ctx, ruleID, action, card)
	}
	actionCtx, cancel := context.WithTimeout(ctx, e.actionTimeout)
	defer cancel()
	return e.executor.Apply(actionCtx, ruleID, action, card)
}
