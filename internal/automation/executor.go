package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/phrazzld/corkboard/internal/platform/logger"
	"github.com/phrazzld/corkboard/internal/store"
)

// Notifier delivers a notification to its user.
type Notifier interface {
	Notify(ctx context.Context, n *domain.Notification) error
}

// ActionApplier applies one action of a rule to a card.
type ActionApplier interface {
	Apply(ctx context.Context, ruleID uuid.UUID, action domain.Action, card domain.Card) error
}

// ExecutorDeps are the collaborators actions write through.
type ExecutorDeps struct {
	Cards         store.CardStore
	Comments      store.CommentStore
	Checklists    store.ChecklistStore
	Notifier      Notifier
	ExecutionLogs store.ExecutionLogStore
}

// Executor applies automation actions. Every attempt is recorded in the
// execution log; a failed log write is logged and otherwise ignored.
type Executor struct {
	deps   ExecutorDeps
	logger *slog.Logger
	now    func() time.Time
}

var _ ActionApplier = (*Executor)(nil)

// NewExecutor creates an Executor. It returns an error if any collaborator is nil.
func NewExecutor(deps ExecutorDeps, log *slog.Logger) (*Executor, error) {
	switch {
	case deps.Cards == nil:
		return nil, domain.NewValidationError("cards", "cannot be nil", domain.ErrValidation)
	case deps.Comments == nil:
		return nil, domain.NewValidationError("comments", "cannot be nil", domain.ErrValidation)
	case deps.Checklists == nil:
		return nil, domain.NewValidationError("checklists", "cannot be nil", domain.ErrValidation)
	case deps.Notifier == nil:
		return nil, domain.NewValidationError("notifier", "cannot be nil", domain.ErrValidation)
	case deps.ExecutionLogs == nil:
		return nil, domain.NewValidationError("executionLogs", "cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Executor{
		deps:   deps,
		logger: log.With(slog.String("component", "action_executor")),
		now:    time.Now,
	}, nil
}

// Apply runs one action against the card and records the outcome.
func (e *Executor) Apply(ctx context.Context, ruleID uuid.UUID, action domain.Action, card domain.Card) error {
	log := logger.FromContextOrDefault(ctx, e.logger).With(
		"rule_id", ruleID,
		"card_id", card.ID,
		"action_type", action.Type())

	err := e.dispatch(ctx, log, action, card)
	if err != nil {
		log.Warn("automation action failed", "error", err)
	} else {
		log.Debug("automation action applied")
	}

	entry := domain.NewExecutionLogEntry(ruleID, card.ID, action, err)
	if logErr := e.deps.ExecutionLogs.Append(ctx, entry); logErr != nil {
		log.Error("failed to write execution log entry",
			"error", logErr,
			"status", entry.Status)
	}
	return err
}

func (e *Executor) dispatch(ctx context.Context, log *slog.Logger, action domain.Action, card domain.Card) error {
	switch a := action.(type) {
	case domain.MoveCardAction:
		return e.moveCard(ctx, a, card)
	case domain.SetLabelAction:
		return e.setLabel(ctx, a, card)
	case domain.SetAssigneeAction:
		return e.setAssignee(ctx, a, card)
	case domain.SetPriorityAction:
		return e.setPriority(ctx, a, card)
	case domain.AddCommentAction:
		return e.addComment(ctx, a, card)
	case domain.SetDueDateAction:
		return e.setDueDate(ctx, a, card)
	case domain.ArchiveAction:
		return wrapStore(a.Type(), "archive card", e.deps.Cards.Archive(ctx, card.ID, e.now().UTC()))
	case domain.SendNotificationAction:
		return e.sendNotification(ctx, a, card)
	case domain.CreateChecklistAction:
		return e.createChecklist(ctx, a, card)
	case domain.UnknownAction:
		log.Warn("unknown automation action type ignored", "type", a.Tag)
		return nil
	default:
		log.Warn("unsupported automation action ignored", "type", fmt.Sprintf("%T", action))
		return nil
	}
}

func (e *Executor) moveCard(ctx context.Context, a domain.MoveCardAction, card domain.Card) error {
	columnID, err := requireID(a.Type(), "columnId", a.ColumnID)
	if err != nil {
		return err
	}
	return wrapStore(a.Type(), "move card", e.deps.Cards.MoveToColumn(ctx, card.ID, columnID))
}

func (e *Executor) setLabel(ctx context.Context, a domain.SetLabelAction, card domain.Card) error {
	labelID, err := requireID(a.Type(), "labelId", a.LabelID)
	if err != nil {
		return err
	}
	return wrapStore(a.Type(), "attach label", e.deps.Cards.AddLabel(ctx, card.ID, labelID))
}

func (e *Executor) setAssignee(ctx context.Context, a domain.SetAssigneeAction, card domain.Card) error {
	userID, err := requireID(a.Type(), "userId", a.UserID)
	if err != nil {
		return err
	}
	return wrapStore(a.Type(), "assign user", e.deps.Cards.AddAssignee(ctx, card.ID, userID))
}

func (e *Executor) setPriority(ctx context.Context, a domain.SetPriorityAction, card domain.Card) error {
	if strings.TrimSpace(a.Priority) == "" {
		return missingParam(a.Type(), "priority")
	}
	priority, err := domain.ParsePriority(a.Priority)
	if err != nil {
		return invalidParam(a.Type(), "priority", err)
	}
	return wrapStore(a.Type(), "set priority", e.deps.Cards.SetPriority(ctx, card.ID, priority))
}

func (e *Executor) addComment(ctx context.Context, a domain.AddCommentAction, card domain.Card) error {
	if strings.TrimSpace(a.Content) == "" {
		return missingParam(a.Type(), "content")
	}
	authorID, err := requireID(a.Type(), "authorId", a.AuthorID)
	if err != nil {
		return err
	}
	comment, err := domain.NewComment(card.ID, authorID, a.Content)
	if err != nil {
		return NewActionError(a.Type(), "invalid comment", err)
	}
	return wrapStore(a.Type(), "create comment", e.deps.Comments.Create(ctx, comment))
}

func (e *Executor) setDueDate(ctx context.Context, a domain.SetDueDateAction, card domain.Card) error {
	if strings.TrimSpace(a.DueDate) == "" {
		return missingParam(a.Type(), "dueDate")
	}
	due, err := parseDueDate(a.DueDate)
	if err != nil {
		return invalidParam(a.Type(), "dueDate", err)
	}
	return wrapStore(a.Type(), "set due date", e.deps.Cards.SetDueDate(ctx, card.ID, due))
}

func (e *Executor) sendNotification(ctx context.Context, a domain.SendNotificationAction, card domain.Card) error {
	if strings.TrimSpace(a.Title) == "" {
		return missingParam(a.Type(), "title")
	}
	if strings.TrimSpace(a.Message) == "" {
		return missingParam(a.Type(), "message")
	}

	var errs []error
	for _, userID := range card.AssigneeIDs {
		cardID := card.ID
		n := &domain.Notification{
			ID:        uuid.New(),
			UserID:    userID,
			BoardID:   card.BoardID,
			CardID:    &cardID,
			Type:      domain.NotificationAutomation,
			Title:     a.Title,
			Message:   a.Message,
			CreatedAt: e.now().UTC(),
		}
		if err := e.deps.Notifier.Notify(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", userID, err))
		}
	}
	if len(errs) > 0 {
		return NewActionError(a.Type(), "notification delivery failed", errors.Join(errs...))
	}
	return nil
}

func (e *Executor) createChecklist(ctx context.Context, a domain.CreateChecklistAction, card domain.Card) error {
	if strings.TrimSpace(a.Title) == "" {
		return missingParam(a.Type(), "title")
	}
	last, err := e.deps.Checklists.LastPosition(ctx, card.ID)
	if err != nil {
		return NewActionError(a.Type(), "read checklist positions", err)
	}
	checklist := &domain.Checklist{
		ID:        uuid.New(),
		CardID:    card.ID,
		Title:     a.Title,
		Position:  domain.NextChecklistPosition(last),
		CreatedAt: e.now().UTC(),
	}
	return wrapStore(a.Type(), "create checklist", e.deps.Checklists.Create(ctx, checklist))
}

func requireID(action domain.ActionType, name, raw string) (uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return uuid.Nil, missingParam(action, name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, invalidParam(action, name, err)
	}
	return id, nil
}

// parseDueDate accepts RFC 3339 timestamps and plain dates.
func parseDueDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func wrapStore(action domain.ActionType, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewActionError(action, op, err)
}
