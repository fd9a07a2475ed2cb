package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/api/shared"
	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/phrazzld/corkboard/internal/platform/logger"
	"github.com/phrazzld/corkboard/internal/realtime"
)

// Collaboration is the coordinator surface the HTTP handlers drive.
type Collaboration interface {
	Snapshot(ctx context.Context, boardID, cardID uuid.UUID) (domain.Card, error)
	AnnounceCardCreated(ctx context.Context, actorID uuid.UUID, card domain.Card) error
	AnnounceCardUpdated(ctx context.Context, actorID uuid.UUID, card domain.Card) error
	AnnounceCardMoved(ctx context.Context, actorID uuid.UUID, card domain.Card, fromColumnID uuid.UUID) error
	AnnounceCardArchived(ctx context.Context, actorID uuid.UUID, card domain.Card) error
	AnnounceComment(ctx context.Context, actorID uuid.UUID, card domain.Card, comment domain.Comment) error
	AnnounceLabelAdded(ctx context.Context, actorID uuid.UUID, card domain.Card, labelID uuid.UUID) error
	AnnounceAssigneeAdded(ctx context.Context, actorID uuid.UUID, card domain.Card, assigneeID uuid.UUID) error
	TriggerRules(ctx context.Context, boardID uuid.UUID, triggerType domain.TriggerType, cardID uuid.UUID) error
	OnlineUsers(boardID uuid.UUID) []uuid.UUID
	EditingHolder(cardID uuid.UUID) (realtime.EditLock, bool)
}

// CollabHandler serves the HTTP side of collaboration: presence and lock
// queries, mutation announcements and externally scheduled automation.
type CollabHandler struct {
	collab Collaboration
	logger *slog.Logger
}

// NewCollabHandler creates a CollabHandler.
func NewCollabHandler(collab Collaboration, logger *slog.Logger) *CollabHandler {
	if collab == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("collaboration cannot be nil for CollabHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for CollabHandler")
	}
	return &CollabHandler{
		collab: collab,
		logger: logger.With(slog.String("component", "collab_handler")),
	}
}

// GetPresence handles GET /api/boards/{boardID}/presence.
func (h *CollabHandler) GetPresence(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	boardID, ok := authenticatedID(w, r, "boardID", log)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, PresenceResponse{
		BoardID: boardID,
		Users:   h.collab.OnlineUsers(boardID),
	})
}

// GetLock handles GET /api/cards/{cardID}/lock.
func (h *CollabHandler) GetLock(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	cardID, ok := authenticatedID(w, r, "cardID", log)
	if !ok {
		return
	}
	resp := LockResponse{CardID: cardID}
	if lock, held := h.collab.EditingHolder(cardID); held {
		resp.Locked = true
		resp.BoardID = &lock.BoardID
		resp.UserID = &lock.UserID
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// AnnounceMutation handles POST /api/mutations. The caller has committed the
// write; this broadcasts it, records activity, notifies and schedules
// automation for the card's current state.
func (h *CollabHandler) AnnounceMutation(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	actorID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req MutationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	log = log.With("kind", req.Kind, "board_id", req.BoardID, "card_id", req.CardID)

	card, err := h.collab.Snapshot(r.Context(), req.BoardID, req.CardID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load card")
		return
	}

	err = h.announce(r.Context(), actorID, card, req)
	if err != nil {
		log.Warn("mutation announced with errors", "error", err)
	}
	shared.RespondWithJSON(w, r, http.StatusAccepted, MutationResponse{
		Kind:     req.Kind,
		CardID:   card.ID,
		Degraded: err != nil,
	})
}

func (h *CollabHandler) announce(ctx context.Context, actorID uuid.UUID, card domain.Card, req MutationRequest) error {
	switch req.Kind {
	case MutationCardCreated:
		return h.collab.AnnounceCardCreated(ctx, actorID, card)
	case MutationCardUpdated:
		return h.collab.AnnounceCardUpdated(ctx, actorID, card)
	case MutationCardMoved:
		return h.collab.AnnounceCardMoved(ctx, actorID, card, *req.FromColumnID)
	case MutationCardArchived:
		return h.collab.AnnounceCardArchived(ctx, actorID, card)
	case MutationCommentAdded:
		return h.collab.AnnounceComment(ctx, actorID, card, domain.Comment{
			ID:        *req.CommentID,
			CardID:    card.ID,
			AuthorID:  actorID,
			Content:   req.Content,
			CreatedAt: time.Now().UTC(),
		})
	case MutationLabelAdded:
		return h.collab.AnnounceLabelAdded(ctx, actorID, card, *req.LabelID)
	default:
		return h.collab.AnnounceAssigneeAdded(ctx, actorID, card, *req.AssigneeID)
	}
}

// TriggerAutomation handles POST /api/boards/{boardID}/automation/trigger,
// the entry point of external schedulers such as recurring cards.
func (h *CollabHandler) TriggerAutomation(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	boardID, ok := authenticatedID(w, r, "boardID", log)
	if !ok {
		return
	}

	var req TriggerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	triggerType := domain.TriggerType(req.TriggerType)
	if err := h.collab.TriggerRules(r.Context(), boardID, triggerType, req.CardID); err != nil {
		HandleAPIError(w, r, err, "Failed to schedule automation")
		return
	}

	log.Debug("automation scheduled", "board_id", boardID, "card_id", req.CardID, "trigger_type", triggerType)
	shared.RespondWithJSON(w, r, http.StatusAccepted, TriggerResponse{
		BoardID:     boardID,
		CardID:      req.CardID,
		TriggerType: req.TriggerType,
	})
}
