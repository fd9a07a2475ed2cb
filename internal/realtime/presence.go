package realtime

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// BoardBroadcaster sends an event to every connection on a board.
type BoardBroadcaster interface {
	ToBoard(ctx context.Context, boardID uuid.UUID, event string, payload any)
}

// PresenceStore is the presence contract the coordinator depends on. The
// in-memory PresenceTracker is the only implementation; a shared-store
// implementation can replace it without touching callers.
type PresenceStore interface {
	// Join marks the user present and reports whether the set changed.
	Join(ctx context.Context, boardID, userID uuid.UUID) bool
	// Leave marks the user absent and reports whether the set changed.
	Leave(ctx context.Context, boardID, userID uuid.UUID) bool
	// ListOnline returns the present users of a board in a stable order.
	ListOnline(boardID uuid.UUID) []uuid.UUID
}

// PresenceTracker keeps the set of present users per board. A presenceUpdate
// is broadcast only when a set actually changes, so repeated joins from
// several tabs of the same user are silent.
type PresenceTracker struct {
	broadcaster BoardBroadcaster
	logger      *slog.Logger

	mu     sync.Mutex
	boards map[uuid.UUID]map[uuid.UUID]struct{}
}

var _ PresenceStore = (*PresenceTracker)(nil)

// NewPresenceTracker creates an empty tracker.
func NewPresenceTracker(broadcaster BoardBroadcaster, log *slog.Logger) *PresenceTracker {
	if log == nil {
		log = slog.Default()
	}
	return &PresenceTracker{
		broadcaster: broadcaster,
		logger:      log.With("component", "presence_tracker"),
		boards:      make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

// Join adds userID to the board's presence set.
func (p *PresenceTracker) Join(ctx context.Context, boardID, userID uuid.UUID) bool {
	p.mu.Lock()
	set, ok := p.boards[boardID]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		p.boards[boardID] = set
	}
	if _, present := set[userID]; present {
		p.mu.Unlock()
		return false
	}
	set[userID] = struct{}{}
	users := sortedIDs(set)
	p.mu.Unlock()

	p.logger.Debug("user joined board", "board_id", boardID, "user_id", userID, "online", len(users))
	p.broadcast(ctx, boardID, users)
	return true
}

// Leave removes userID from the board's presence set. An emptied set is
// dropped from the tracker.
func (p *PresenceTracker) Leave(ctx context.Context, boardID, userID uuid.UUID) bool {
	p.mu.Lock()
	set, ok := p.boards[boardID]
	if !ok {
		p.mu.Unlock()
		return false
	}
	if _, present := set[userID]; !present {
		p.mu.Unlock()
		return false
	}
	delete(set, userID)
	if len(set) == 0 {
		delete(p.boards, boardID)
	}
	users := sortedIDs(set)
	p.mu.Unlock()

	p.logger.Debug("user left board", "board_id", boardID, "user_id", userID, "online", len(users))
	p.broadcast(ctx, boardID, users)
	return true
}

// ListOnline returns the users present on a board, sorted.
func (p *PresenceTracker) ListOnline(boardID uuid.UUID) []uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return sortedIDs(p.boards[boardID])
}

// BoardCount returns the number of boards with at least one present user.
func (p *PresenceTracker) BoardCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.boards)
}

func (p *PresenceTracker) broadcast(ctx context.Context, boardID uuid.UUID, users []uuid.UUID) {
	if p.broadcaster == nil {
		return
	}
	p.broadcaster.ToBoard(ctx, boardID, EventPresenceUpdate, PresenceUpdate{
		BoardID: boardID,
		Users:   users,
	})
}

func sortedIDs(set map[uuid.UUID]struct{}) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
