package realtime

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// EditLock records who is editing a card. It is advisory.
type EditLock struct {
	CardID  uuid.UUID `json:"cardId"`
	BoardID uuid.UUID `json:"boardId"`
	UserID  uuid.UUID `json:"userId"`
}

// EditLockTracker holds at most one lock per card. Acquire always succeeds
// and overwrites the previous holder.
type EditLockTracker struct {
	broadcaster BoardBroadcaster
	logger      *slog.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]EditLock
}

// NewEditLockTracker creates an empty tracker.
func NewEditLockTracker(broadcaster BoardBroadcaster, log *slog.Logger) *EditLockTracker {
	if log == nil {
		log = slog.Default()
	}
	return &EditLockTracker{
		broadcaster: broadcaster,
		logger:      log.With("component", "edit_lock_tracker"),
		locks:       make(map[uuid.UUID]EditLock),
	}
}

// Acquire assigns the card's lock to userID and broadcasts cardEditingStarted.
// A lock filed under another board is released there first.
func (t *EditLockTracker) Acquire(ctx context.Context, boardID, cardID, userID uuid.UUID) {
	t.mu.Lock()
	prev, held := t.locks[cardID]
	t.locks[cardID] = EditLock{CardID: cardID, BoardID: boardID, UserID: userID}
	t.mu.Unlock()

	if held && prev.UserID != userID {
		t.logger.Debug("edit lock taken over",
			"card_id", cardID,
			"previous_user_id", prev.UserID,
			"user_id", userID)
	}
	// Viewers of a board the card has left would otherwise keep a stale lock.
	if held && prev.BoardID != boardID {
		t.stopped(ctx, prev)
	}
	if t.broadcaster != nil {
		t.broadcaster.ToBoard(ctx, boardID, EventCardEditingStarted, EditingStarted{
			BoardID: boardID,
			CardID:  cardID,
			UserID:  userID,
		})
	}
}

// Release clears the lock if userID holds it. A release by anyone else is a
// silent no-op.
func (t *EditLockTracker) Release(ctx context.Context, cardID, userID uuid.UUID) bool {
	t.mu.Lock()
	lock, held := t.locks[cardID]
	if !held || lock.UserID != userID {
		t.mu.Unlock()
		return false
	}
	delete(t.locks, cardID)
	t.mu.Unlock()

	t.stopped(ctx, lock)
	return true
}

// ForceReleaseAll clears every lock userID holds.
func (t *EditLockTracker) ForceReleaseAll(ctx context.Context, userID uuid.UUID) []EditLock {
	return t.releaseWhere(ctx, func(l EditLock) bool { return l.UserID == userID })
}

// ReleaseBoard clears the locks userID holds on one board.
func (t *EditLockTracker) ReleaseBoard(ctx context.Context, boardID, userID uuid.UUID) []EditLock {
	return t.releaseWhere(ctx, func(l EditLock) bool {
		return l.UserID == userID && l.BoardID == boardID
	})
}

// Holder returns the current lock of a card.
func (t *EditLockTracker) Holder(cardID uuid.UUID) (EditLock, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	lock, ok := t.locks[cardID]
	return lock, ok
}

func (t *EditLockTracker) releaseWhere(ctx context.Context, match func(EditLock) bool) []EditLock {
	t.mu.Lock()
	var released []EditLock
	for cardID, lock := range t.locks {
		if match(lock) {
			released = append(released, lock)
			delete(t.locks, cardID)
		}
	}
	t.mu.Unlock()

	sort.Slice(released, func(i, j int) bool {
		return released[i].CardID.String() < released[j].CardID.String()
	})
	for _, lock := range released {
		t.stopped(ctx, lock)
	}
	return released
}

func (t *EditLockTracker) stopped(ctx context.Context, lock EditLock) {
	t.logger.Debug("edit lock released", "card_id", lock.CardID, "user_id", lock.UserID)
	if t.broadcaster == nil {
		return
	}
	t.broadcaster.ToBoard(ctx, lock.BoardID, EventCardEditingStopped, EditingStopped{
		BoardID: lock.BoardID,
		CardID:  lock.CardID,
	})
}
