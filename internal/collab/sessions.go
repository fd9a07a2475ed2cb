package collab

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/platform/logger"
	"github.com/phrazzld/corkboard/internal/realtime"
)

// JoinBoard subscribes the connection to the board and marks its user
// present. Joining again, or from a second tab, is silent.
func (c *Coordinator) JoinBoard(ctx context.Context, connID, boardID uuid.UUID) error {
	unlock := c.boards.lock(boardID)
	defer unlock()

	m, err := c.deps.Sessions.Subscribe(connID, realtime.BoardChannel(boardID))
	if err != nil {
		return fmt.Errorf("join board %s: %w", boardID, err)
	}
	c.syncBoardLocked(ctx, boardID, m.UserID)
	return nil
}

// LeaveBoard unsubscribes the connection. When no connection of the user
// views the board any more, the user is removed from presence and loses
// their locks on it.
func (c *Coordinator) LeaveBoard(ctx context.Context, connID, boardID uuid.UUID) error {
	unlock := c.boards.lock(boardID)
	defer unlock()

	m, err := c.deps.Sessions.Unsubscribe(connID, realtime.BoardChannel(boardID))
	if err != nil {
		return fmt.Errorf("leave board %s: %w", boardID, err)
	}
	c.syncBoardLocked(ctx, boardID, m.UserID)
	return nil
}

// syncBoardLocked aligns the user's presence and locks on a board with the
// registry. The caller holds the board's lock. State is read from the
// registry rather than taken from the triggering change, so the last sync to
// run reflects every connection that came or went before it.
func (c *Coordinator) syncBoardLocked(ctx context.Context, boardID, userID uuid.UUID) []realtime.EditLock {
	if c.deps.Sessions.Viewing(userID, realtime.BoardChannel(boardID)) {
		c.deps.Presence.Join(ctx, boardID, userID)
		return nil
	}
	c.deps.Presence.Leave(ctx, boardID, userID)
	return c.deps.Locks.ReleaseBoard(ctx, boardID, userID)
}

// StartEditing gives the connection's user the card's edit lock. The lock is
// filed under the card's own board, which the connection must have joined.
func (c *Coordinator) StartEditing(ctx context.Context, connID, boardID, cardID uuid.UUID) error {
	userID, err := c.deps.Sessions.UserOf(connID)
	if err != nil {
		return fmt.Errorf("start editing %s: %w", cardID, err)
	}
	card, err := c.Snapshot(ctx, boardID, cardID)
	if err != nil {
		return fmt.Errorf("start editing %s: %w", cardID, err)
	}

	unlock := c.boards.lock(card.BoardID)
	defer unlock()
	if !c.deps.Sessions.IsSubscribed(connID, realtime.BoardChannel(card.BoardID)) {
		return fmt.Errorf("start editing %s: %w", cardID, ErrNotViewingBoard)
	}
	c.deps.Locks.Acquire(ctx, card.BoardID, cardID, userID)
	return nil
}

// StopEditing releases the card's edit lock if the connection's user holds
// it. It reports whether a lock was released.
func (c *Coordinator) StopEditing(ctx context.Context, connID, cardID uuid.UUID) (bool, error) {
	userID, err := c.deps.Sessions.UserOf(connID)
	if err != nil {
		return false, fmt.Errorf("stop editing %s: %w", cardID, err)
	}
	return c.deps.Locks.Release(ctx, cardID, userID), nil
}

// HandleDisconnect is the registry's disconnect handler. Every board the
// connection left without another tab of the user on it is synced. Once the
// user has no connection at all, any lock still held is released.
func (c *Coordinator) HandleDisconnect(ctx context.Context, ev realtime.DisconnectEvent) {
	var released []realtime.EditLock
	for _, boardID := range ev.LeftBoards {
		unlock := c.boards.lock(boardID)
		released = append(released, c.syncBoardLocked(ctx, boardID, ev.UserID)...)
		unlock()
	}
	if ev.LastConnection && !c.deps.Sessions.Connected(ev.UserID) {
		released = append(released, c.deps.Locks.ForceReleaseAll(ctx, ev.UserID)...)
	}

	logger.FromContextOrDefault(ctx, c.logger).Debug("disconnect cleanup",
		"connection_id", ev.ConnectionID,
		"user_id", ev.UserID,
		"boards_left", len(ev.LeftBoards),
		"locks_released", len(released))
}

// OnlineUsers lists the users present on a board.
func (c *Coordinator) OnlineUsers(boardID uuid.UUID) []uuid.UUID {
	return c.deps.Presence.ListOnline(boardID)
}

// EditingHolder returns the current edit lock of a card.
func (c *Coordinator) EditingHolder(cardID uuid.UUID) (realtime.EditLock, bool) {
	return c.deps.Locks.Holder(cardID)
}
