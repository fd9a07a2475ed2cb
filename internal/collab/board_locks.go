package collab

import (
	"sync"

	"github.com/google/uuid"
)

// boardLocks hands out one mutex per board. Entries live only while someone
// holds or waits for them.
type boardLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*boardLock
}

type boardLock struct {
	mu   sync.Mutex
	refs int
}

// lock blocks until the board's mutex is held and returns its release.
func (b *boardLocks) lock(boardID uuid.UUID) (unlock func()) {
	b.mu.Lock()
	l, ok := b.locks[boardID]
	if !ok {
		l = &boardLock{}
		b.locks[boardID] = l
	}
	l.refs++
	b.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		b.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(b.locks, boardID)
		}
		b.mu.Unlock()
	}
}

// active returns the number of boards with a holder or waiter.
func (b *boardLocks) active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.locks)
}
