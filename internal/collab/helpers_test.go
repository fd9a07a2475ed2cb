package collab

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/phrazzld/corkboard/internal/events"
	"github.com/phrazzld/corkboard/internal/mocks"
	"github.com/phrazzld/corkboard/internal/realtime"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sent is one broadcast recorded by recordingBroadcaster. Exactly one of
// BoardID and UserID is set.
type sent struct {
	BoardID uuid.UUID
	UserID  uuid.UUID
	Event   string
	Payload any
}

type recordingBroadcaster struct {
	mu    sync.Mutex
	sends []sent
	// trace, when set, receives "broadcast" for every board send.
	trace func(step string)
}

func (b *recordingBroadcaster) ToBoard(_ context.Context, boardID uuid.UUID, event string, payload any) {
	b.mu.Lock()
	b.sends = append(b.sends, sent{BoardID: boardID, Event: event, Payload: payload})
	trace := b.trace
	b.mu.Unlock()
	if trace != nil {
		trace("broadcast")
	}
}

func (b *recordingBroadcaster) ToUser(_ context.Context, userID uuid.UUID, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sends = append(b.sends, sent{UserID: userID, Event: event, Payload: payload})
}

func (b *recordingBroadcaster) byEvent(event string) []sent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []sent
	for _, s := range b.sends {
		if s.Event == event {
			out = append(out, s)
		}
	}
	return out
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.MutationEvent
	err    error
	trace  func(step string)
}

func (e *recordingEmitter) EmitEvent(_ context.Context, event *events.MutationEvent) error {
	e.mu.Lock()
	e.events = append(e.events, event)
	trace := e.trace
	e.mu.Unlock()
	if trace != nil {
		trace("emit")
	}
	return e.err
}

// tokenVerifier accepts credentials of the form "token-<uuid>".
type tokenVerifier struct{}

func (tokenVerifier) Verify(_ context.Context, credential string) (uuid.UUID, error) {
	rest, ok := strings.CutPrefix(credential, "token-")
	if !ok {
		return uuid.Nil, errors.New("bad credential")
	}
	return uuid.Parse(rest)
}

type nopConn struct{}

func (nopConn) Send([]byte) error { return nil }
func (nopConn) Close() error      { return nil }

type fixture struct {
	registry    *realtime.Registry
	presence    *realtime.PresenceTracker
	locks       *realtime.EditLockTracker
	broadcaster *recordingBroadcaster
	activity    *mocks.MockActivityStore
	notifier    *mocks.MockNotifier
	cards       *mocks.MockCardStore
	emitter     *recordingEmitter
	coordinator *Coordinator
}

// newFixture wires a coordinator over a real registry and real trackers that
// broadcast into a recorder.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithPresence(t, nil)
}

// newFixtureWithPresence is newFixture with the coordinator's presence store
// wrapped by wrap.
func newFixtureWithPresence(t *testing.T, wrap func(realtime.PresenceStore) realtime.PresenceStore) *fixture {
	t.Helper()
	f := &fixture{
		registry:    realtime.NewRegistry(tokenVerifier{}, discardLogger()),
		broadcaster: &recordingBroadcaster{},
		activity:    &mocks.MockActivityStore{},
		notifier:    &mocks.MockNotifier{},
		cards:       &mocks.MockCardStore{},
		emitter:     &recordingEmitter{},
	}
	f.presence = realtime.NewPresenceTracker(f.broadcaster, discardLogger())
	f.locks = realtime.NewEditLockTracker(f.broadcaster, discardLogger())

	var presence realtime.PresenceStore = f.presence
	if wrap != nil {
		presence = wrap(presence)
	}

	coordinator, err := NewCoordinator(Deps{
		Sessions:    f.registry,
		Presence:    presence,
		Locks:       f.locks,
		Broadcaster: f.broadcaster,
		Activity:    f.activity,
		Notifier:    f.notifier,
		Cards:       f.cards,
		Events:      f.emitter,
	}, discardLogger())
	require.NoError(t, err)
	f.coordinator = coordinator
	f.registry.OnDisconnect(coordinator.HandleDisconnect)
	return f
}

func (f *fixture) connect(t *testing.T, userID uuid.UUID) uuid.UUID {
	t.Helper()
	c := f.registry.Register(nopConn{})
	_, err := f.registry.Authenticate(context.Background(), c.ID(), "token-"+userID.String())
	require.NoError(t, err)
	return c.ID()
}

// cardOn stores a card on boardID and returns its id.
func (f *fixture) cardOn(boardID uuid.UUID) uuid.UUID {
	card := newCard(boardID)
	f.cards.On("GetByID", mock.Anything, card.ID).Return(&card, nil)
	return card.ID
}

func newCard(boardID uuid.UUID, assignees ...uuid.UUID) domain.Card {
	return domain.Card{
		ID:          uuid.New(),
		BoardID:     boardID,
		ColumnID:    uuid.New(),
		Title:       "Write launch post",
		CreatedBy:   uuid.New(),
		AssigneeIDs: assignees,
		LabelIDs:    []uuid.UUID{},
	}
}
