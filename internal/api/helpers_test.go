package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/phrazzld/corkboard/internal/api/middleware"
	"github.com/phrazzld/corkboard/internal/collab"
	"github.com/phrazzld/corkboard/internal/config"
	"github.com/phrazzld/corkboard/internal/events"
	"github.com/phrazzld/corkboard/internal/mocks"
	"github.com/phrazzld/corkboard/internal/realtime"
	"github.com/phrazzld/corkboard/internal/service/auth"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testVerifier accepts tokens of the form "token-<uuid>".
func testVerifier() *auth.TokenVerifier {
	return auth.NewTokenVerifier(&auth.MockJWTService{
		ValidateTokenFunc: func(_ context.Context, token string) (*auth.Claims, error) {
			rest, ok := strings.CutPrefix(token, "token-")
			if !ok {
				return nil, auth.ErrInvalidToken
			}
			id, err := uuid.Parse(rest)
			if err != nil {
				return nil, auth.ErrInvalidToken
			}
			return &auth.Claims{UserID: id, TokenType: auth.TokenTypeAccess}, nil
		},
	})
}

func tokenFor(userID uuid.UUID) string { return "token-" + userID.String() }

// recordingHandler captures emitted mutation events.
type recordingHandler struct {
	mu     sync.Mutex
	events []*events.MutationEvent
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *events.MutationEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *recordingHandler) snapshot() []*events.MutationEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*events.MutationEvent(nil), h.events...)
}

// stack is a running gateway: real registry, router, trackers and
// coordinator over mocked stores, served by an httptest server.
type stack struct {
	registry *realtime.Registry
	coord    *collab.Coordinator
	cards    *mocks.MockCardStore
	activity *mocks.MockActivityStore
	notifier *mocks.MockNotifier
	emitted  *recordingHandler
	server   *httptest.Server
}

func testRealtimeConfig() config.RealtimeConfig {
	return config.RealtimeConfig{
		SendBuffer:   16,
		WriteTimeout: time.Second,
		PongTimeout:  5 * time.Second,
	}
}

// storedCard makes the card store return a card on boardID and returns its id.
func (s *stack) storedCard(boardID uuid.UUID) uuid.UUID {
	card := testCard(boardID)
	s.cards.On("GetByID", mock.Anything, card.ID).Return(card, nil)
	return card.ID
}

func newStack(t *testing.T) *stack {
	t.Helper()
	log := discardLogger()
	s := &stack{
		cards:    &mocks.MockCardStore{},
		activity: &mocks.MockActivityStore{},
		notifier: &mocks.MockNotifier{},
		emitted:  &recordingHandler{},
	}
	s.activity.On("Append", mock.Anything, mock.Anything).Return(nil).Maybe()
	s.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Maybe()

	verifier := testVerifier()
	s.registry = realtime.NewRegistry(verifier, log)
	router := realtime.NewRouter(s.registry, log)
	emitter := events.NewInMemoryEventEmitter(log)
	emitter.RegisterHandler(s.emitted)

	coord, err := collab.NewCoordinator(collab.Deps{
		Sessions:    s.registry,
		Presence:    realtime.NewPresenceTracker(router, log),
		Locks:       realtime.NewEditLockTracker(router, log),
		Broadcaster: router,
		Activity:    s.activity,
		Notifier:    s.notifier,
		Cards:       s.cards,
		Events:      emitter,
	}, log)
	require.NoError(t, err)
	s.coord = coord
	s.registry.OnDisconnect(coord.HandleDisconnect)

	rt := NewRealtimeHandler(s.registry, coord, testRealtimeConfig(), log)
	ch := NewCollabHandler(coord, log)
	authMW := middleware.NewAuthMiddleware(verifier)

	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware(log))
	r.Get("/ws", rt.ServeWS)
	r.Route("/api", func(r chi.Router) {
		r.Use(authMW.Authenticate)
		r.Get("/boards/{boardID}/presence", ch.GetPresence)
		r.Get("/cards/{cardID}/lock", ch.GetLock)
		r.Post("/mutations", ch.AnnounceMutation)
		r.Post("/boards/{boardID}/automation/trigger", ch.TriggerAutomation)
	})

	s.server = httptest.NewServer(r)
	t.Cleanup(s.server.Close)
	return s
}

func (s *stack) dial(t *testing.T, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Cleanup(func() { _ = ws.Close() })
	}
	return ws, resp, err
}

// connect dials as userID and consumes the authenticated frame.
func (s *stack) connect(t *testing.T, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	ws, _, err := s.dial(t, tokenFor(userID))
	require.NoError(t, err)
	env := readEvent(t, ws, realtime.EventAuthenticated)
	var payload AuthenticatedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	require.Equal(t, userID, payload.UserID)
	return ws
}

func send(t *testing.T, ws *websocket.Conn, msg any) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(msg))
}

// readEvent reads frames until one carries event.
func readEvent(t *testing.T, ws *websocket.Conn, event string) realtime.Envelope {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var env realtime.Envelope
		require.NoError(t, ws.ReadJSON(&env), "waiting for %s", event)
		if env.Event == event {
			return env
		}
	}
}

// waitFor polls cond until it holds or the test times out.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func (s *stack) request(t *testing.T, method, path string, userID uuid.UUID, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	require.NoError(t, err)
	if userID != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+tokenFor(userID))
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}
