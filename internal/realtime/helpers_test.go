package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var errSendFailed = errors.New("send failed")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeConn struct {
	mu      sync.Mutex
	frames  [][]byte
	closed  int
	sendErr error
}

func (c *fakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.frames = append(c.frames, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *fakeConn) envelopes(t *testing.T) []Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Envelope, 0, len(c.frames))
	for _, f := range c.frames {
		var env Envelope
		require.NoError(t, json.Unmarshal(f, &env))
		out = append(out, env)
	}
	return out
}

func (c *fakeConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
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

func tokenFor(userID uuid.UUID) string { return "token-" + userID.String() }

type broadcast struct {
	BoardID uuid.UUID
	Event   string
	Payload any
}

type recordingBroadcaster struct {
	mu    sync.Mutex
	calls []broadcast
}

func (b *recordingBroadcaster) ToBoard(_ context.Context, boardID uuid.UUID, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, broadcast{BoardID: boardID, Event: event, Payload: payload})
}

func (b *recordingBroadcaster) events(event string) []broadcast {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []broadcast
	for _, c := range b.calls {
		if c.Event == event {
			out = append(out, c)
		}
	}
	return out
}

func newTestRegistry() *Registry {
	return NewRegistry(tokenVerifier{}, discardLogger())
}

func connectUser(t *testing.T, r *Registry, userID uuid.UUID) (*Connection, *fakeConn) {
	t.Helper()
	fc := &fakeConn{}
	c := r.Register(fc)
	got, err := r.Authenticate(context.Background(), c.ID(), tokenFor(userID))
	require.NoError(t, err)
	require.Equal(t, userID, got)
	return c, fc
}
