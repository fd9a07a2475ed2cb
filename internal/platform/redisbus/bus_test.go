package redisbus

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/realtime"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupRedis starts a miniredis instance and returns a client for it.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

type recordingDeliverer struct {
	mu   sync.Mutex
	envs []realtime.Envelope
	got  chan struct{}
}

func newRecordingDeliverer() *recordingDeliverer {
	return &recordingDeliverer{got: make(chan struct{}, 16)}
}

func (d *recordingDeliverer) Deliver(_ context.Context, env realtime.Envelope) {
	d.mu.Lock()
	d.envs = append(d.envs, env)
	d.mu.Unlock()
	d.got <- struct{}{}
}

func (d *recordingDeliverer) wait(t *testing.T) realtime.Envelope {
	t.Helper()
	select {
	case <-d.got:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for envelope")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.envs[len(d.envs)-1]
}

func TestNew(t *testing.T) {
	t.Parallel()

	rdb := setupRedis(t)

	_, err := New(nil, "ns", nil)
	assert.Error(t, err)

	_, err = New(rdb, "", nil)
	assert.Error(t, err)

	bus, err := New(rdb, "ns", discardLogger())
	require.NoError(t, err)
	assert.NoError(t, bus.Ping(context.Background()))
}

func TestChannelName(t *testing.T) {
	t.Parallel()

	boardID := uuid.New()
	assert.Equal(t, "corkboard:prod:board:"+boardID.String(), ChannelName("prod", realtime.BoardChannel(boardID)))
	assert.Equal(t, "corkboard:prod:*", Pattern("prod"))
}

func TestBus_PublishRelaysToTarget(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rdb := setupRedis(t)
	bus, err := New(rdb, "test", discardLogger())
	require.NoError(t, err)

	target := newRecordingDeliverer()
	require.NoError(t, bus.Start(ctx, target))
	t.Cleanup(func() { _ = bus.Close() })

	boardID := uuid.New()
	sent := realtime.Envelope{
		Event:   realtime.EventCardMoved,
		Channel: realtime.BoardChannel(boardID),
		Payload: json.RawMessage(`{"cardId":"c1"}`),
		SentAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, bus.Publish(ctx, sent))

	got := target.wait(t)
	assert.Equal(t, sent.Event, got.Event)
	assert.Equal(t, sent.Channel, got.Channel)
	assert.JSONEq(t, string(sent.Payload), string(got.Payload))
	assert.True(t, sent.SentAt.Equal(got.SentAt))
}

func TestBus_NamespacesAreIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rdb := setupRedis(t)

	busA, err := New(rdb, "alpha", discardLogger())
	require.NoError(t, err)
	busB, err := New(rdb, "beta", discardLogger())
	require.NoError(t, err)

	targetA := newRecordingDeliverer()
	targetB := newRecordingDeliverer()
	require.NoError(t, busA.Start(ctx, targetA))
	t.Cleanup(func() { _ = busA.Close() })
	require.NoError(t, busB.Start(ctx, targetB))
	t.Cleanup(func() { _ = busB.Close() })

	env := realtime.Envelope{
		Event:   realtime.EventNotificationUnread,
		Channel: realtime.UserChannel(uuid.New()),
		Payload: json.RawMessage(`{}`),
	}
	require.NoError(t, busB.Publish(ctx, env))

	targetB.wait(t)
	select {
	case <-targetA.got:
		t.Fatal("envelope leaked across namespaces")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBus_StartTwice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	bus, err := New(setupRedis(t), "test", discardLogger())
	require.NoError(t, err)

	require.NoError(t, bus.Start(ctx, newRecordingDeliverer()))
	t.Cleanup(func() { _ = bus.Close() })
	assert.Error(t, bus.Start(ctx, newRecordingDeliverer()))
}

func TestBus_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	bus, err := New(setupRedis(t), "test", discardLogger())
	require.NoError(t, err)
	assert.NoError(t, bus.Close())

	require.NoError(t, bus.Start(context.Background(), newRecordingDeliverer()))
	assert.NoError(t, bus.Close())
	assert.NoError(t, bus.Close())
}

type staticVerifier struct{ userID uuid.UUID }

func (v staticVerifier) Verify(context.Context, string) (uuid.UUID, error) { return v.userID, nil }

type bufferConn struct {
	frames chan []byte
}

func (c *bufferConn) Send(data []byte) error {
	c.frames <- data
	return nil
}

func (c *bufferConn) Close() error { return nil }

// Two instances share one Redis: a broadcast on instance A reaches a
// connection held by instance B.
func TestBus_CrossInstanceBroadcast(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rdb := setupRedis(t)
	userID := uuid.New()

	newInstance := func() (*realtime.Registry, *realtime.Router) {
		bus, err := New(rdb, "shared", discardLogger())
		require.NoError(t, err)
		registry := realtime.NewRegistry(staticVerifier{userID: userID}, discardLogger())
		router := realtime.NewRouter(registry, discardLogger(), realtime.WithPublisher(bus))
		require.NoError(t, bus.Start(ctx, router))
		t.Cleanup(func() { _ = bus.Close() })
		return registry, router
	}

	_, routerA := newInstance()
	registryB, _ := newInstance()

	conn := &bufferConn{frames: make(chan []byte, 4)}
	c := registryB.Register(conn)
	_, err := registryB.Authenticate(ctx, c.ID(), "token")
	require.NoError(t, err)

	routerA.ToUser(ctx, userID, realtime.EventNotificationUnread, realtime.UnreadPing{UserID: userID})

	select {
	case frame := <-conn.frames:
		var env realtime.Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		assert.Equal(t, realtime.EventNotificationUnread, env.Event)
		assert.Equal(t, realtime.UserChannel(userID), env.Channel)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for cross-instance frame")
	}
}
