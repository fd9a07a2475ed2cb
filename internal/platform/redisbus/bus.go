package redisbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/phrazzld/corkboard/internal/realtime"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "corkboard"

// ChannelName returns the Redis channel carrying a realtime channel.
func ChannelName(namespace string, ch realtime.Channel) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, namespace, ch)
}

// Pattern matches every channel of a namespace.
func Pattern(namespace string) string {
	return fmt.Sprintf("%s:%s:*", keyPrefix, namespace)
}

// Bus is a realtime.Publisher backed by Redis pub/sub.
type Bus struct {
	rdb       *redis.Client
	namespace string
	logger    *slog.Logger

	mu      sync.Mutex
	pubsub  *redis.PubSub
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

var _ realtime.Publisher = (*Bus)(nil)

// New creates a bus over an existing client.
func New(rdb *redis.Client, namespace string, log *slog.Logger) (*Bus, error) {
	if rdb == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if namespace == "" {
		return nil, errors.New("namespace cannot be empty")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Bus{
		rdb:       rdb,
		namespace: namespace,
		logger:    log.With("component", "redis_bus", "namespace", namespace),
	}, nil
}

// Ping checks the Redis connection.
func (b *Bus) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

// Publish implements realtime.Publisher.
func (b *Bus) Publish(ctx context.Context, env realtime.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}
	if err := b.rdb.Publish(ctx, ChannelName(b.namespace, env.Channel), data).Err(); err != nil {
		return fmt.Errorf("failed to publish envelope: %w", err)
	}
	return nil
}

// Start subscribes to the namespace and relays every received envelope to
// target until Close is called. The subscription is confirmed before Start
// returns.
func (b *Bus) Start(ctx context.Context, target realtime.Deliverer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return errors.New("bus already started")
	}

	pubsub := b.rdb.PSubscribe(ctx, Pattern(b.namespace))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", Pattern(b.namespace), err)
	}

	relayCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	b.pubsub = pubsub
	b.cancel = cancel
	b.done = make(chan struct{})
	b.started = true

	go b.relay(relayCtx, pubsub.Channel(), target, b.done)
	b.logger.Info("redis bus started", "pattern", Pattern(b.namespace))
	return nil
}

func (b *Bus) relay(ctx context.Context, msgs <-chan *redis.Message, target realtime.Deliverer, done chan struct{}) {
	defer close(done)
	prefix := fmt.Sprintf("%s:%s:", keyPrefix, b.namespace)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var env realtime.Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("dropping undecodable envelope", "channel", msg.Channel, "error", err)
				continue
			}
			if want := strings.TrimPrefix(msg.Channel, prefix); string(env.Channel) != want {
				b.logger.Warn("dropping envelope with mismatched channel",
					"channel", msg.Channel,
					"envelope_channel", env.Channel)
				continue
			}
			target.Deliver(ctx, env)
		}
	}
}

// Close stops the relay and closes the subscription. The Redis client is
// owned by the caller.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return nil
	}
	b.started = false
	b.cancel()
	err := b.pubsub.Close()
	<-b.done
	return err
}
