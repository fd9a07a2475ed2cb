package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/platform/logger"
)

// Envelope is the frame every client receives.
type Envelope struct {
	Event   string          `json:"event"`
	Channel Channel         `json:"channel"`
	Payload json.RawMessage `json:"payload"`
	SentAt  time.Time       `json:"sentAt"`
}

// EncodeFrame builds the wire frame of a single envelope. Handlers use it to
// answer one connection directly, outside any channel fan-out.
func EncodeFrame(ch Channel, event string, payload any, at time.Time) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Channel: ch, Payload: body, SentAt: at.UTC()})
}

// Publisher moves an envelope to every instance that may hold subscribers.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// Deliverer hands an envelope to local subscribers.
type Deliverer interface {
	Deliver(ctx context.Context, env Envelope)
}

// LocalPublisher delivers in-process, for single-instance deployments.
type LocalPublisher struct {
	Target Deliverer
}

// Publish implements Publisher.
func (p LocalPublisher) Publish(ctx context.Context, env Envelope) error {
	p.Target.Deliver(ctx, env)
	return nil
}

// SubscriberSource lists the local connections of a channel.
type SubscriberSource interface {
	Subscribers(ch Channel) []*Connection
}

// Router fans named events out to board and user channels. Delivery is best
// effort and at most once; callers never see a delivery error.
type Router struct {
	source    SubscriberSource
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithPublisher routes envelopes through p instead of delivering locally.
func WithPublisher(p Publisher) RouterOption {
	return func(r *Router) { r.publisher = p }
}

// NewRouter creates a router that delivers to source's connections.
func NewRouter(source SubscriberSource, log *slog.Logger, opts ...RouterOption) *Router {
	if log == nil {
		log = slog.Default()
	}
	r := &Router{
		source: source,
		logger: log.With("component", "broadcast_router"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.publisher == nil {
		r.publisher = LocalPublisher{Target: r}
	}
	return r
}

// ToBoard broadcasts to every connection viewing the board.
func (r *Router) ToBoard(ctx context.Context, boardID uuid.UUID, event string, payload any) {
	r.send(ctx, BoardChannel(boardID), event, payload)
}

// ToUser sends to every connection of the user.
func (r *Router) ToUser(ctx context.Context, userID uuid.UUID, event string, payload any) {
	r.send(ctx, UserChannel(userID), event, payload)
}

func (r *Router) send(ctx context.Context, ch Channel, event string, payload any) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	body, err := json.Marshal(payload)
	if err != nil {
		log.Error("failed to encode event payload", "event", event, "channel", ch, "error", err)
		return
	}
	env := Envelope{
		Event:   event,
		Channel: ch,
		Payload: body,
		SentAt:  r.now().UTC(),
	}
	if err := r.publisher.Publish(ctx, env); err != nil {
		log.Warn("failed to publish event", "event", event, "channel", ch, "error", err)
	}
}

// Deliver writes an envelope to the local subscribers of its channel. A
// failed send is logged and does not affect the other subscribers.
func (r *Router) Deliver(ctx context.Context, env Envelope) {
	conns := r.source.Subscribers(env.Channel)
	if len(conns) == 0 {
		return
	}

	log := logger.FromContextOrDefault(ctx, r.logger)
	frame, err := json.Marshal(env)
	if err != nil {
		log.Error("failed to encode envelope", "event", env.Event, "channel", env.Channel, "error", err)
		return
	}
	for _, c := range conns {
		if err := c.Send(frame); err != nil {
			log.Debug("failed to deliver event",
				"event", env.Event,
				"channel", env.Channel,
				"connection_id", c.ID(),
				"error", err)
		}
	}
}
