package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/platform/logger"
)

// Conn is the transport side of a connection. Send must not block on a slow
// peer; implementations buffer and fail instead. Close must be idempotent.
type Conn interface {
	Send(data []byte) error
	Close() error
}

// Verifier resolves a credential to a user identity.
type Verifier interface {
	Verify(ctx context.Context, credential string) (uuid.UUID, error)
}

// Connection is one registered transport connection.
type Connection struct {
	id   uuid.UUID
	conn Conn

	// guarded by Registry.mu
	userID   uuid.UUID
	channels map[Channel]struct{}
}

// ID returns the connection id.
func (c *Connection) ID() uuid.UUID { return c.id }

// Send writes an encoded frame to the transport.
func (c *Connection) Send(data []byte) error { return c.conn.Send(data) }

// Membership is the outcome of a subscription change.
type Membership struct {
	UserID uuid.UUID
	// Changed is true when the user's first connection joined the channel
	// (subscribe) or the user's last connection left it (unsubscribe).
	Changed bool
}

// DisconnectEvent describes what a closed connection leaves behind.
type DisconnectEvent struct {
	ConnectionID uuid.UUID
	UserID       uuid.UUID
	// LeftBoards are the boards no remaining connection of the user views.
	LeftBoards []uuid.UUID
	// LastConnection is true when the user has no connection left.
	LastConnection bool
}

// DisconnectHandler runs synchronously inside Disconnect.
type DisconnectHandler func(ctx context.Context, ev DisconnectEvent)

// Registry owns every live connection and its channel subscriptions.
type Registry struct {
	verifier Verifier
	logger   *slog.Logger

	mu          sync.RWMutex
	conns       map[uuid.UUID]*Connection
	subscribers map[Channel]map[uuid.UUID]*Connection

	handlersMu sync.RWMutex
	handlers   []DisconnectHandler
}

// NewRegistry creates an empty registry.
func NewRegistry(verifier Verifier, log *slog.Logger) *Registry {
	if verifier == nil {
		panic("verifier cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		verifier:    verifier,
		logger:      log.With("component", "connection_registry"),
		conns:       make(map[uuid.UUID]*Connection),
		subscribers: make(map[Channel]map[uuid.UUID]*Connection),
	}
}

// OnDisconnect registers a cleanup handler.
func (r *Registry) OnDisconnect(h DisconnectHandler) {
	r.handlersMu.Lock()
	defer r.handlersMu.Unlock()
	r.handlers = append(r.handlers, h)
}

// Register adds an unauthenticated connection.
func (r *Registry) Register(conn Conn) *Connection {
	c := &Connection{
		id:       uuid.New(),
		conn:     conn,
		channels: make(map[Channel]struct{}),
	}
	r.mu.Lock()
	r.conns[c.id] = c
	r.mu.Unlock()

	r.logger.Debug("connection registered", "connection_id", c.id)
	return c
}

// Authenticate binds the connection to the user the credential resolves to
// and subscribes it to the user's personal channel. A missing or rejected
// credential closes and removes the connection.
func (r *Registry) Authenticate(ctx context.Context, connID uuid.UUID, credential string) (uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	r.mu.RLock()
	c, ok := r.conns[connID]
	var bound uuid.UUID
	if ok {
		bound = c.userID
	}
	r.mu.RUnlock()
	if !ok {
		return uuid.Nil, ErrUnknownConnection
	}
	if bound != uuid.Nil {
		return uuid.Nil, ErrAlreadyAuthenticated
	}

	if credential == "" {
		log.Debug("connection rejected: missing credential", "connection_id", connID)
		r.drop(connID)
		return uuid.Nil, fmt.Errorf("%w: missing credential", ErrAuthRejected)
	}

	userID, err := r.verifier.Verify(ctx, credential)
	if err == nil && userID == uuid.Nil {
		err = fmt.Errorf("verifier returned empty user")
	}
	if err != nil {
		log.Debug("connection rejected", "connection_id", connID, "error", err)
		r.drop(connID)
		return uuid.Nil, fmt.Errorf("%w: %v", ErrAuthRejected, err)
	}

	r.mu.Lock()
	c, ok = r.conns[connID]
	if !ok {
		r.mu.Unlock()
		return uuid.Nil, ErrUnknownConnection
	}
	c.userID = userID
	r.subscribeLocked(c, UserChannel(userID))
	r.mu.Unlock()

	log.Debug("connection authenticated", "connection_id", connID, "user_id", userID)
	return userID, nil
}

// drop removes a connection that never authenticated and closes it.
func (r *Registry) drop(connID uuid.UUID) {
	r.mu.Lock()
	c, ok := r.conns[connID]
	if ok {
		for ch := range c.channels {
			r.unsubscribeLocked(c, ch)
		}
		delete(r.conns, connID)
	}
	r.mu.Unlock()

	if ok {
		if err := c.conn.Close(); err != nil {
			r.logger.Debug("closing rejected connection failed", "connection_id", connID, "error", err)
		}
	}
}

// Subscribe adds the connection to a board channel. Personal channels are
// managed by Authenticate and cannot be subscribed to directly.
func (r *Registry) Subscribe(connID uuid.UUID, ch Channel) (Membership, error) {
	if _, ok := ch.BoardID(); !ok {
		return Membership{}, fmt.Errorf("%w: %q is not a board channel", ErrInvalidChannel, ch)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.authenticatedLocked(connID)
	if err != nil {
		return Membership{}, err
	}
	if _, already := c.channels[ch]; already {
		return Membership{UserID: c.userID}, nil
	}
	first := !r.userOnChannelLocked(c.userID, ch)
	r.subscribeLocked(c, ch)
	return Membership{UserID: c.userID, Changed: first}, nil
}

// Unsubscribe removes the connection from a board channel.
func (r *Registry) Unsubscribe(connID uuid.UUID, ch Channel) (Membership, error) {
	if _, ok := ch.BoardID(); !ok {
		return Membership{}, fmt.Errorf("%w: %q is not a board channel", ErrInvalidChannel, ch)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.authenticatedLocked(connID)
	if err != nil {
		return Membership{}, err
	}
	if _, subscribed := c.channels[ch]; !subscribed {
		return Membership{UserID: c.userID}, nil
	}
	r.unsubscribeLocked(c, ch)
	last := !r.userOnChannelLocked(c.userID, ch)
	return Membership{UserID: c.userID, Changed: last}, nil
}

// Disconnect removes the connection, closes its transport and runs the
// disconnect handlers. Disconnecting an unknown connection is a no-op.
func (r *Registry) Disconnect(ctx context.Context, connID uuid.UUID) {
	r.mu.Lock()
	c, ok := r.conns[connID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.conns, connID)

	ev := DisconnectEvent{ConnectionID: connID, UserID: c.userID}
	for ch := range c.channels {
		r.unsubscribeLocked(c, ch)
		if boardID, isBoard := ch.BoardID(); isBoard && !r.userOnChannelLocked(c.userID, ch) {
			ev.LeftBoards = append(ev.LeftBoards, boardID)
		}
	}
	ev.LastConnection = !r.userConnectedLocked(c.userID)
	r.mu.Unlock()

	log := logger.FromContextOrDefault(ctx, r.logger)
	if err := c.conn.Close(); err != nil {
		log.Debug("closing connection failed", "connection_id", connID, "error", err)
	}
	log.Debug("connection disconnected",
		"connection_id", connID,
		"user_id", ev.UserID,
		"left_boards", len(ev.LeftBoards),
		"last_connection", ev.LastConnection)

	if ev.UserID == uuid.Nil {
		return
	}

	r.handlersMu.RLock()
	handlers := append([]DisconnectHandler(nil), r.handlers...)
	r.handlersMu.RUnlock()
	for _, h := range handlers {
		h(ctx, ev)
	}
}

// DisconnectAll disconnects every registered connection. It is used on
// shutdown, when the HTTP server no longer tracks hijacked connections.
func (r *Registry) DisconnectAll(ctx context.Context) int {
	r.mu.RLock()
	ids := make([]uuid.UUID, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		r.Disconnect(ctx, id)
	}
	return len(ids)
}

// UserOf returns the user bound to a connection.
func (r *Registry) UserOf(connID uuid.UUID) (uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, err := r.authenticatedLocked(connID)
	if err != nil {
		return uuid.Nil, err
	}
	return c.userID, nil
}

// IsSubscribed reports whether the connection is on the channel.
func (r *Registry) IsSubscribed(connID uuid.UUID, ch Channel) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[connID]
	if !ok {
		return false
	}
	_, subscribed := c.channels[ch]
	return subscribed
}

// Viewing reports whether any connection of userID is on the channel.
func (r *Registry) Viewing(userID uuid.UUID, ch Channel) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.userOnChannelLocked(userID, ch)
}

// Connected reports whether userID has an authenticated connection.
func (r *Registry) Connected(userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.userConnectedLocked(userID)
}

// Subscribers returns a snapshot of the connections on a channel.
func (r *Registry) Subscribers(ch Channel) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.subscribers[ch]
	out := make([]*Connection, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	return out
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) authenticatedLocked(connID uuid.UUID) (*Connection, error) {
	c, ok := r.conns[connID]
	if !ok {
		return nil, ErrUnknownConnection
	}
	if c.userID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}
	return c, nil
}

func (r *Registry) subscribeLocked(c *Connection, ch Channel) {
	c.channels[ch] = struct{}{}
	set, ok := r.subscribers[ch]
	if !ok {
		set = make(map[uuid.UUID]*Connection)
		r.subscribers[ch] = set
	}
	set[c.id] = c
}

func (r *Registry) unsubscribeLocked(c *Connection, ch Channel) {
	delete(c.channels, ch)
	set := r.subscribers[ch]
	delete(set, c.id)
	if len(set) == 0 {
		delete(r.subscribers, ch)
	}
}

func (r *Registry) userOnChannelLocked(userID uuid.UUID, ch Channel) bool {
	for _, c := range r.subscribers[ch] {
		if c.userID == userID {
			return true
		}
	}
	return false
}

// userConnectedLocked reports whether any connection is bound to userID.
// The user's personal channel holds exactly those connections.
func (r *Registry) userConnectedLocked(userID uuid.UUID) bool {
	return len(r.subscribers[UserChannel(userID)]) > 0
}
