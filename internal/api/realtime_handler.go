package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/phrazzld/corkboard/internal/api/middleware"
	"github.com/phrazzld/corkboard/internal/api/shared"
	"github.com/phrazzld/corkboard/internal/config"
	"github.com/phrazzld/corkboard/internal/platform/logger"
	"github.com/phrazzld/corkboard/internal/realtime"
)

// ConnectionRegistry is the registry side of the realtime gateway.
type ConnectionRegistry interface {
	Register(conn realtime.Conn) *realtime.Connection
	Authenticate(ctx context.Context, connID uuid.UUID, credential string) (uuid.UUID, error)
	Disconnect(ctx context.Context, connID uuid.UUID)
}

// SessionController applies client session messages.
type SessionController interface {
	JoinBoard(ctx context.Context, connID, boardID uuid.UUID) error
	LeaveBoard(ctx context.Context, connID, boardID uuid.UUID) error
	StartEditing(ctx context.Context, connID, boardID, cardID uuid.UUID) error
	StopEditing(ctx context.Context, connID, cardID uuid.UUID) (bool, error)
}

// RealtimeHandler upgrades HTTP requests to websocket connections and feeds
// them to the connection registry.
type RealtimeHandler struct {
	registry ConnectionRegistry
	sessions SessionController
	cfg      config.RealtimeConfig
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewRealtimeHandler creates a RealtimeHandler.
func NewRealtimeHandler(
	registry ConnectionRegistry,
	sessions SessionController,
	cfg config.RealtimeConfig,
	logger *slog.Logger,
) *RealtimeHandler {
	if registry == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("registry cannot be nil for RealtimeHandler")
	}
	if sessions == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("sessions cannot be nil for RealtimeHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for RealtimeHandler")
	}
	h := &RealtimeHandler{
		registry: registry,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "realtime_handler")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *RealtimeHandler) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(h.cfg.AllowedOrigins, r.Header.Get("Origin"))
}

// ServeWS handles GET /ws. The credential is read from the Authorization
// header or, for browsers that cannot set headers on websocket requests, the
// token query parameter. The call blocks until the connection ends.
func (h *RealtimeHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	credential, ok := middleware.BearerToken(r)
	if !ok {
		credential = r.URL.Query().Get("token")
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		log.Debug("websocket upgrade failed", "error", err)
		return
	}

	conn := newWSConn(ws, h.cfg)
	c := h.registry.Register(conn)
	log = log.With("connection_id", c.ID())
	go conn.writePump(log)

	// The hijacked request's context ends with this handler; cleanup must not.
	ctx := logger.WithLogger(context.WithoutCancel(r.Context()), log)

	conn.setCloseReason(CloseAuthFailed, "authentication failed")
	userID, err := h.registry.Authenticate(ctx, c.ID(), credential)
	if err != nil {
		log.Debug("websocket authentication rejected", "error", err)
		return
	}
	conn.setCloseReason(websocket.CloseNormalClosure, "")
	defer h.registry.Disconnect(ctx, c.ID())

	log = log.With("user_id", userID)
	ctx = logger.WithLogger(ctx, log)
	s := &session{handler: h, conn: c, userID: userID, log: log}
	s.reply(ctx, realtime.EventAuthenticated, AuthenticatedPayload{ConnectionID: c.ID(), UserID: userID})
	s.readLoop(ctx, conn)
}

// session is the read side of one authenticated connection.
type session struct {
	handler *RealtimeHandler
	conn    *realtime.Connection
	userID  uuid.UUID
	log     *slog.Logger
}

func (s *session) readLoop(ctx context.Context, conn *wsConn) {
	ws := conn.ws
	timeout := s.handler.cfg.PongTimeout
	ws.SetReadLimit(maxMessageBytes)
	_ = ws.SetReadDeadline(time.Now().Add(timeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(timeout))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket closed unexpectedly", "error", err)
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(timeout))
		s.handle(ctx, data)
	}
}

func (s *session) handle(ctx context.Context, data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.replyError(ctx, "", "Invalid message format")
		return
	}
	if err := shared.ValidateRequest(&msg); err != nil {
		s.replyError(ctx, msg.Type, SanitizeValidationError(err))
		return
	}

	sessions := s.handler.sessions
	connID := s.conn.ID()
	var err error
	switch msg.Type {
	case MessageJoinBoard:
		err = sessions.JoinBoard(ctx, connID, msg.BoardID)
	case MessageLeaveBoard:
		err = sessions.LeaveBoard(ctx, connID, msg.BoardID)
	case MessageStartEditing:
		err = sessions.StartEditing(ctx, connID, msg.BoardID, msg.CardID)
	case MessageStopEditing:
		_, err = sessions.StopEditing(ctx, connID, msg.CardID)
	}
	if err != nil {
		s.log.Warn("client message failed", "type", msg.Type, "error", err)
		s.replyError(ctx, msg.Type, "Request failed")
	}
}

func (s *session) reply(ctx context.Context, event string, payload any) {
	frame, err := realtime.EncodeFrame(realtime.UserChannel(s.userID), event, payload, time.Now())
	if err != nil {
		s.log.Error("failed to encode reply", "event", event, "error", err)
		return
	}
	if err := s.conn.Send(frame); err != nil {
		logger.FromContextOrDefault(ctx, s.log).Debug("failed to send reply", "event", event, "error", err)
	}
}

func (s *session) replyError(ctx context.Context, msgType, message string) {
	s.reply(ctx, realtime.EventError, ErrorPayload{Type: msgType, Message: message})
}
