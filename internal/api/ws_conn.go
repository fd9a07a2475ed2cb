package api

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/phrazzld/corkboard/internal/config"
	"github.com/phrazzld/corkboard/internal/realtime"
)

const (
	// CloseAuthFailed is the close code sent when a connection's credential
	// is rejected.
	CloseAuthFailed = 4001

	maxMessageBytes = 4096
)

var (
	errConnClosed     = errors.New("connection closed")
	errSendBufferFull = errors.New("send buffer full")
)

// wsConn adapts a websocket to realtime.Conn. Frames are queued on a bounded
// buffer and written by a single writer goroutine, so Send never blocks on a
// slow peer.
type wsConn struct {
	ws           *websocket.Conn
	send         chan []byte
	done         chan struct{}
	closeOnce    sync.Once
	writeTimeout time.Duration
	pingInterval time.Duration

	mu        sync.Mutex
	closeCode int
	closeText string
}

var _ realtime.Conn = (*wsConn)(nil)

func newWSConn(ws *websocket.Conn, cfg config.RealtimeConfig) *wsConn {
	return &wsConn{
		ws:           ws,
		send:         make(chan []byte, cfg.SendBuffer),
		done:         make(chan struct{}),
		writeTimeout: cfg.WriteTimeout,
		pingInterval: cfg.PongTimeout * 9 / 10,
		closeCode:    websocket.CloseNormalClosure,
	}
}

// Send queues a frame. It fails when the buffer is full or the connection
// is closed.
func (c *wsConn) Send(data []byte) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errSendBufferFull
	}
}

// Close stops the writer, which flushes queued frames and sends a close frame.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *wsConn) setCloseReason(code int, text string) {
	c.mu.Lock()
	c.closeCode, c.closeText = code, text
	c.mu.Unlock()
}

func (c *wsConn) writePump(log *slog.Logger) {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			if err := c.write(websocket.TextMessage, frame); err != nil {
				log.Debug("websocket write failed", "error", err)
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				log.Debug("websocket ping failed", "error", err)
				_ = c.Close()
				return
			}
		case <-c.done:
			c.flush()
			c.mu.Lock()
			msg := websocket.FormatCloseMessage(c.closeCode, c.closeText)
			c.mu.Unlock()
			_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout))
			return
		}
	}
}

// flush writes frames still queued when the connection was closed.
func (c *wsConn) flush() {
	for {
		select {
		case frame := <-c.send:
			if err := c.write(websocket.TextMessage, frame); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *wsConn) write(messageType int, data []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, data)
}
