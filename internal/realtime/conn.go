package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var (
	ErrConnClosed     = errors.New("realtime: connection closed")
	ErrSendBufferFull = errors.New("realtime: send buffer full")
)

// Conn is one live socket of one user.
type Conn interface {
	ID() string
	UserID() string
	Send(event string, data any) error
}

// wsConn wraps a gorilla connection with a bounded outbound queue drained by writePump.
type wsConn struct {
	id        string
	userID    string
	ws        *websocket.Conn
	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

func newWSConn(ws *websocket.Conn, userID string, buffer int, logger *slog.Logger) *wsConn {
	if buffer <= 0 {
		buffer = 32
	}
	return &wsConn{
		id:     uuid.New().String(),
		userID: userID,
		ws:     ws,
		send:   make(chan []byte, buffer),
		closed: make(chan struct{}),
		logger: logger,
	}
}

func (c *wsConn) ID() string     { return c.id }
func (c *wsConn) UserID() string { return c.userID }

// Send queues an event without blocking. A full queue drops the event.
func (c *wsConn) Send(event string, data any) error {
	payload, err := encode(event, data)
	if err != nil {
		return err
	}
	select {
	case <-c.closed:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	case <-c.closed:
		return ErrConnClosed
	default:
		return ErrSendBufferFull
	}
}

func (c *wsConn) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.ws.Close()
	})
}

// readPump handles inbound frames one at a time until the socket fails.
func (c *wsConn) readPump(ctx context.Context, handle func(context.Context, Envelope)) {
	defer c.Close()
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("Socket closed unexpectedly", "conn_id", c.id, "user_id", c.userID, "error", err)
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
			_ = c.Send(EventError, errorPayload{Message: "malformed frame"})
			continue
		}
		handle(ctx, env)
	}
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
