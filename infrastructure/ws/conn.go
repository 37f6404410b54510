package ws

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chat-relay/errors"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// conn adapts one gorilla WebSocket to the engine's contract.Conn. Outbound
// frames go through a buffered channel drained by the write pump, so the
// dispatcher never blocks on a slow socket: a full buffer or a closed
// connection fails the send fast and the frame is discarded.
type conn struct {
	id     string
	socket *websocket.Conn
	send   chan string
	closed chan struct{}
	once   sync.Once
	log    *slog.Logger
}

func newConn(socket *websocket.Conn, sendBuffer int, log *slog.Logger) *conn {
	return &conn{
		id:     uuid.New().String(),
		socket: socket,
		send:   make(chan string, sendBuffer),
		closed: make(chan struct{}),
		log:    log,
	}
}

func (c *conn) ID() string {
	return c.id
}

// Send queues one text frame. It never blocks and never retries.
func (c *conn) Send(text string) error {
	select {
	case <-c.closed:
		return errors.ErrConnClosed
	default:
	}
	select {
	case c.send <- text:
		return nil
	case <-c.closed:
		return errors.ErrConnClosed
	default:
		return fmt.Errorf("%w: send buffer full", errors.ErrConnClosed)
	}
}

// shutdown marks the connection dead and closes the socket. Idempotent; both
// pumps and the server may race to call it.
func (c *conn) shutdown() {
	c.once.Do(func() {
		close(c.closed)
		if err := c.socket.Close(); err != nil {
			c.log.Debug("Socket close", "conn", c.id, "err", err)
		}
	})
}

// readPump delivers inbound text frames to onMessage until the socket dies.
// The caller runs it on the connection's own goroutine.
func (c *conn) readPump(maxMessageSize int64, onMessage func(string)) {
	defer c.shutdown()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("Read failed", "conn", c.id, "err", err)
			}
			return
		}
		onMessage(string(raw))
	}
}

// writePump drains the send channel onto the socket and keeps the connection
// alive with pings.
func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.shutdown()
	}()

	for {
		select {
		case <-c.closed:
			return
		case text := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
				c.log.Debug("Write failed", "conn", c.id, "err", err)
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
