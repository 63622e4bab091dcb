package server

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/feltcraft/tabled/internal/auth"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Outbound buffer per connection. A full buffer drops the consumer.
	sendBuffer = 256
)

var ErrConnectionClosed = websocket.ErrCloseSent

// client is the runtime's view of a recipient. Connections implement it; so
// do the in-process test doubles and bot seats.
type client interface {
	Identity() auth.Identity
	Send(msg *Message)
}

// Connection wraps one WebSocket with its read/write pumps. Identity is fixed
// at upgrade time and never changes for the life of the socket.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	identity  auth.Identity
	server    *Server
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu      sync.RWMutex
	tableID string
}

// NewConnection creates a connection wrapper for an upgraded socket.
func NewConnection(conn *websocket.Conn, identity auth.Identity, server *Server, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:     conn,
		send:     make(chan *Message, sendBuffer),
		identity: identity,
		server:   server,
		logger:   logger.WithPrefix("conn").With("user", identity.UserID),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins handling the connection.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close tears the connection down. Safe to call more than once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// Done is closed when the connection has shut down.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Identity returns the authenticated identity behind this connection.
func (c *Connection) Identity() auth.Identity {
	return c.identity
}

// Send queues a message without blocking. A consumer that cannot keep up with
// the buffer is disconnected rather than stalling the table.
func (c *Connection) Send(msg *Message) {
	defer func() {
		if r := recover(); r != nil {
			// Channel closed during shutdown.
			c.logger.Debug("Send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
	case <-c.ctx.Done():
	default:
		c.logger.Warn("Send buffer full, dropping slow consumer")
		_ = c.Close()
	}
}

// setTable records the table this connection is subscribed to.
func (c *Connection) setTable(tableID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tableID = tableID
}

// Table returns the subscribed table ID, or "" when unsubscribed.
func (c *Connection) Table() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tableID
}

// readPump handles incoming messages from the client.
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.server.dispatch(c, &msg)
	}
}

// writePump handles outgoing messages to the client.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// sendError reports a failure on this connection only.
func (c *Connection) sendError(code ErrorCode, message string) {
	c.Send(mustMessage(MessageError, ErrorData{
		ErrorCode:     code,
		ErrorMessage:  message,
		ShouldRefresh: shouldRefresh(code),
	}))
}
