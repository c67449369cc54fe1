package ws

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Conn is the subset of the websocket connection the client needs; tests
// substitute their own.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one live websocket connection bound to an authorized user.
type Client struct {
	ID  string
	UID string

	conn    Conn
	send    chan []byte
	done    chan struct{}
	rooms   map[string]bool // guarded by hub.mu
	limiter *rate.Limiter
	closed  int32
}

func NewClient(conn Conn, uid string, rps int) *Client {
	return &Client{
		ID:      uuid.NewString(),
		UID:     uid,
		conn:    conn,
		send:    make(chan []byte, 256),
		done:    make(chan struct{}),
		rooms:   make(map[string]bool),
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// Send marshals and enqueues a payload for this connection only.
func (c *Client) Send(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	c.enqueue(data)
}

// enqueue never blocks and never panics: the send channel is never closed,
// so a broadcast racing a disconnect at worst buffers a frame nobody reads.
func (c *Client) enqueue(data []byte) {
	if atomic.LoadInt32(&c.closed) == 1 {
		return
	}
	select {
	case c.send <- data:
	default:
		// slow consumer: drop, fan-out is best effort
	}
}

// ReadPump reads frames until the connection drops, rate-limits them, and
// hands decoded envelopes to the handler. Malformed frames are ignored.
func (c *Client) ReadPump(handle func(*Client, Envelope)) {
	defer c.Close()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if !c.limiter.Allow() {
			continue
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		handle(c, env)
	}
}

// WritePump drains the send queue onto the wire and keeps the connection
// alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}

// Close is idempotent; the first call signals the write pump and closes the
// socket. The send channel stays open so concurrent broadcasts from other
// connections can never hit a closed channel.
func (c *Client) Close() {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		close(c.done)
		_ = c.conn.Close()
	}
}
