package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hakimino/vyry/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 1 * 1024 * 1024

	burstCapacity    = 200
	refillPerSecond  = 50
)

// Client wraps a single websocket connection with read/write pumps and a
// token-bucket rate limiter, adapted from the teacher's
// internal/websocket/client.go.
type Client struct {
	conn *websocket.Conn
	log  *logging.Logger

	send chan []byte

	tokenMu    sync.Mutex
	tokens     int
	lastRefill time.Time

	closeOnce sync.Once

	// OnMessage is invoked from ReadPump for every inbound frame.
	OnMessage func(raw []byte)
	// OnClose is invoked once when the connection's read loop exits.
	OnClose func()
}

func NewClient(conn *websocket.Conn, log *logging.Logger) *Client {
	return &Client{
		conn:       conn,
		log:        log,
		send:       make(chan []byte, 100),
		tokens:     burstCapacity,
		lastRefill: time.Now(),
	}
}

func (c *Client) allow() bool {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	now := time.Now()
	elapsed := now.Sub(c.lastRefill)
	add := int(elapsed.Seconds() * refillPerSecond)
	if add > 0 {
		c.tokens = minInt(c.tokens+add, burstCapacity)
		c.lastRefill = now
	}
	if c.tokens > 0 {
		c.tokens--
		return true
	}
	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Send enqueues a frame for delivery. Returns false if the outbound buffer
// is full (slow consumer); the caller should drop the connection.
func (c *Client) Send(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Close closes the underlying connection exactly once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// ReadPump reads frames until the connection closes or a non-fatal read
// error occurs. Runs in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		if c.OnClose != nil {
			c.OnClose()
		}
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("unexpected close", "error", err)
			}
			return
		}
		if !c.allow() {
			continue
		}
		if c.OnMessage != nil {
			c.OnMessage(raw)
		}
	}
}

// WritePump drains the send channel to the connection and pings on an
// interval. Runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
