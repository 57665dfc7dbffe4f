package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	ErrNotConnected  = errors.New("not connected")
	ErrAlreadyClosed = errors.New("already closed")
)

// ClientConfig configures a websocket client.
type ClientConfig struct {
	URL          string        // Full stream URL (e.g. wss://stream.bybit.com/v5/public/linear)
	DialTimeout  time.Duration // Handshake timeout
	WriteTimeout time.Duration // Write deadline for sends
	PingInterval time.Duration // Application-level ping cadence
	IdleTimeout  time.Duration // Max silence before a read fails (dead-feed detection)
}

// Client is a single websocket connection. Reads are synchronous and belong
// to one goroutine; writes are serialized internally so the ping loop and
// subscribe calls can share the connection.
type Client struct {
	cfg    ClientConfig
	logger *slog.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex

	mu        sync.Mutex
	connected bool
	closed    bool
	done      chan struct{}
}

// NewClient creates a websocket client.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Connect establishes the websocket connection and starts the ping loop.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrAlreadyClosed
	}
	c.mu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.DialTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return err
	}

	// Answer protocol-level pings, should the server send any.
	conn.SetPingHandler(func(data string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.pingLoop()

	c.logger.Debug("websocket connected", "url", c.cfg.URL)
	return nil
}

// Read blocks for the next message. The idle deadline makes a silently dead
// feed surface as a read error instead of blocking forever.
func (c *Client) Read() (data []byte, receivedAt time.Time, err error) {
	c.mu.Lock()
	conn := c.conn
	connected := c.connected
	c.mu.Unlock()

	if !connected || conn == nil {
		return nil, time.Time{}, ErrNotConnected
	}

	conn.SetReadDeadline(time.Now().Add(c.cfg.IdleTimeout))
	_, data, err = conn.ReadMessage()
	receivedAt = time.Now()
	if err != nil {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		return nil, receivedAt, err
	}
	return data, receivedAt, nil
}

// Send writes raw bytes to the connection.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.connected
	c.mu.Unlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// IsConnected returns current connection state.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Close sends a close frame and tears down the connection. Safe to call more
// than once and from any goroutine; it also unblocks a pending Read.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	conn := c.conn
	c.mu.Unlock()

	close(c.done)

	if conn != nil {
		c.writeMu.Lock()
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.writeMu.Unlock()
		return conn.Close()
	}
	return nil
}

// pingLoop sends the exchange's application-level ping op. The public stream
// drops connections that stay silent, regardless of protocol-level pings.
func (c *Client) pingLoop() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.Send([]byte(`{"op":"ping"}`)); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
			}
		}
	}
}
