package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/earljohn004/centralized-pisonet-app/internal/eventbus"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	writeTimeout       = 10 * time.Second
	pongTimeout        = 60 * time.Second
	pingInterval       = 30 * time.Second
)

// Publisher receives decoded host events.
type Publisher interface {
	Publish(eventbus.Event)
}

// WSClient manages the WebSocket connection to the host event stream.
type WSClient struct {
	url    string
	token  string
	log    zerolog.Logger
	dialer *websocket.Dialer

	// BaseDelay overrides the first reconnect delay. Zero means the default.
	BaseDelay time.Duration

	mu        sync.Mutex
	writeMu   sync.Mutex // serialises conn writes (ping)
	conn      *websocket.Conn
	seq       uint64
	connected bool
	changes   chan struct{}
}

// NewWSClient creates a client that connects to the given WebSocket URL.
func NewWSClient(url, token string, log zerolog.Logger) *WSClient {
	return &WSClient{
		url:     url,
		token:   token,
		log:     log.With().Str("component", "ws").Logger(),
		dialer:  websocket.DefaultDialer,
		changes: make(chan struct{}, 1),
	}
}

// Run connects, publishes every received event to pub in arrival order, and
// reconnects with exponential backoff when the connection drops. It returns
// when ctx is cancelled.
func (c *WSClient) Run(ctx context.Context, pub Publisher) error {
	base := c.BaseDelay
	if base <= 0 {
		base = reconnectBaseDelay
	}
	delay := base

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, err := c.dial(ctx)
		if err != nil {
			c.log.Warn().Err(err).Dur("retry_in", delay).Msg("ws dial failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = min(delay*2, reconnectMaxDelay)
			continue
		}
		delay = base

		c.setConn(conn)
		c.log.Info().Str("url", c.url).Msg("ws connected")

		connCtx, cancel := context.WithCancel(ctx)
		go c.pingLoop(connCtx, conn)
		go func() {
			<-connCtx.Done()
			conn.Close()
		}()

		err = c.readLoop(conn, pub)
		cancel()
		c.clearConn(conn)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn().Err(err).Msg("ws disconnected")
	}
}

func (c *WSClient) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, _, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *WSClient) readLoop(conn *websocket.Conn, pub Publisher) error {
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	conn.SetReadDeadline(time.Now().Add(pongTimeout))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn().Err(err).Int("bytes", len(data)).Msg("dropping undecodable ws frame")
			continue
		}
		if msg.Type == "" {
			c.log.Warn().Msg("dropping ws frame without type")
			continue
		}

		c.mu.Lock()
		c.seq = msg.Seq
		c.mu.Unlock()

		pub.Publish(eventbus.Event{Name: msg.Type, Seq: msg.Seq, Payload: msg.Payload})
	}
}

// pingLoop sends periodic pings on the given connection. It exits when the
// context is cancelled or the connection changes.
func (c *WSClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			cc := c.conn
			c.mu.Unlock()
			if cc != conn {
				return
			}
			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (c *WSClient) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.seq = 0
	c.connected = true
	c.mu.Unlock()
	c.signal()
}

func (c *WSClient) clearConn(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
		c.connected = false
	}
	c.mu.Unlock()
	c.signal()
}

func (c *WSClient) signal() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

// Connected reports whether a connection is currently open.
func (c *WSClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Changes is signaled when the connection opens or closes.
func (c *WSClient) Changes() <-chan struct{} {
	return c.changes
}

// Seq returns the last seen sequence number.
func (c *WSClient) Seq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// IsClosed reports whether err is a normal end of a Run call.
func IsClosed(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}
