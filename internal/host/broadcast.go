// Package host is a development stand-in for the kiosk host process. It
// serves the same WebSocket event stream and HTTP commands as the real
// host, driven by a station file and a simulated coin countdown.
package host

import (
	"sync"

	"github.com/earljohn004/centralized-pisonet-app/internal/client"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func newWSClient(conn *websocket.Conn) *wsClient {
	c := &wsClient{
		conn: conn,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *wsClient) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *wsClient) close() {
	close(c.send)
}

// Broadcaster fans host events out to every connected kiosk client.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*wsClient]bool
	seqMu   sync.Mutex
	seq     uint64
	log     zerolog.Logger
}

func NewBroadcaster(log zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		clients: make(map[*wsClient]bool),
		log:     log.With().Str("component", "broadcaster").Logger(),
	}
}

// AddClient registers conn and sends it the welcome events, in order,
// before any broadcast.
func (b *Broadcaster) AddClient(conn *websocket.Conn, welcome ...client.WSMessage) *wsClient {
	c := newWSClient(conn)

	b.mu.Lock()
	for _, msg := range welcome {
		if data, err := b.encode(msg.Type, msg.Payload); err == nil {
			c.send <- data
		}
	}
	b.clients[c] = true
	b.mu.Unlock()

	return c
}

func (b *Broadcaster) RemoveClient(c *wsClient) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

// Emit broadcasts event with payload. A nil payload is sent without a
// payload field.
func (b *Broadcaster) Emit(event string, payload interface{}) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			b.log.Error().Err(err).Str("event", event).Msg("broadcast marshal error")
			return
		}
		raw = data
	}

	// Holding the lock across encode and send keeps seq order equal to
	// delivery order for every client.
	b.mu.Lock()
	data, err := b.encode(event, raw)
	if err != nil {
		b.mu.Unlock()
		b.log.Error().Err(err).Str("event", event).Msg("broadcast marshal error")
		return
	}
	var slow []*wsClient
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	b.mu.Unlock()

	for _, c := range slow {
		b.log.Warn().Msg("ws client too slow, disconnecting")
		b.RemoveClient(c)
	}
	b.log.Debug().Str("event", event).Msg("emitted")
}

// message builds an envelope for AddClient welcome events.
func message(event string, payload interface{}) client.WSMessage {
	msg := client.WSMessage{Type: event}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			msg.Payload = data
		}
	}
	return msg
}

func (b *Broadcaster) encode(event string, payload json.RawMessage) ([]byte, error) {
	b.seqMu.Lock()
	b.seq++
	seq := b.seq
	b.seqMu.Unlock()
	return json.Marshal(client.WSMessage{Type: event, Seq: seq, Payload: payload})
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
