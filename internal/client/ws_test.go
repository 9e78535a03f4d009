package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/earljohn004/centralized-pisonet-app/internal/eventbus"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanPublisher chan eventbus.Event

func (p chanPublisher) Publish(ev eventbus.Event) { p <- ev }

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestWSClientPublishesInOrder(t *testing.T) {
	authHeader := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader <- r.Header.Get("Authorization")
		up := websocket.Upgrader{}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		frames := []string{
			`{"type":"registration-acknowledged","seq":1}`,
			`not json`,
			`{"seq":2}`,
			`{"type":"credit-added","seq":3,"payload":5}`,
			`{"type":"countdown-tick","seq":4,"payload":30}`,
		}
		for _, f := range frames {
			conn.WriteMessage(websocket.TextMessage, []byte(f))
		}
		// Hold the connection open until the client goes away.
		conn.ReadMessage()
	}))
	defer srv.Close()

	c := NewWSClient(wsURL(srv.URL), "tok", zerolog.Nop())
	pub := make(chanPublisher, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, pub) }()

	var got []eventbus.Event
	for len(got) < 3 {
		select {
		case ev := <-pub:
			got = append(got, ev)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, got %d events", len(got))
		}
	}

	assert.Equal(t, "registration-acknowledged", got[0].Name)
	assert.Equal(t, "credit-added", got[1].Name)
	assert.JSONEq(t, "5", string(got[1].Payload))
	assert.Equal(t, "countdown-tick", got[2].Name)
	assert.Equal(t, uint64(4), got[2].Seq)
	assert.Equal(t, "Bearer tok", <-authHeader)
	assert.True(t, c.Connected())
	assert.Equal(t, uint64(4), c.Seq())

	cancel()
	select {
	case err := <-done:
		assert.True(t, IsClosed(err))
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, c.Connected())
}

func TestWSClientReconnects(t *testing.T) {
	connections := make(chan struct{}, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connections <- struct{}{}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"countdown-finished","seq":1}`))
		conn.Close()
	}))
	defer srv.Close()

	c := NewWSClient(wsURL(srv.URL), "", zerolog.Nop())
	c.BaseDelay = 10 * time.Millisecond
	pub := make(chanPublisher, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx, pub)

	for i := 0; i < 2; i++ {
		select {
		case <-connections:
		case <-time.After(2 * time.Second):
			t.Fatalf("connection %d not made", i+1)
		}
	}
}

func TestWSClientDialFailureRespectsCancel(t *testing.T) {
	c := NewWSClient("ws://127.0.0.1:1/ws", "", zerolog.Nop())
	c.BaseDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, make(chanPublisher, 1)) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run blocked in backoff after cancel")
	}
}
