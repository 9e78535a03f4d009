package eventbus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReturnsUniqueTokens(t *testing.T) {
	b := New()
	seen := map[Token]bool{}
	for i := 0; i < 10; i++ {
		tok := b.Subscribe("credit-added", func(Event) {})
		require.True(t, tok.Valid())
		assert.False(t, seen[tok], "token reused")
		seen[tok] = true
	}
	assert.Equal(t, 10, b.Count("credit-added"))
}

func TestPublishDeliversInSubscriptionOrder(t *testing.T) {
	b := New()
	var got []int
	b.Subscribe("e", func(Event) { got = append(got, 1) })
	b.Subscribe("e", func(Event) { got = append(got, 2) })
	b.Subscribe("other", func(Event) { got = append(got, 99) })

	b.Publish(Event{Name: "e"})
	assert.Equal(t, []int{1, 2}, got)
}

func TestUnsubscribeRemovesOnlyThatHandler(t *testing.T) {
	b := New()
	var a, c int
	tokA := b.Subscribe("e", func(Event) { a++ })
	b.Subscribe("e", func(Event) { c++ })

	require.True(t, b.Unsubscribe(tokA))
	b.Publish(Event{Name: "e"})

	assert.Equal(t, 0, a)
	assert.Equal(t, 1, c)
	assert.Equal(t, 1, b.Count("e"))
}

func TestUnsubscribeTwiceIsNoop(t *testing.T) {
	b := New()
	tok := b.Subscribe("e", func(Event) {})

	assert.True(t, b.Unsubscribe(tok))
	assert.False(t, b.Unsubscribe(tok))
	assert.False(t, b.Unsubscribe(Token{}))
	assert.Equal(t, 0, b.Len())
}

func TestUnsubscribeDuringDispatchSkipsLaterHandler(t *testing.T) {
	b := New()
	var second int
	var tok2 Token
	b.Subscribe("e", func(Event) { b.Unsubscribe(tok2) })
	tok2 = b.Subscribe("e", func(Event) { second++ })

	b.Publish(Event{Name: "e"})
	assert.Equal(t, 0, second)
}

func TestClose(t *testing.T) {
	b := New()
	var n int
	b.Subscribe("e", func(Event) { n++ })
	b.Close()

	b.Publish(Event{Name: "e"})
	assert.Equal(t, 0, n)
	assert.False(t, b.Subscribe("e", func(Event) {}).Valid())
	assert.Equal(t, 0, b.Len())
}

func TestConcurrentPublishSerialized(t *testing.T) {
	b := New()
	var inFlight, maxInFlight int
	var mu sync.Mutex
	b.Subscribe("e", func(Event) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		mu.Lock()
		inFlight--
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Publish(Event{Name: "e"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxInFlight)
}
