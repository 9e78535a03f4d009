// Package eventbus delivers named host events to subscribed handlers.
//
// Subscribe returns a Token and Unsubscribe requires it, so a caller can only
// release the handlers it installed. Dispatch is synchronous and serialized:
// two Publish calls never run handlers at the same time.
package eventbus

import (
	"sync"

	"github.com/goccy/go-json"
)

// Event is one host notification.
type Event struct {
	Name    string
	Seq     uint64
	Payload json.RawMessage
}

// Handler processes an event. Handlers run on the publishing goroutine.
type Handler func(Event)

// Token identifies a single subscription.
type Token struct {
	id   uint64
	name string
}

// Name returns the event name the token is bound to.
func (t Token) Name() string { return t.name }

// Valid reports whether the token came from Subscribe.
func (t Token) Valid() bool { return t.id != 0 }

type entry struct {
	id      uint64
	handler Handler
	active  bool
}

// Bus is an in-process event bus.
type Bus struct {
	mu     sync.Mutex
	subs   map[string][]*entry
	nextID uint64
	closed bool

	dispatchMu sync.Mutex
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[string][]*entry)}
}

// Subscribe binds h to events named name. Each call installs a new handler
// and returns a unique token. Subscribing on a closed bus returns a zero
// token.
func (b *Bus) Subscribe(name string, h Handler) Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return Token{}
	}
	b.nextID++
	e := &entry{id: b.nextID, handler: h, active: true}
	b.subs[name] = append(b.subs[name], e)
	return Token{id: e.id, name: name}
}

// Unsubscribe removes the handler bound to tok. It returns false when the
// token is unknown or already released; that is not an error.
func (b *Bus) Unsubscribe(tok Token) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.subs[tok.name]
	for i, e := range list {
		if e.id != tok.id {
			continue
		}
		e.active = false
		b.subs[tok.name] = append(list[:i:i], list[i+1:]...)
		if len(b.subs[tok.name]) == 0 {
			delete(b.subs, tok.name)
		}
		return true
	}
	return false
}

// Publish delivers ev to every handler subscribed to ev.Name, in
// subscription order. Handlers released before their turn are skipped.
func (b *Bus) Publish(ev Event) {
	b.dispatchMu.Lock()
	defer b.dispatchMu.Unlock()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	targets := append([]*entry(nil), b.subs[ev.Name]...)
	b.mu.Unlock()

	for _, e := range targets {
		b.mu.Lock()
		active := e.active
		b.mu.Unlock()
		if active {
			e.handler(ev)
		}
	}
}

// Count returns the number of handlers bound to name.
func (b *Bus) Count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[name])
}

// Len returns the total number of installed handlers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, list := range b.subs {
		n += len(list)
	}
	return n
}

// Close releases every subscription. Publish and Subscribe become no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, list := range b.subs {
		for _, e := range list {
			e.active = false
		}
	}
	b.subs = make(map[string][]*entry)
	b.closed = true
}
