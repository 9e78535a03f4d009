// Package nav maps host events to screens and tracks the active screen.
package nav

import (
	"errors"
	"sync"
)

// Screen is one of the mutually exclusive kiosk views.
type Screen int

const (
	ScreenMain Screen = iota
	ScreenCompact
	ScreenSettings
)

var screenNames = map[Screen]string{
	ScreenMain:     "main",
	ScreenCompact:  "compact",
	ScreenSettings: "settings",
}

func (s Screen) String() string {
	if n, ok := screenNames[s]; ok {
		return n
	}
	return "unknown"
}

// Route returns the canonical route path for s.
func (s Screen) Route() string {
	switch s {
	case ScreenCompact:
		return "/show_small"
	case ScreenSettings:
		return "/settings"
	default:
		return "/show_main"
	}
}

var routes = map[string]Screen{
	"/":           ScreenMain,
	"/show_main":  ScreenMain,
	"/show_small": ScreenCompact,
	"/settings":   ScreenSettings,
}

// ErrUnknownRoute is returned by Router.Go for paths outside the route table.
var ErrUnknownRoute = errors.New("unknown route")

// ParseRoute resolves a route path to its screen.
func ParseRoute(path string) (Screen, bool) {
	s, ok := routes[path]
	return s, ok
}

// TriggerKind is an event kind that can move the kiosk to another screen.
type TriggerKind int

const (
	TriggerCreditAdded TriggerKind = iota
	TriggerCountdownFinished
	TriggerSettingsRequested
)

// Trigger is the navigation-relevant part of a host event. Flag carries the
// boolean payload of a settings request.
type Trigger struct {
	Kind TriggerKind
	Flag bool
}

// Decide returns the screen to show after t arrives while current is shown.
// The boolean is false when t does not navigate. Navigation to the screen
// already shown is still reported, so callers treat it as idempotent.
func Decide(current Screen, t Trigger) (Screen, bool) {
	switch t.Kind {
	case TriggerCreditAdded:
		return ScreenCompact, true
	case TriggerCountdownFinished:
		return ScreenMain, true
	case TriggerSettingsRequested:
		if t.Flag {
			return ScreenSettings, true
		}
	}
	return current, false
}

// Router holds the active screen. It is the routing state that Decide and
// user route links write to.
type Router struct {
	mu      sync.RWMutex
	current Screen
	changes chan struct{}
}

// NewRouter starts on the main screen.
func NewRouter() *Router {
	return &Router{current: ScreenMain, changes: make(chan struct{}, 1)}
}

// Current returns the active screen.
func (r *Router) Current() Screen {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Navigate makes s active and signals Changes.
func (r *Router) Navigate(s Screen) {
	r.mu.Lock()
	r.current = s
	r.mu.Unlock()

	select {
	case r.changes <- struct{}{}:
	default:
	}
}

// Apply runs Decide against the active screen and navigates when it says
// so. It returns the resulting screen and whether navigation happened.
func (r *Router) Apply(t Trigger) (Screen, bool) {
	r.mu.Lock()
	target, ok := Decide(r.current, t)
	if ok {
		r.current = target
	}
	r.mu.Unlock()

	if ok {
		select {
		case r.changes <- struct{}{}:
		default:
		}
	}
	return target, ok
}

// Go navigates to a route path, as a user route link would.
func (r *Router) Go(path string) error {
	s, ok := ParseRoute(path)
	if !ok {
		return ErrUnknownRoute
	}
	r.Navigate(s)
	return nil
}

// Changes is signaled after every navigation.
func (r *Router) Changes() <-chan struct{} {
	return r.changes
}
