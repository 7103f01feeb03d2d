// Package overlay holds the compositor-internal immediate-mode UI surface.
// The core only routes input to it; translating buffered input into widget
// events and painting the overlay are the overlay renderer's business.
package overlay

import (
	"sync"

	"github.com/Dirli-V/scape/internal/geometry"
)

// EventKind discriminates buffered overlay input.
type EventKind int

const (
	EventPointerMotion EventKind = iota
	EventPointerButton
	EventAxis
	EventKey
	EventModifiers
)

// Event is one buffered input event. Fields are populated per kind.
type Event struct {
	Kind      EventKind
	X, Y      float64
	Button    uint32
	Key       uint32
	Pressed   bool
	Axis      float64
	Modifiers uint32
}

// UI is a single overlay instance. The handle may be cloned (and pushed to
// from) before the render side first drains it, so the buffer is guarded by
// a lock; in steady state it is only entered from the loop goroutine.
type UI struct {
	mu     sync.Mutex
	name   string
	geo    geometry.Rect
	queue  []Event
	closed bool
}

// New creates an overlay instance covering geo.
func New(name string, geo geometry.Rect) *UI {
	return &UI{name: name, geo: geo}
}

// Name returns the overlay's identifier.
func (u *UI) Name() string {
	return u.name
}

// Geometry returns the overlay's current placement.
func (u *UI) Geometry() geometry.Rect {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.geo
}

// SetGeometry updates the overlay's placement.
func (u *UI) SetGeometry(geo geometry.Rect) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.geo = geo
}

// Push appends an input event to the buffer. Events pushed after Close are
// discarded.
func (u *UI) Push(ev Event) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return
	}
	u.queue = append(u.queue, ev)
}

// Drain returns and clears the buffered input, in arrival order.
func (u *UI) Drain() []Event {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := u.queue
	u.queue = nil
	return out
}

// Close tears the overlay down. A closed overlay is no longer alive as a
// focus target.
func (u *UI) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.closed = true
	u.queue = nil
}

// Alive reports whether the overlay can still receive input.
func (u *UI) Alive() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return !u.closed
}
