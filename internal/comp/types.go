package comp

import (
	"io"

	"github.com/Dirli-V/scape/internal/geometry"
)

// SurfaceID identifies a client surface for the lifetime of its client
// connection. IDs are never reused within one engine.
type SurfaceID uint64

// WindowID identifies a window across map/unmap cycles.
type WindowID uint64

// ClientID identifies a client connection.
type ClientID uint32

// PointerEvent carries pointer enter/motion data in space-logical
// coordinates.
type PointerEvent struct {
	Location geometry.Point
	Serial   uint32
	Time     uint32
}

// ButtonEvent carries a pointer button change.
type ButtonEvent struct {
	Button  uint32
	Pressed bool
	Serial  uint32
	Time    uint32
}

// AxisEvent carries scroll/wheel deltas.
type AxisEvent struct {
	Horizontal float64
	Vertical   float64
	Time       uint32
}

// GestureEvent carries swipe/pinch gesture data. Begin/update/end share the
// shape; unused fields are zero.
type GestureEvent struct {
	Fingers int
	DX, DY  float64
	Scale   float64
	Time    uint32
}

// KeyEvent carries a key press or release.
type KeyEvent struct {
	Key     uint32
	Pressed bool
	Serial  uint32
	Time    uint32
}

// Modifiers is the keyboard modifier state sent alongside key events.
type Modifiers struct {
	Depressed uint32
	Latched   uint32
	Locked    uint32
	Group     uint32
}

// TouchEvent carries one touch point update.
type TouchEvent struct {
	ID       int
	Location geometry.Point
	Serial   uint32
	Time     uint32
}

// EventSink receives input routed to a concrete surface. Implementations
// forward to the owning client; the discard sink is used for surfaces whose
// transport has not attached yet.
type EventSink interface {
	PointerEnter(ev PointerEvent)
	PointerMotion(ev PointerEvent)
	PointerButton(ev ButtonEvent)
	PointerAxis(ev AxisEvent)
	PointerFrame()
	PointerLeave()
	GestureBegin(ev GestureEvent)
	GestureUpdate(ev GestureEvent)
	GestureEnd(ev GestureEvent)
	KeyboardEnter()
	KeyboardKey(ev KeyEvent)
	KeyboardModifiers(m Modifiers)
	KeyboardLeave()
	TouchDown(ev TouchEvent)
	TouchUp(ev TouchEvent)
	TouchMotion(ev TouchEvent)
	TouchFrame()
	TouchCancel()
}

// discardSink drops everything. Surfaces start with it until a transport
// attaches a real sink.
type discardSink struct{}

func (discardSink) PointerEnter(PointerEvent)    {}
func (discardSink) PointerMotion(PointerEvent)   {}
func (discardSink) PointerButton(ButtonEvent)    {}
func (discardSink) PointerAxis(AxisEvent)        {}
func (discardSink) PointerFrame()                {}
func (discardSink) PointerLeave()                {}
func (discardSink) GestureBegin(GestureEvent)    {}
func (discardSink) GestureUpdate(GestureEvent)   {}
func (discardSink) GestureEnd(GestureEvent)      {}
func (discardSink) KeyboardEnter()               {}
func (discardSink) KeyboardKey(KeyEvent)         {}
func (discardSink) KeyboardModifiers(Modifiers)  {}
func (discardSink) KeyboardLeave()               {}
func (discardSink) TouchDown(TouchEvent)         {}
func (discardSink) TouchUp(TouchEvent)           {}
func (discardSink) TouchMotion(TouchEvent)       {}
func (discardSink) TouchFrame()                  {}
func (discardSink) TouchCancel()                 {}

// ConfigureFunc delivers a geometry proposal to a client. The transport (or
// the interop bridge) installs it per surface role.
type ConfigureFunc func(geometry.Rect)

// LoopHandle is the slice of the event loop the engine needs: idle-callback
// injection and fd readiness sources for commit blockers.
type LoopHandle interface {
	Post(fn func())
	AddReadSource(fd int, fn func()) error
	RemoveReadSource(fd int)
}

// Renderer is the external paint collaborator. The engine only tells it
// which output needs a redraw.
type Renderer interface {
	ScheduleRedraw(output string)
}

// Spawner is the external process-spawning collaborator.
type Spawner interface {
	Spawn(command string) error
}

// LegacyWindow is implemented by the interop bridge for windows that live on
// the legacy window-manager protocol. The engine treats it as an opaque
// surface kind with configure and close capabilities.
type LegacyWindow interface {
	EventSink

	LegacyID() uint32
	Alive() bool
	Client() ClientID
	Decorated() bool
	SendConfigure(r geometry.Rect) error
	Close() error
}

// SelectionKind distinguishes the two bridgeable selections.
type SelectionKind int

const (
	SelectionClipboard SelectionKind = iota
	SelectionPrimary
)

func (k SelectionKind) String() string {
	switch k {
	case SelectionClipboard:
		return "clipboard"
	case SelectionPrimary:
		return "primary"
	default:
		return "unknown"
	}
}

// SelectionSide names which protocol side owns a selection.
type SelectionSide int

const (
	SideNone SelectionSide = iota
	SideNative
	SideLegacy
)

func (s SelectionSide) String() string {
	switch s {
	case SideNative:
		return "native"
	case SideLegacy:
		return "legacy"
	default:
		return "none"
	}
}

// SelectionSource produces selection data for one mime type per request.
type SelectionSource interface {
	Send(mimeType string, dst io.WriteCloser) error
}

// OutputInfo is the connector-change hook's view of an output.
type OutputInfo struct {
	Name     string
	Geometry geometry.Rect
	Scale    float64
}
