package comp

import (
	"github.com/Dirli-V/scape/internal/geometry"
	"github.com/Dirli-V/scape/internal/overlay"
)

// Target is a focusable thing. The set of variants is closed: windows,
// layer surfaces, popups, the lock screen, synthetic decorations and the
// internal overlay. Variants differ only in which input they accept; input a
// variant does not support is silently dropped, and a dead target receives
// nothing at all.
type Target interface {
	Alive() bool
	sink() EventSink

	sealed()
}

// WindowTarget focuses a window's content surface.
type WindowTarget struct{ Window *Window }

func (t WindowTarget) Alive() bool     { return t.Window != nil && t.Window.Alive() }
func (t WindowTarget) sink() EventSink { return t.Window.sink() }
func (WindowTarget) sealed()           {}

// LayerTarget focuses a layer surface.
type LayerTarget struct{ Layer *LayerSurface }

func (t LayerTarget) Alive() bool     { return t.Layer != nil && t.Layer.Alive() }
func (t LayerTarget) sink() EventSink { return t.Layer.Surface().Sink() }
func (LayerTarget) sealed()           {}

// PopupTarget focuses a popup surface.
type PopupTarget struct{ Popup *Popup }

func (t PopupTarget) Alive() bool     { return t.Popup != nil && t.Popup.Alive() }
func (t PopupTarget) sink() EventSink { return t.Popup.Surface().Sink() }
func (PopupTarget) sealed()           {}

// LockScreenTarget focuses the session lock surface. While it holds focus
// nothing else may receive input.
type LockScreenTarget struct{ Surface *Surface }

func (t LockScreenTarget) Alive() bool     { return t.Surface != nil && t.Surface.Alive() }
func (t LockScreenTarget) sink() EventSink { return t.Surface.Sink() }
func (LockScreenTarget) sealed()           {}

// DecorationTarget focuses the synthetic decoration drawn around a window.
// Input lands in the window's decoration state, not at the client.
type DecorationTarget struct{ Window *Window }

func (t DecorationTarget) Alive() bool     { return t.Window != nil && t.Window.Alive() }
func (t DecorationTarget) sink() EventSink { return decorationSink{t.Window} }
func (DecorationTarget) sealed()           {}

// OverlayTarget focuses the compositor-internal overlay UI. Pointer and
// keyboard input is buffered for the overlay renderer; touch is unsupported
// and dropped.
type OverlayTarget struct{ UI *overlay.UI }

func (t OverlayTarget) Alive() bool     { return t.UI != nil && t.UI.Alive() }
func (t OverlayTarget) sink() EventSink { return overlaySink{t.UI} }
func (OverlayTarget) sealed()           {}

// AsWindow converts a target to its window. Every non-window variant fails
// with ErrNotAWindow.
func AsWindow(t Target) (*Window, error) {
	if wt, ok := t.(WindowTarget); ok {
		return wt.Window, nil
	}
	return nil, ErrNotAWindow
}

// decorationSink routes input into the window's decoration state so the
// shell can start move/resize grabs from decoration presses.
type decorationSink struct{ w *Window }

func (d decorationSink) PointerEnter(ev PointerEvent)  { d.w.decoration.pointer = ev.Location }
func (d decorationSink) PointerMotion(ev PointerEvent) { d.w.decoration.pointer = ev.Location }
func (d decorationSink) PointerButton(ev ButtonEvent) {
	if d.w.decoration.pressed == nil {
		d.w.decoration.pressed = make(map[uint32]bool)
	}
	if ev.Pressed {
		d.w.decoration.pressed[ev.Button] = true
	} else {
		delete(d.w.decoration.pressed, ev.Button)
	}
}
func (decorationSink) PointerAxis(AxisEvent) {}
func (decorationSink) PointerFrame()         {}
func (d decorationSink) PointerLeave() {
	d.w.decoration.pressed = nil
}
func (decorationSink) GestureBegin(GestureEvent)   {}
func (decorationSink) GestureUpdate(GestureEvent)  {}
func (decorationSink) GestureEnd(GestureEvent)     {}
func (decorationSink) KeyboardEnter()              {}
func (decorationSink) KeyboardKey(KeyEvent)        {}
func (decorationSink) KeyboardModifiers(Modifiers) {}
func (decorationSink) KeyboardLeave()              {}
func (decorationSink) TouchDown(TouchEvent)        {}
func (decorationSink) TouchUp(TouchEvent)          {}
func (decorationSink) TouchMotion(TouchEvent)      {}
func (decorationSink) TouchFrame()                 {}
func (decorationSink) TouchCancel()                {}

// DecorationPointer returns the last pointer location seen on the synthetic
// decoration.
func (w *Window) DecorationPointer() geometry.Point { return w.decoration.pointer }

// DecorationPressed reports whether the button is held on the synthetic
// decoration.
func (w *Window) DecorationPressed(button uint32) bool { return w.decoration.pressed[button] }

// overlaySink buffers pointer and keyboard input for the overlay renderer.
type overlaySink struct{ ui *overlay.UI }

func (o overlaySink) pushPointer(ev PointerEvent) {
	o.ui.Push(overlay.Event{
		Kind: overlay.EventPointerMotion,
		X:    float64(ev.Location.X),
		Y:    float64(ev.Location.Y),
	})
}

func (o overlaySink) PointerEnter(ev PointerEvent)  { o.pushPointer(ev) }
func (o overlaySink) PointerMotion(ev PointerEvent) { o.pushPointer(ev) }
func (o overlaySink) PointerButton(ev ButtonEvent) {
	o.ui.Push(overlay.Event{Kind: overlay.EventPointerButton, Button: ev.Button, Pressed: ev.Pressed})
}
func (o overlaySink) PointerAxis(ev AxisEvent) {
	o.ui.Push(overlay.Event{Kind: overlay.EventAxis, Axis: ev.Vertical})
}
func (overlaySink) PointerFrame()             {}
func (overlaySink) PointerLeave()             {}
func (overlaySink) GestureBegin(GestureEvent)  {}
func (overlaySink) GestureUpdate(GestureEvent) {}
func (overlaySink) GestureEnd(GestureEvent)    {}
func (overlaySink) KeyboardEnter()             {}
func (o overlaySink) KeyboardKey(ev KeyEvent) {
	o.ui.Push(overlay.Event{Kind: overlay.EventKey, Key: ev.Key, Pressed: ev.Pressed})
}
func (o overlaySink) KeyboardModifiers(m Modifiers) {
	o.ui.Push(overlay.Event{Kind: overlay.EventModifiers, Modifiers: m.Depressed})
}
func (overlaySink) KeyboardLeave()        {}
func (overlaySink) TouchDown(TouchEvent)   {}
func (overlaySink) TouchUp(TouchEvent)     {}
func (overlaySink) TouchMotion(TouchEvent) {}
func (overlaySink) TouchFrame()            {}
func (overlaySink) TouchCancel()           {}

// KeyboardFocus returns the current keyboard focus target, nil when unset.
func (e *Engine) KeyboardFocus() Target { return e.keyboardFocus }

// PointerFocus returns the current pointer focus target, nil when unset.
func (e *Engine) PointerFocus() Target { return e.pointerFocus }

// SetKeyboardFocus moves keyboard focus, sending leave/enter to the
// affected targets. Focusing a dead target clears focus instead.
func (e *Engine) SetKeyboardFocus(t Target) {
	if t != nil && !t.Alive() {
		t = nil
	}
	if e.keyboardFocus == t {
		return
	}
	if old := e.keyboardFocus; old != nil && old.Alive() {
		old.sink().KeyboardLeave()
	}
	e.keyboardFocus = t
	if t != nil {
		t.sink().KeyboardEnter()
	}
}

// SetPointerFocus moves pointer focus, sending leave/enter to the affected
// targets. The lock screen cannot be bypassed: while it holds keyboard
// focus, pointer focus may only move to it or to nothing.
func (e *Engine) SetPointerFocus(t Target, ev PointerEvent) {
	if t != nil && !t.Alive() {
		t = nil
	}
	if _, locked := e.keyboardFocus.(LockScreenTarget); locked && t != nil {
		if _, ok := t.(LockScreenTarget); !ok {
			return
		}
	}
	if e.pointerFocus == t {
		return
	}
	if old := e.pointerFocus; old != nil && old.Alive() {
		old.sink().PointerLeave()
	}
	e.pointerFocus = t
	if t != nil {
		t.sink().PointerEnter(ev)
	}
}

// validateFocus drops focus holders whose target died. Dead targets never
// see another dispatch.
func (e *Engine) validateFocus() {
	if e.keyboardFocus != nil && !e.keyboardFocus.Alive() {
		e.keyboardFocus = nil
	}
	if e.pointerFocus != nil && !e.pointerFocus.Alive() {
		e.pointerFocus = nil
	}
}

// DispatchKey delivers a key event to the keyboard focus.
func (e *Engine) DispatchKey(ev KeyEvent) {
	e.validateFocus()
	if e.keyboardFocus == nil {
		return
	}
	e.keyboardFocus.sink().KeyboardKey(ev)
}

// DispatchModifiers delivers modifier state to the keyboard focus.
func (e *Engine) DispatchModifiers(m Modifiers) {
	e.validateFocus()
	if e.keyboardFocus == nil {
		return
	}
	e.keyboardFocus.sink().KeyboardModifiers(m)
}

// DispatchPointerMotion delivers pointer motion to the pointer focus.
func (e *Engine) DispatchPointerMotion(ev PointerEvent) {
	e.validateFocus()
	if e.pointerFocus == nil {
		return
	}
	s := e.pointerFocus.sink()
	s.PointerMotion(ev)
	s.PointerFrame()
}

// DispatchPointerButton delivers a button change to the pointer focus.
func (e *Engine) DispatchPointerButton(ev ButtonEvent) {
	e.validateFocus()
	if e.pointerFocus == nil {
		return
	}
	s := e.pointerFocus.sink()
	s.PointerButton(ev)
	s.PointerFrame()
}

// DispatchAxis delivers scroll deltas to the pointer focus.
func (e *Engine) DispatchAxis(ev AxisEvent) {
	e.validateFocus()
	if e.pointerFocus == nil {
		return
	}
	s := e.pointerFocus.sink()
	s.PointerAxis(ev)
	s.PointerFrame()
}

// DispatchTouchDown delivers a touch point to the pointer focus.
func (e *Engine) DispatchTouchDown(ev TouchEvent) {
	e.validateFocus()
	if e.pointerFocus == nil {
		return
	}
	s := e.pointerFocus.sink()
	s.TouchDown(ev)
	s.TouchFrame()
}

// DispatchTouchUp delivers a touch release to the pointer focus.
func (e *Engine) DispatchTouchUp(ev TouchEvent) {
	e.validateFocus()
	if e.pointerFocus == nil {
		return
	}
	s := e.pointerFocus.sink()
	s.TouchUp(ev)
	s.TouchFrame()
}

// DispatchTouchMotion delivers a touch point move to the pointer focus.
func (e *Engine) DispatchTouchMotion(ev TouchEvent) {
	e.validateFocus()
	if e.pointerFocus == nil {
		return
	}
	s := e.pointerFocus.sink()
	s.TouchMotion(ev)
	s.TouchFrame()
}

// DispatchTouchFrame flushes a touch event group to the pointer focus.
func (e *Engine) DispatchTouchFrame() {
	e.validateFocus()
	if e.pointerFocus == nil {
		return
	}
	e.pointerFocus.sink().TouchFrame()
}

// DispatchTouchCancel aborts the in-progress touch sequence at the pointer
// focus.
func (e *Engine) DispatchTouchCancel() {
	e.validateFocus()
	if e.pointerFocus == nil {
		return
	}
	e.pointerFocus.sink().TouchCancel()
}

// FocusWindow raises the window in its space and gives it keyboard focus.
func (e *Engine) FocusWindow(w *Window) {
	if w == nil || !w.Alive() {
		return
	}
	if sp := e.SpaceOfWindow(w); sp != nil {
		if loc, ok := sp.Location(w.id); ok {
			sp.mapWindow(w.id, loc, true)
		}
	}
	e.SetKeyboardFocus(WindowTarget{Window: w})
}

// FocusTopmost hands keyboard focus to the topmost live window of the
// space, clearing focus when the space is empty.
func (e *Engine) FocusTopmost(sp *Space) {
	if sp == nil {
		e.SetKeyboardFocus(nil)
		return
	}
	wins := sp.Windows()
	for i := len(wins) - 1; i >= 0; i-- {
		if w, ok := e.windows[wins[i]]; ok && w.Alive() {
			e.SetKeyboardFocus(WindowTarget{Window: w})
			return
		}
	}
	e.SetKeyboardFocus(nil)
}
