// Package xwm bridges windows of the legacy X11 protocol into the
// compositor core. It manages X windows on behalf of the core, mirrors
// selections between the two protocol sides and runs interactive move and
// resize grabs for clients that cannot do their own.
package xwm

import (
	"fmt"
	"log/slog"

	"github.com/Dirli-V/scape/internal/comp"
	"github.com/Dirli-V/scape/internal/geometry"
)

// implausibleCoord is the threshold above which a map request's position is
// treated as unset. Some toolkits park unmapped windows at huge coordinates
// instead of leaving the position out.
const implausibleCoord = 10_000

// XWindow is one managed legacy window. It implements comp.LegacyWindow so
// the core can treat it like any other window.
type XWindow struct {
	id     uint32
	wm     *WM
	client comp.ClientID

	title     string
	class     string
	decorated bool

	// geo is the last geometry the bridge configured, in space-logical
	// coordinates.
	geo geometry.Rect

	overrideRedirect bool
	mapped           bool
	alive            bool

	// preFullscreenSize is the client size to return to after fullscreen.
	// The saved-geometry snapshot stays with the maximize round-trip.
	preFullscreenSize geometry.Size

	window *comp.Window
}

// LegacyID returns the X window id.
func (x *XWindow) LegacyID() uint32 { return x.id }

// Alive reports whether the X window still exists.
func (x *XWindow) Alive() bool { return x.alive }

// Client returns the owning client connection.
func (x *XWindow) Client() comp.ClientID { return x.client }

// Decorated reports the client's decoration preference.
func (x *XWindow) Decorated() bool { return x.decorated }

// Geometry returns the last configured geometry.
func (x *XWindow) Geometry() geometry.Rect { return x.geo }

// Window returns the core window wrapping this X window, nil before the
// first map.
func (x *XWindow) Window() *comp.Window { return x.window }

// SendConfigure pushes a geometry to the client and records it. Legacy
// clients get the real configure immediately, there is no ack round-trip.
func (x *XWindow) SendConfigure(r geometry.Rect) error {
	if !x.alive {
		return comp.ErrResourceGone
	}
	if err := x.wm.conn.ConfigureWindow(x.id, r); err != nil {
		return fmt.Errorf("configure window %#x: %w", x.id, err)
	}
	x.geo = r
	return x.wm.conn.SendConfigureNotify(x.id, r)
}

// Close asks the client to delete the window.
func (x *XWindow) Close() error {
	if !x.alive {
		return comp.ErrResourceGone
	}
	return x.wm.conn.CloseWindow(x.id)
}

// Legacy windows receive their input from the X server directly; the sink
// only has to mirror focus crossings.
func (x *XWindow) PointerEnter(comp.PointerEvent)      {}
func (x *XWindow) PointerMotion(comp.PointerEvent)     {}
func (x *XWindow) PointerButton(comp.ButtonEvent)      {}
func (x *XWindow) PointerAxis(comp.AxisEvent)          {}
func (x *XWindow) PointerFrame()                       {}
func (x *XWindow) PointerLeave()                       {}
func (x *XWindow) GestureBegin(comp.GestureEvent)      {}
func (x *XWindow) GestureUpdate(comp.GestureEvent)     {}
func (x *XWindow) GestureEnd(comp.GestureEvent)        {}
func (x *XWindow) KeyboardKey(comp.KeyEvent)           {}
func (x *XWindow) KeyboardModifiers(comp.Modifiers)    {}
func (x *XWindow) TouchDown(comp.TouchEvent)           {}
func (x *XWindow) TouchUp(comp.TouchEvent)             {}
func (x *XWindow) TouchMotion(comp.TouchEvent)         {}
func (x *XWindow) TouchFrame()                         {}
func (x *XWindow) TouchCancel()                        {}

func (x *XWindow) KeyboardEnter() {
	if !x.alive {
		return
	}
	if err := x.wm.conn.FocusWindow(x.id); err != nil {
		x.wm.logger.Warn("input focus transfer failed", "window", x.id, "error", err)
	}
}

func (x *XWindow) KeyboardLeave() {}

// WM manages legacy windows on behalf of the engine. It lives on the loop
// goroutine; the connection layer posts X events onto the loop before
// calling in.
type WM struct {
	engine *comp.Engine
	conn   Conn
	logger *slog.Logger

	windows map[uint32]*XWindow

	// space is where new legacy windows are mapped.
	space string

	grab *grabState
	sel  *selectionBridge
}

// New creates a window manager bound to the engine. New windows map into
// the named space, or the engine's default space when empty.
func New(engine *comp.Engine, conn Conn, space string) *WM {
	wm := &WM{
		engine:  engine,
		conn:    conn,
		logger:  engine.Logger().With("component", "xwm"),
		windows: make(map[uint32]*XWindow),
		space:   space,
	}
	wm.InitSelections()
	return wm
}

// Lookup resolves an X window id to its managed window.
func (wm *WM) Lookup(id uint32) *XWindow { return wm.windows[id] }

func (wm *WM) targetSpace() string {
	if wm.space != "" {
		return wm.space
	}
	return wm.engine.DefaultSpaceName()
}

func (wm *WM) adoptWindow(id uint32, attrs WindowAttributes) *XWindow {
	x := wm.windows[id]
	if x == nil {
		x = &XWindow{
			id:        id,
			wm:        wm,
			client:    attrs.Client,
			title:     attrs.Title,
			class:     attrs.Class,
			decorated: !attrs.Undecorated,
			alive:     true,
		}
		wm.windows[id] = x
		x.window = comp.NewLegacyWindow(x)
		x.window.SetName(attrs.Title)
		x.window.SetAppID(attrs.Class)
	}
	x.alive = true
	return x
}

// HandleMapRequest manages a window asking to be shown. Managed windows are
// always positioned by the compositor; the client's reported location is
// only consulted for override-redirect windows, which place themselves.
func (wm *WM) HandleMapRequest(id uint32, attrs WindowAttributes) {
	if attrs.OverrideRedirect {
		wm.trackOverrideRedirect(id, attrs)
		return
	}

	x := wm.adoptWindow(id, attrs)
	x.overrideRedirect = false

	size := geometry.Size{Width: attrs.Geometry.Width, Height: attrs.Geometry.Height}
	x.window.SetSize(size)

	space := wm.targetSpace()
	if err := wm.engine.MapWindow(space, x.window, geometry.Point{}, true); err != nil {
		wm.logger.Error("mapping legacy window failed", "window", id, "error", err)
		return
	}
	x.mapped = true

	sp, _ := wm.engine.Space(space)
	rect := wm.engine.PlaceWindow(sp, x.window, true, "", false)

	if err := x.SendConfigure(rect); err != nil {
		wm.logger.Warn("initial configure failed", "window", id, "error", err)
	}
	if err := wm.conn.MapWindow(id); err != nil {
		wm.logger.Warn("map confirmation failed", "window", id, "error", err)
	}
	wm.engine.FocusWindow(x.window)
}

// trackOverrideRedirect records a self-managing window at its own reported
// location: no placement, no focus, no synthetic configures. Positions
// parked beyond the plausibility threshold collapse to the origin.
func (wm *WM) trackOverrideRedirect(id uint32, attrs WindowAttributes) {
	x := wm.adoptWindow(id, attrs)
	x.overrideRedirect = true

	loc := attrs.Geometry.Loc()
	if loc.X >= implausibleCoord || loc.Y >= implausibleCoord {
		loc = geometry.Point{}
	}
	size := attrs.Geometry.Size()
	x.window.SetSize(size)
	x.geo = geometry.RectFrom(loc, size)

	if err := wm.engine.MapWindow(wm.targetSpace(), x.window, loc, true); err != nil {
		wm.logger.Error("tracking override-redirect window failed", "window", id, "error", err)
		return
	}
	x.mapped = true
	if err := wm.conn.MapWindow(id); err != nil {
		wm.logger.Debug("map confirmation failed", "window", id, "error", err)
	}
}

// HandleMapNotify picks up windows that mapped themselves without a map
// request, which is how override-redirect windows appear.
func (wm *WM) HandleMapNotify(id uint32, attrs WindowAttributes) {
	if !attrs.OverrideRedirect || wm.windows[id] != nil {
		return
	}
	wm.trackOverrideRedirect(id, attrs)
}

// HandleConfigureNotify follows the moves of self-managing windows. Managed
// windows only move through the bridge, so their notifies carry nothing new.
func (wm *WM) HandleConfigureNotify(id uint32, rect geometry.Rect) {
	x := wm.windows[id]
	if x == nil || !x.overrideRedirect || !x.mapped {
		return
	}
	x.geo = rect
	x.window.SetSize(rect.Size())
	if sp := wm.engine.SpaceOfWindow(x.window); sp != nil {
		sp.SetLocation(x.window.ID(), rect.Loc())
	}
}

// HandleConfigureRequest honors a client's size wish but keeps the
// compositor's position: a mapped window cannot move itself. Unmapped
// windows get the full request so dialogs show up where they asked to.
func (wm *WM) HandleConfigureRequest(id uint32, req geometry.Rect) {
	x := wm.windows[id]
	if x == nil || !x.alive {
		// Unmanaged windows configure themselves freely.
		wm.passThroughConfigure(id, req)
		return
	}

	if !x.mapped {
		if err := x.SendConfigure(req); err != nil {
			wm.logger.Warn("configure for unmapped window failed", "window", id, "error", err)
		}
		return
	}

	rect := geometry.Rect{
		X:      x.geo.X,
		Y:      x.geo.Y,
		Width:  req.Width,
		Height: req.Height,
	}
	x.window.SetSize(rect.Size())
	if err := x.SendConfigure(rect); err != nil {
		wm.logger.Warn("configure reply failed", "window", id, "error", err)
	}
}

func (wm *WM) passThroughConfigure(id uint32, req geometry.Rect) {
	if err := wm.conn.ConfigureWindow(id, req); err != nil {
		wm.logger.Debug("pass-through configure failed", "window", id, "error", err)
	}
}

// HandleUnmapNotify detaches a window from its space and hands focus to the
// remaining topmost window.
func (wm *WM) HandleUnmapNotify(id uint32) {
	x := wm.windows[id]
	if x == nil || !x.mapped {
		return
	}
	sp := wm.engine.SpaceOfWindow(x.window)
	wm.engine.UnmapWindow(x.window)
	x.mapped = false
	wm.engine.FocusTopmost(sp)
}

// HandleDestroyNotify forgets a window for good.
func (wm *WM) HandleDestroyNotify(id uint32) {
	x := wm.windows[id]
	if x == nil {
		return
	}
	wm.HandleUnmapNotify(id)
	x.alive = false
	delete(wm.windows, id)
	wm.endGrabFor(x)
}

// HandleTitleChange mirrors a title property update into the core window.
func (wm *WM) HandleTitleChange(id uint32, title string) {
	x := wm.windows[id]
	if x == nil {
		return
	}
	x.title = title
	if x.window != nil {
		x.window.SetName(title)
	}
}

// Maximize grows the window to its output's usable area. The previous
// geometry is saved for the way back.
func (wm *WM) Maximize(x *XWindow) {
	if x == nil || !x.alive || x.window.Maximized {
		return
	}
	sp := wm.engine.SpaceOfWindow(x.window)
	if sp == nil {
		return
	}
	usable, ok := wm.usableFor(sp, x)
	if !ok {
		return
	}

	x.window.SaveGeometry(x.geo)
	x.window.Maximized = true
	x.window.SetSize(usable.Size())
	sp.SetLocation(x.window.ID(), usable.Loc())
	if err := x.SendConfigure(usable); err != nil {
		wm.logger.Warn("maximize configure failed", "window", x.id, "error", err)
	}
	wm.setNetState(x)
}

// Unmaximize restores the geometry saved at maximize time.
func (wm *WM) Unmaximize(x *XWindow) {
	if x == nil || !x.alive || !x.window.Maximized {
		return
	}
	x.window.Maximized = false
	saved, ok := x.window.RestoreGeometry()
	if !ok {
		wm.setNetState(x)
		return
	}
	if sp := wm.engine.SpaceOfWindow(x.window); sp != nil {
		sp.SetLocation(x.window.ID(), saved.Loc())
	}
	x.window.SetSize(saved.Size())
	if err := x.SendConfigure(saved); err != nil {
		wm.logger.Warn("unmaximize configure failed", "window", x.id, "error", err)
	}
	wm.setNetState(x)
}

// Fullscreen covers the whole output, exclusive zones included, with
// decorations off.
func (wm *WM) Fullscreen(x *XWindow) {
	if x == nil || !x.alive || x.window.Fullscreen {
		return
	}
	sp := wm.engine.SpaceOfWindow(x.window)
	if sp == nil {
		return
	}
	full, ok := wm.outputGeometryFor(sp, x)
	if !ok {
		return
	}

	x.preFullscreenSize = x.window.Size()
	x.window.Fullscreen = true
	x.window.SSD = false
	x.window.SetSize(full.Size())
	sp.SetLocation(x.window.ID(), full.Loc())
	if err := x.SendConfigure(full); err != nil {
		wm.logger.Warn("fullscreen configure failed", "window", x.id, "error", err)
	}
	wm.setNetState(x)
}

// Unfullscreen restores the decoration preference and re-places the window
// centered on its output.
func (wm *WM) Unfullscreen(x *XWindow) {
	if x == nil || !x.alive || !x.window.Fullscreen {
		return
	}
	x.window.Fullscreen = false
	x.window.SSD = x.decorated
	if !x.preFullscreenSize.IsEmpty() {
		x.window.SetSize(x.preFullscreenSize)
		x.preFullscreenSize = geometry.Size{}
	}
	sp := wm.engine.SpaceOfWindow(x.window)
	if sp == nil {
		wm.setNetState(x)
		return
	}
	rect := wm.engine.PlaceWindow(sp, x.window, false, "", true)
	if err := x.SendConfigure(rect); err != nil {
		wm.logger.Warn("unfullscreen configure failed", "window", x.id, "error", err)
	}
	wm.setNetState(x)
}

func (wm *WM) setNetState(x *XWindow) {
	if err := wm.conn.SetWMState(x.id, x.window.Maximized, x.window.Fullscreen); err != nil {
		wm.logger.Debug("wm state update failed", "window", x.id, "error", err)
	}
}

// usableFor picks the usable area of the output the window currently
// overlaps, falling back to the space's first output.
func (wm *WM) usableFor(sp *comp.Space, x *XWindow) (geometry.Rect, bool) {
	return wm.pickOutputRect(sp, x, true)
}

func (wm *WM) outputGeometryFor(sp *comp.Space, x *XWindow) (geometry.Rect, bool) {
	return wm.pickOutputRect(sp, x, false)
}

func (wm *WM) pickOutputRect(sp *comp.Space, x *XWindow, usable bool) (geometry.Rect, bool) {
	var first geometry.Rect
	haveFirst := false
	for _, name := range sp.Outputs() {
		out, ok := wm.engine.Output(name)
		if !ok {
			continue
		}
		rect := out.Geometry()
		if usable {
			rect = out.UsableGeometry()
		}
		if !haveFirst {
			first, haveFirst = rect, true
		}
		if out.Geometry().Overlaps(x.geo) {
			return rect, true
		}
	}
	return first, haveFirst
}
