package xwm

import (
	"github.com/Dirli-V/scape/internal/comp"
	"github.com/Dirli-V/scape/internal/geometry"
)

// minWindowDim is the smallest size an interactive resize may produce.
const minWindowDim = 16

// _NET_WM_MOVERESIZE directions. The keyboard variants are not supported.
const (
	moveResizeSizeTopLeft     = 0
	moveResizeSizeTop         = 1
	moveResizeSizeTopRight    = 2
	moveResizeSizeRight       = 3
	moveResizeSizeBottomRight = 4
	moveResizeSizeBottom      = 5
	moveResizeSizeBottomLeft  = 6
	moveResizeSizeLeft        = 7
	moveResizeMove            = 8
	moveResizeCancel          = 11
)

func moveResizeEdges(direction uint32) (geometry.Edges, bool) {
	switch direction {
	case moveResizeSizeTopLeft:
		return geometry.EdgeTop | geometry.EdgeLeft, true
	case moveResizeSizeTop:
		return geometry.EdgeTop, true
	case moveResizeSizeTopRight:
		return geometry.EdgeTop | geometry.EdgeRight, true
	case moveResizeSizeRight:
		return geometry.EdgeRight, true
	case moveResizeSizeBottomRight:
		return geometry.EdgeBottom | geometry.EdgeRight, true
	case moveResizeSizeBottom:
		return geometry.EdgeBottom, true
	case moveResizeSizeBottomLeft:
		return geometry.EdgeBottom | geometry.EdgeLeft, true
	case moveResizeSizeLeft:
		return geometry.EdgeLeft, true
	default:
		return geometry.EdgeNone, false
	}
}

// HandleMoveResize services a client's interactive move or resize request.
func (wm *WM) HandleMoveResize(id uint32, pointer geometry.Point, direction uint32) {
	x := wm.Lookup(id)
	if x == nil {
		return
	}
	switch direction {
	case moveResizeMove:
		wm.BeginMoveGrab(x, pointer)
	case moveResizeCancel:
		wm.EndGrab()
	default:
		if edges, ok := moveResizeEdges(direction); ok {
			wm.BeginResizeGrab(x, pointer, edges)
		}
	}
}

type grabKind int

const (
	grabMove grabKind = iota
	grabResize
)

// grabState is the active interactive move or resize. At most one grab runs
// at a time; a new grab replaces the old one.
type grabState struct {
	kind    grabKind
	target  *XWindow
	start   geometry.Point
	initial geometry.Rect
	edges   geometry.Edges
	resize  comp.ResizeState
}

// BeginMoveGrab starts an interactive move. Grabbing a maximized window
// unmaximizes it first so the restored frame follows the pointer.
func (wm *WM) BeginMoveGrab(x *XWindow, pointer geometry.Point) {
	if x == nil || !x.alive {
		return
	}
	if x.window.Maximized {
		wm.Unmaximize(x)
	}
	if err := wm.conn.GrabPointer(); err != nil {
		wm.logger.Warn("pointer grab failed", "window", x.id, "error", err)
		return
	}
	wm.grab = &grabState{
		kind:    grabMove,
		target:  x,
		start:   pointer,
		initial: x.geo,
	}
	wm.logger.Debug("move grab started", "window", x.id)
}

// BeginResizeGrab starts an interactive resize from the given edges.
func (wm *WM) BeginResizeGrab(x *XWindow, pointer geometry.Point, edges geometry.Edges) {
	if x == nil || !x.alive || edges == geometry.EdgeNone {
		return
	}
	if err := wm.conn.GrabPointer(); err != nil {
		wm.logger.Warn("pointer grab failed", "window", x.id, "error", err)
		return
	}
	wm.grab = &grabState{
		kind:    grabResize,
		target:  x,
		start:   pointer,
		initial: x.geo,
		edges:   edges,
		resize: comp.ResizeState{
			Kind: comp.Resizing,
			Data: comp.ResizeData{
				Edges:           edges,
				InitialLocation: x.geo.Loc(),
				InitialSize:     x.geo.Size(),
			},
		},
	}
	wm.logger.Debug("resize grab started", "window", x.id, "edges", edges)
}

// HandleGrabMotion advances the active grab to the new pointer position.
func (wm *WM) HandleGrabMotion(pointer geometry.Point) {
	g := wm.grab
	if g == nil {
		return
	}
	if !g.target.alive {
		wm.EndGrab()
		return
	}

	delta := pointer.Sub(g.start)
	switch g.kind {
	case grabMove:
		wm.moveTo(g, delta)
	case grabResize:
		wm.resizeTo(g, delta)
	}
}

func (wm *WM) moveTo(g *grabState, delta geometry.Point) {
	x := g.target
	loc := g.initial.Loc().Add(delta)
	if sp := wm.engine.SpaceOfWindow(x.window); sp != nil {
		sp.SetLocation(x.window.ID(), loc)
	}
	rect := geometry.RectFrom(loc, g.initial.Size())
	if err := x.SendConfigure(rect); err != nil {
		wm.logger.Warn("move configure failed", "window", x.id, "error", err)
		wm.EndGrab()
	}
}

func (wm *WM) resizeTo(g *grabState, delta geometry.Point) {
	rect := g.initial

	if g.edges.Has(geometry.EdgeRight) {
		rect.Width += delta.X
	} else if g.edges.Has(geometry.EdgeLeft) {
		rect.X += delta.X
		rect.Width -= delta.X
	}
	if g.edges.Has(geometry.EdgeBottom) {
		rect.Height += delta.Y
	} else if g.edges.Has(geometry.EdgeTop) {
		rect.Y += delta.Y
		rect.Height -= delta.Y
	}

	if rect.Width < minWindowDim {
		if g.edges.Has(geometry.EdgeLeft) {
			rect.X -= minWindowDim - rect.Width
		}
		rect.Width = minWindowDim
	}
	if rect.Height < minWindowDim {
		if g.edges.Has(geometry.EdgeTop) {
			rect.Y -= minWindowDim - rect.Height
		}
		rect.Height = minWindowDim
	}

	g.resize.Kind = comp.Resizing

	x := g.target
	x.window.SetSize(rect.Size())
	if sp := wm.engine.SpaceOfWindow(x.window); sp != nil {
		sp.SetLocation(x.window.ID(), rect.Loc())
	}
	if err := x.SendConfigure(rect); err != nil {
		wm.logger.Warn("resize configure failed", "window", x.id, "error", err)
		wm.EndGrab()
		return
	}
	g.resize.Kind = comp.WaitingForCommit
}

// HandleGrabButton ends the grab when the initiating button is released.
func (wm *WM) HandleGrabButton(ev comp.ButtonEvent) {
	if wm.grab == nil || ev.Pressed {
		return
	}
	wm.EndGrab()
}

// HandleCommit finishes a pending resize once the client committed at the
// new size.
func (wm *WM) HandleCommit(id uint32) {
	g := wm.grab
	if g == nil || g.target.id != id {
		return
	}
	if g.kind == grabResize && g.resize.Kind == comp.WaitingForCommit {
		g.resize.Kind = comp.NotResizing
	}
}

// ResizeState reports the window's interactive resize state.
func (wm *WM) ResizeState(x *XWindow) comp.ResizeState {
	if g := wm.grab; g != nil && g.kind == grabResize && g.target == x {
		return g.resize
	}
	return comp.ResizeState{}
}

// EndGrab drops the active grab, if any, and releases the pointer.
func (wm *WM) EndGrab() {
	if wm.grab == nil {
		return
	}
	wm.logger.Debug("grab ended", "window", wm.grab.target.id)
	wm.grab = nil
	wm.conn.UngrabPointer()
}

func (wm *WM) endGrabFor(x *XWindow) {
	if wm.grab != nil && wm.grab.target == x {
		wm.grab = nil
		wm.conn.UngrabPointer()
	}
}
