package xwm

import (
	"fmt"
	"io"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/Dirli-V/scape/internal/comp"
	"github.com/Dirli-V/scape/internal/geometry"
)

// WindowAttributes is the bridge's view of an X window at map-request time.
type WindowAttributes struct {
	Client           comp.ClientID
	Title            string
	Class            string
	Undecorated      bool
	OverrideRedirect bool
	Geometry         geometry.Rect
}

// Conn is the X server surface the window manager needs. The live
// implementation speaks through xgb; tests substitute a fake.
type Conn interface {
	ConfigureWindow(id uint32, r geometry.Rect) error
	SendConfigureNotify(id uint32, r geometry.Rect) error
	MapWindow(id uint32) error
	CloseWindow(id uint32) error
	FocusWindow(id uint32) error
	SetWMState(id uint32, maximized, fullscreen bool) error

	GrabPointer() error
	UngrabPointer()

	OwnSelection(kind comp.SelectionKind, mimes []string) error
	DisownSelection(kind comp.SelectionKind) error
	ConvertSelection(kind comp.SelectionKind, mimeType string, dst io.WriteCloser) error
}

// X11Conn is the live X server connection. Events arrive on xgbutil's event
// goroutine and are posted onto the compositor loop before any state is
// touched.
type X11Conn struct {
	xu   *xgbutil.XUtil
	loop comp.LoopHandle

	// selWindow is a hidden helper window used as selection owner and
	// conversion target.
	selWindow xproto.Window

	// pending holds conversion destinations keyed by selection atom until
	// the SelectionNotify arrives.
	pending map[xproto.Atom]io.WriteCloser
}

// Connect dials the X server and claims substructure redirection on the
// root window, which is what makes this connection the window manager.
func Connect(loop comp.LoopHandle) (*X11Conn, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}

	err = xproto.ChangeWindowAttributesChecked(
		xu.Conn(), xu.RootWin(), xproto.CwEventMask,
		[]uint32{xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify},
	).Check()
	if err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("claim substructure redirect (is another WM running?): %w", err)
	}

	sel, err := xwindow.Generate(xu)
	if err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("allocate selection window: %w", err)
	}
	if err := sel.CreateChecked(xu.RootWin(), -1, -1, 1, 1, 0); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("create selection window: %w", err)
	}

	return &X11Conn{
		xu:        xu,
		loop:      loop,
		selWindow: sel.Id,
		pending:   make(map[xproto.Atom]io.WriteCloser),
	}, nil
}

// ScreenSize returns the root window dimensions in pixels.
func (c *X11Conn) ScreenSize() geometry.Size {
	screen := c.xu.Screen()
	return geometry.Size{
		Width:  int(screen.WidthInPixels),
		Height: int(screen.HeightInPixels),
	}
}

// Run attaches the window manager's handlers and enters the X event loop.
// It blocks; run it on its own goroutine. Every handler crosses back onto
// the compositor loop via Post.
func (c *X11Conn) Run(wm *WM) {
	xevent.MapRequestFun(func(xu *xgbutil.XUtil, ev xevent.MapRequestEvent) {
		attrs := c.collectAttributes(ev.Window)
		id := uint32(ev.Window)
		c.loop.Post(func() { wm.HandleMapRequest(id, attrs) })
	}).Connect(c.xu, c.xu.RootWin())

	xevent.ConfigureRequestFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureRequestEvent) {
		id := uint32(ev.Window)
		req := geometry.Rect{
			X: int(ev.X), Y: int(ev.Y),
			Width: int(ev.Width), Height: int(ev.Height),
		}
		c.loop.Post(func() { wm.HandleConfigureRequest(id, req) })
	}).Connect(c.xu, c.xu.RootWin())

	xevent.UnmapNotifyFun(func(xu *xgbutil.XUtil, ev xevent.UnmapNotifyEvent) {
		id := uint32(ev.Window)
		c.loop.Post(func() { wm.HandleUnmapNotify(id) })
	}).Connect(c.xu, c.xu.RootWin())

	xevent.DestroyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		id := uint32(ev.Window)
		c.loop.Post(func() { wm.HandleDestroyNotify(id) })
	}).Connect(c.xu, c.xu.RootWin())

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, ev.Atom)
		if err != nil || (name != "_NET_WM_NAME" && name != "WM_NAME") {
			return
		}
		id := uint32(ev.Window)
		title, _ := ewmh.WmNameGet(xu, ev.Window)
		c.loop.Post(func() { wm.HandleTitleChange(id, title) })
	}).Connect(c.xu, c.xu.RootWin())

	xevent.MapNotifyFun(func(xu *xgbutil.XUtil, ev xevent.MapNotifyEvent) {
		if !ev.OverrideRedirect {
			return
		}
		attrs := c.collectAttributes(ev.Window)
		id := uint32(ev.Window)
		c.loop.Post(func() { wm.HandleMapNotify(id, attrs) })
	}).Connect(c.xu, c.xu.RootWin())

	xevent.ConfigureNotifyFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		id := uint32(ev.Window)
		rect := geometry.Rect{
			X: int(ev.X), Y: int(ev.Y),
			Width: int(ev.Width), Height: int(ev.Height),
		}
		c.loop.Post(func() { wm.HandleConfigureNotify(id, rect) })
	}).Connect(c.xu, c.xu.RootWin())

	xevent.ClientMessageFun(func(xu *xgbutil.XUtil, ev xevent.ClientMessageEvent) {
		c.handleClientMessage(wm, ev)
	}).Connect(c.xu, c.xu.RootWin())

	// Motion and release only arrive while an interactive grab holds the
	// pointer; the handlers no-op otherwise.
	xevent.MotionNotifyFun(func(xu *xgbutil.XUtil, ev xevent.MotionNotifyEvent) {
		p := geometry.Point{X: int(ev.RootX), Y: int(ev.RootY)}
		c.loop.Post(func() { wm.HandleGrabMotion(p) })
	}).Connect(c.xu, c.xu.RootWin())

	xevent.ButtonReleaseFun(func(xu *xgbutil.XUtil, ev xevent.ButtonReleaseEvent) {
		btn := uint32(ev.Detail)
		c.loop.Post(func() {
			wm.HandleGrabButton(comp.ButtonEvent{Button: btn, Pressed: false})
		})
	}).Connect(c.xu, c.xu.RootWin())

	xevent.SelectionNotifyFun(func(xu *xgbutil.XUtil, ev xevent.SelectionNotifyEvent) {
		c.finishConversion(ev)
	}).Connect(c.xu, c.selWindow)

	xevent.Main(c.xu)
}

func (c *X11Conn) collectAttributes(win xproto.Window) WindowAttributes {
	attrs := WindowAttributes{}

	if wa, err := xproto.GetWindowAttributes(c.xu.Conn(), win).Reply(); err == nil {
		attrs.OverrideRedirect = wa.OverrideRedirect
	}
	if geom, err := xproto.GetGeometry(c.xu.Conn(), xproto.Drawable(win)).Reply(); err == nil {
		attrs.Geometry = geometry.Rect{
			X: int(geom.X), Y: int(geom.Y),
			Width: int(geom.Width), Height: int(geom.Height),
		}
	}
	if title, err := ewmh.WmNameGet(c.xu, win); err == nil && title != "" {
		attrs.Title = title
	} else if title, err := icccm.WmNameGet(c.xu, win); err == nil {
		attrs.Title = title
	}
	if class, err := icccm.WmClassGet(c.xu, win); err == nil {
		attrs.Class = class.Class
	}
	// One X client per bridge; the connection is the client.
	attrs.Client = 1
	return attrs
}

func (c *X11Conn) handleClientMessage(wm *WM, ev xevent.ClientMessageEvent) {
	name, err := xprop.AtomName(c.xu, ev.Type)
	if err != nil {
		return
	}
	switch name {
	case "_NET_WM_STATE":
		c.handleStateMessage(wm, ev)
	case "_NET_WM_MOVERESIZE":
		id := uint32(ev.Window)
		pointer := geometry.Point{
			X: int(int32(ev.Data.Data32[0])),
			Y: int(int32(ev.Data.Data32[1])),
		}
		direction := ev.Data.Data32[2]
		c.loop.Post(func() { wm.HandleMoveResize(id, pointer, direction) })
	}
}

func (c *X11Conn) handleStateMessage(wm *WM, ev xevent.ClientMessageEvent) {
	action := ev.Data.Data32[0]
	first, _ := xprop.AtomName(c.xu, xproto.Atom(ev.Data.Data32[1]))
	second, _ := xprop.AtomName(c.xu, xproto.Atom(ev.Data.Data32[2]))
	id := uint32(ev.Window)

	const (
		remove = 0
		add    = 1
		toggle = 2
	)
	has := func(state string) bool { return first == state || second == state }

	c.loop.Post(func() {
		x := wm.Lookup(id)
		if x == nil {
			return
		}
		if has("_NET_WM_STATE_MAXIMIZED_VERT") || has("_NET_WM_STATE_MAXIMIZED_HORZ") {
			switch {
			case action == add, action == toggle && !x.window.Maximized:
				wm.Maximize(x)
			default:
				wm.Unmaximize(x)
			}
		}
		if has("_NET_WM_STATE_FULLSCREEN") {
			switch {
			case action == add, action == toggle && !x.window.Fullscreen:
				wm.Fullscreen(x)
			default:
				wm.Unfullscreen(x)
			}
		}
	})
}

// ConfigureWindow applies a geometry on the X side.
func (c *X11Conn) ConfigureWindow(id uint32, r geometry.Rect) error {
	return xproto.ConfigureWindowChecked(
		c.xu.Conn(), xproto.Window(id),
		xproto.ConfigWindowX|xproto.ConfigWindowY|
			xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{uint32(r.X), uint32(r.Y), uint32(r.Width), uint32(r.Height)},
	).Check()
}

// SendConfigureNotify tells the client its final geometry. Clients rely on
// this to learn about moves the server-side configure does not echo.
func (c *X11Conn) SendConfigureNotify(id uint32, r geometry.Rect) error {
	ev := xproto.ConfigureNotifyEvent{
		Event:            xproto.Window(id),
		Window:           xproto.Window(id),
		AboveSibling:     xproto.WindowNone,
		X:                int16(r.X),
		Y:                int16(r.Y),
		Width:            uint16(r.Width),
		Height:           uint16(r.Height),
		OverrideRedirect: false,
	}
	return xproto.SendEventChecked(
		c.xu.Conn(), false, xproto.Window(id),
		xproto.EventMaskStructureNotify, string(ev.Bytes()),
	).Check()
}

// MapWindow completes a map request.
func (c *X11Conn) MapWindow(id uint32) error {
	return xproto.MapWindowChecked(c.xu.Conn(), xproto.Window(id)).Check()
}

// CloseWindow asks the client to delete the window.
func (c *X11Conn) CloseWindow(id uint32) error {
	return ewmh.CloseWindow(c.xu, xproto.Window(id))
}

// FocusWindow moves X input focus.
func (c *X11Conn) FocusWindow(id uint32) error {
	err := xproto.SetInputFocusChecked(
		c.xu.Conn(), xproto.InputFocusPointerRoot,
		xproto.Window(id), xproto.TimeCurrentTime,
	).Check()
	if err != nil {
		return err
	}
	return ewmh.ActiveWindowSet(c.xu, xproto.Window(id))
}

// SetWMState publishes the maximize/fullscreen state.
func (c *X11Conn) SetWMState(id uint32, maximized, fullscreen bool) error {
	var states []string
	if maximized {
		states = append(states, "_NET_WM_STATE_MAXIMIZED_VERT", "_NET_WM_STATE_MAXIMIZED_HORZ")
	}
	if fullscreen {
		states = append(states, "_NET_WM_STATE_FULLSCREEN")
	}
	return ewmh.WmStateSet(c.xu, xproto.Window(id), states)
}

// GrabPointer takes an active pointer grab on the root window so motion and
// button releases reach the bridge during an interactive move or resize.
func (c *X11Conn) GrabPointer() error {
	reply, err := xproto.GrabPointer(
		c.xu.Conn(), false, c.xu.RootWin(),
		xproto.EventMaskPointerMotion|xproto.EventMaskButtonRelease,
		xproto.GrabModeAsync, xproto.GrabModeAsync,
		xproto.WindowNone, xproto.CursorNone, xproto.TimeCurrentTime,
	).Reply()
	if err != nil {
		return fmt.Errorf("grab pointer: %w", err)
	}
	if reply.Status != xproto.GrabStatusSuccess {
		return fmt.Errorf("grab pointer: status %d", reply.Status)
	}
	return nil
}

// UngrabPointer releases the interactive grab's pointer hold.
func (c *X11Conn) UngrabPointer() {
	xproto.UngrabPointer(c.xu.Conn(), xproto.TimeCurrentTime)
}

func (c *X11Conn) selectionAtom(kind comp.SelectionKind) (xproto.Atom, error) {
	if kind == comp.SelectionPrimary {
		return xproto.AtomPrimary, nil
	}
	return xprop.Atm(c.xu, "CLIPBOARD")
}

// OwnSelection takes X-side ownership of a selection on behalf of a native
// owner. The mime list is only advertised on conversion, X has no up-front
// offer.
func (c *X11Conn) OwnSelection(kind comp.SelectionKind, mimes []string) error {
	atom, err := c.selectionAtom(kind)
	if err != nil {
		return err
	}
	return xproto.SetSelectionOwnerChecked(
		c.xu.Conn(), c.selWindow, atom, xproto.TimeCurrentTime,
	).Check()
}

// DisownSelection releases X-side ownership.
func (c *X11Conn) DisownSelection(kind comp.SelectionKind) error {
	atom, err := c.selectionAtom(kind)
	if err != nil {
		return err
	}
	return xproto.SetSelectionOwnerChecked(
		c.xu.Conn(), xproto.WindowNone, atom, xproto.TimeCurrentTime,
	).Check()
}

// ConvertSelection asks the legacy owner for the selection contents in one
// mime type. The transfer completes asynchronously when the SelectionNotify
// lands; dst is closed either way.
func (c *X11Conn) ConvertSelection(kind comp.SelectionKind, mimeType string, dst io.WriteCloser) error {
	atom, err := c.selectionAtom(kind)
	if err != nil {
		dst.Close()
		return err
	}
	target, err := c.conversionTarget(mimeType)
	if err != nil {
		dst.Close()
		return err
	}
	prop, err := xprop.Atm(c.xu, "SCAPE_SELECTION")
	if err != nil {
		dst.Close()
		return err
	}

	if old, ok := c.pending[atom]; ok {
		old.Close()
	}
	c.pending[atom] = dst

	return xproto.ConvertSelectionChecked(
		c.xu.Conn(), c.selWindow, atom, target, prop, xproto.TimeCurrentTime,
	).Check()
}

func (c *X11Conn) conversionTarget(mimeType string) (xproto.Atom, error) {
	switch mimeType {
	case "text/plain", "text/plain;charset=utf-8":
		return xprop.Atm(c.xu, "UTF8_STRING")
	default:
		return xprop.Atm(c.xu, mimeType)
	}
}

func (c *X11Conn) finishConversion(ev xevent.SelectionNotifyEvent) {
	dst, ok := c.pending[ev.Selection]
	if !ok {
		return
	}
	delete(c.pending, ev.Selection)
	defer dst.Close()

	if ev.Property == xproto.AtomNone {
		return
	}
	reply, err := xproto.GetProperty(
		c.xu.Conn(), true, ev.Requestor, ev.Property,
		xproto.GetPropertyTypeAny, 0, (1<<22)-1,
	).Reply()
	if err != nil {
		return
	}
	dst.Write(reply.Value)
}

// Close tears the X connection down.
func (c *X11Conn) Close() {
	for _, dst := range c.pending {
		dst.Close()
	}
	c.xu.Conn().Close()
}
