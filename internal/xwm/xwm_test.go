package xwm

import (
	"io"
	"log/slog"
	"testing"

	"github.com/Dirli-V/scape/internal/comp"
	"github.com/Dirli-V/scape/internal/geometry"
)

// fakeConn records every X-side request.
type fakeConn struct {
	configures map[uint32][]geometry.Rect
	notifies   map[uint32][]geometry.Rect
	mapped     []uint32
	closed     []uint32
	focused    []uint32
	states     map[uint32][2]bool

	owned    map[comp.SelectionKind][]string
	disowned []comp.SelectionKind
	convData map[string]string

	grabs   int
	ungrabs int
	grabErr error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		configures: make(map[uint32][]geometry.Rect),
		notifies:   make(map[uint32][]geometry.Rect),
		states:     make(map[uint32][2]bool),
		owned:      make(map[comp.SelectionKind][]string),
		convData:   make(map[string]string),
	}
}

func (c *fakeConn) ConfigureWindow(id uint32, r geometry.Rect) error {
	c.configures[id] = append(c.configures[id], r)
	return nil
}

func (c *fakeConn) SendConfigureNotify(id uint32, r geometry.Rect) error {
	c.notifies[id] = append(c.notifies[id], r)
	return nil
}

func (c *fakeConn) MapWindow(id uint32) error {
	c.mapped = append(c.mapped, id)
	return nil
}

func (c *fakeConn) CloseWindow(id uint32) error {
	c.closed = append(c.closed, id)
	return nil
}

func (c *fakeConn) FocusWindow(id uint32) error {
	c.focused = append(c.focused, id)
	return nil
}

func (c *fakeConn) SetWMState(id uint32, maximized, fullscreen bool) error {
	c.states[id] = [2]bool{maximized, fullscreen}
	return nil
}

func (c *fakeConn) OwnSelection(kind comp.SelectionKind, mimes []string) error {
	c.owned[kind] = append([]string(nil), mimes...)
	return nil
}

func (c *fakeConn) DisownSelection(kind comp.SelectionKind) error {
	c.disowned = append(c.disowned, kind)
	delete(c.owned, kind)
	return nil
}

func (c *fakeConn) ConvertSelection(kind comp.SelectionKind, mimeType string, dst io.WriteCloser) error {
	defer dst.Close()
	_, err := io.WriteString(dst, c.convData[mimeType])
	return err
}

func (c *fakeConn) GrabPointer() error {
	if c.grabErr != nil {
		return c.grabErr
	}
	c.grabs++
	return nil
}

func (c *fakeConn) UngrabPointer() { c.ungrabs++ }

func (c *fakeConn) lastConfigure(t *testing.T, id uint32) geometry.Rect {
	t.Helper()
	rects := c.configures[id]
	if len(rects) == 0 {
		t.Fatalf("window %#x never configured", id)
	}
	return rects[len(rects)-1]
}

func newTestWM(t *testing.T) (*WM, *comp.Engine, *fakeConn) {
	t.Helper()
	e := comp.NewEngine(comp.Config{Logger: slog.Default()})
	if _, err := e.AddSpace("main"); err != nil {
		t.Fatalf("AddSpace: %v", err)
	}
	out := comp.NewOutput("DP-1", geometry.Size{Width: 1920, Height: 1080}, 1)
	if err := e.OutputAdded("main", out); err != nil {
		t.Fatalf("OutputAdded: %v", err)
	}
	conn := newFakeConn()
	return New(e, conn, "main"), e, conn
}

func mapPlain(t *testing.T, wm *WM, id uint32, geo geometry.Rect) *XWindow {
	t.Helper()
	wm.HandleMapRequest(id, WindowAttributes{
		Client:   1,
		Title:    "term",
		Class:    "foot",
		Geometry: geo,
	})
	x := wm.Lookup(id)
	if x == nil {
		t.Fatalf("window %#x not managed after map request", id)
	}
	return x
}

func TestOverrideRedirectTrackedAtOwnLocation(t *testing.T) {
	wm, e, conn := newTestWM(t)
	wm.HandleMapRequest(7, WindowAttributes{
		OverrideRedirect: true,
		Geometry:         geometry.Rect{X: 10, Y: 10, Width: 200, Height: 100},
	})

	x := wm.Lookup(7)
	if x == nil {
		t.Fatalf("override-redirect window not tracked")
	}
	sp, _ := e.Space("main")
	loc, ok := sp.Location(x.window.ID())
	if !ok {
		t.Fatalf("override-redirect window not in space")
	}
	if loc != (geometry.Point{X: 10, Y: 10}) {
		t.Fatalf("tracked at %+v, want the reported {10 10}", loc)
	}
	if len(conn.configures[7]) != 0 {
		t.Fatalf("override-redirect window got a synthetic configure")
	}
	if len(conn.focused) != 0 {
		t.Fatalf("override-redirect window stole focus")
	}
}

func TestOverrideRedirectImplausibleOriginCollapses(t *testing.T) {
	wm, e, _ := newTestWM(t)
	wm.HandleMapRequest(8, WindowAttributes{
		OverrideRedirect: true,
		Geometry:         geometry.Rect{X: 100000, Y: 5, Width: 200, Height: 100},
	})

	x := wm.Lookup(8)
	if x == nil {
		t.Fatalf("override-redirect window not tracked")
	}
	sp, _ := e.Space("main")
	loc, _ := sp.Location(x.window.ID())
	if loc != (geometry.Point{}) {
		t.Fatalf("parked position survived: %+v, want origin", loc)
	}
}

func TestMapNotifyAdoptsSelfMappedOverrideRedirect(t *testing.T) {
	wm, _, _ := newTestWM(t)
	wm.HandleMapNotify(40, WindowAttributes{
		OverrideRedirect: true,
		Geometry:         geometry.Rect{X: 60, Y: 70, Width: 180, Height: 40},
	})
	x := wm.Lookup(40)
	if x == nil || !x.overrideRedirect || !x.mapped {
		t.Fatalf("self-mapped override-redirect window not tracked")
	}

	wm.HandleMapNotify(41, WindowAttributes{
		Geometry: geometry.Rect{X: 1, Y: 1, Width: 10, Height: 10},
	})
	if wm.Lookup(41) != nil {
		t.Fatalf("map notify adopted a managed window")
	}
}

func TestConfigureNotifyFollowsOverrideRedirectMoves(t *testing.T) {
	wm, e, _ := newTestWM(t)
	wm.HandleMapRequest(42, WindowAttributes{
		OverrideRedirect: true,
		Geometry:         geometry.Rect{X: 10, Y: 10, Width: 200, Height: 100},
	})
	x := wm.Lookup(42)

	wm.HandleConfigureNotify(42, geometry.Rect{X: 90, Y: 80, Width: 220, Height: 110})

	sp, _ := e.Space("main")
	loc, _ := sp.Location(x.window.ID())
	if loc != (geometry.Point{X: 90, Y: 80}) {
		t.Fatalf("move not tracked, location = %+v", loc)
	}
	if x.geo != (geometry.Rect{X: 90, Y: 80, Width: 220, Height: 110}) {
		t.Fatalf("geometry not tracked: %+v", x.geo)
	}

	// Managed windows move only through the bridge.
	managed := mapPlain(t, wm, 43, geometry.Rect{X: 0, Y: 0, Width: 300, Height: 200})
	placed, _ := sp.Location(managed.window.ID())
	wm.HandleConfigureNotify(43, geometry.Rect{X: 500, Y: 500, Width: 300, Height: 200})
	if got, _ := sp.Location(managed.window.ID()); got != placed {
		t.Fatalf("managed window followed its own notify to %+v", got)
	}
}

func TestMapRequestAlwaysPlacedByCompositor(t *testing.T) {
	wm, e, conn := newTestWM(t)
	x := mapPlain(t, wm, 9, geometry.Rect{X: 777, Y: 555, Width: 640, Height: 480})

	got := conn.lastConfigure(t, 9)
	if got.Loc() == (geometry.Point{X: 777, Y: 555}) {
		t.Fatalf("map request honored the client's own position %+v", got)
	}
	sp, _ := e.Space("main")
	loc, _ := sp.Location(x.window.ID())
	if loc != got.Loc() {
		t.Fatalf("space location %+v disagrees with configure %+v", loc, got.Loc())
	}
	usable, _ := e.Output("DP-1")
	if !usable.UsableGeometry().ContainsRect(got) {
		t.Fatalf("placed window %+v outside usable area", got)
	}
}

func TestMapRequestImplausiblePositionGetsPlaced(t *testing.T) {
	wm, e, conn := newTestWM(t)
	x := mapPlain(t, wm, 17, geometry.Rect{X: 100000, Y: 5, Width: 640, Height: 480})

	got := conn.lastConfigure(t, 17)
	if got.X >= implausibleCoord || got.Y >= implausibleCoord {
		t.Fatalf("parked position survived: %+v", got)
	}
	sp, _ := e.Space("main")
	loc, _ := sp.Location(x.window.ID())
	rect := geometry.RectFrom(loc, x.window.Size())
	usable, _ := e.Output("DP-1")
	if !usable.UsableGeometry().ContainsRect(rect) {
		t.Fatalf("placed window %+v outside usable area", rect)
	}
}

func TestConfigureRequestCannotSelfMove(t *testing.T) {
	wm, _, conn := newTestWM(t)
	x := mapPlain(t, wm, 10, geometry.Rect{X: 300, Y: 200, Width: 640, Height: 480})
	placed := x.geo

	wm.HandleConfigureRequest(10, geometry.Rect{X: 5, Y: 5, Width: 800, Height: 600})

	got := conn.lastConfigure(t, 10)
	if got.Loc() != placed.Loc() {
		t.Fatalf("window moved itself to %+v, want %+v", got.Loc(), placed.Loc())
	}
	if got.Size() != (geometry.Size{Width: 800, Height: 600}) {
		t.Fatalf("size request not honored: %+v", got.Size())
	}
	if len(conn.notifies[10]) == 0 {
		t.Fatalf("no configure notify after synthetic configure")
	}
}

func TestConfigureRequestUnmanagedPassesThrough(t *testing.T) {
	wm, _, conn := newTestWM(t)
	wm.HandleConfigureRequest(99, geometry.Rect{X: 5, Y: 6, Width: 100, Height: 100})
	got := conn.lastConfigure(t, 99)
	if got.Loc() != (geometry.Point{X: 5, Y: 6}) {
		t.Fatalf("unmanaged configure altered: %+v", got)
	}
}

func TestMaximizeRoundTrip(t *testing.T) {
	wm, _, conn := newTestWM(t)
	x := mapPlain(t, wm, 11, geometry.Rect{X: 300, Y: 200, Width: 640, Height: 480})
	placed := x.geo

	wm.Maximize(x)
	if !x.window.Maximized {
		t.Fatalf("window not marked maximized")
	}
	max := conn.lastConfigure(t, 11)
	if max.Size() != (geometry.Size{Width: 1920, Height: 1080}) {
		t.Fatalf("maximized size = %+v", max.Size())
	}
	if got := conn.states[11]; !got[0] {
		t.Fatalf("maximized state not published")
	}

	wm.Unmaximize(x)
	restored := conn.lastConfigure(t, 11)
	if restored != placed {
		t.Fatalf("restored to %+v, want %+v", restored, placed)
	}
	if got := conn.states[11]; got[0] {
		t.Fatalf("maximized state still published")
	}
}

func TestFullscreenCoversOutputAndDropsDecorations(t *testing.T) {
	wm, _, conn := newTestWM(t)
	x := mapPlain(t, wm, 12, geometry.Rect{X: 300, Y: 200, Width: 640, Height: 480})
	x.window.SSD = true

	wm.Fullscreen(x)
	full := conn.lastConfigure(t, 12)
	if full != (geometry.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}) {
		t.Fatalf("fullscreen rect = %+v", full)
	}
	if x.window.SSD {
		t.Fatalf("decorations still on in fullscreen")
	}

	wm.Unfullscreen(x)
	restored := conn.lastConfigure(t, 12)
	want := geometry.Rect{X: 640, Y: 300, Width: 640, Height: 480}
	if restored != want {
		t.Fatalf("restored to %+v, want recentered %+v", restored, want)
	}
	if !x.window.SSD {
		t.Fatalf("decoration preference not restored")
	}
}

func TestFullscreenKeepsMaximizeSnapshot(t *testing.T) {
	wm, _, conn := newTestWM(t)
	x := mapPlain(t, wm, 18, geometry.Rect{X: 0, Y: 0, Width: 640, Height: 480})
	placed := x.geo

	wm.Maximize(x)
	wm.Fullscreen(x)
	wm.Unfullscreen(x)

	// The fullscreen round-trip must not consume the maximize snapshot:
	// unmaximizing still lands on the originally placed geometry.
	wm.Unmaximize(x)
	if got := conn.lastConfigure(t, 18); got != placed {
		t.Fatalf("unmaximize after fullscreen restored %+v, want %+v", got, placed)
	}
}

func TestUnmapHandsFocusToTopmost(t *testing.T) {
	wm, e, _ := newTestWM(t)
	bottom := mapPlain(t, wm, 13, geometry.Rect{X: 10, Y: 10, Width: 300, Height: 200})
	mapPlain(t, wm, 14, geometry.Rect{X: 50, Y: 50, Width: 300, Height: 200})

	wm.HandleUnmapNotify(14)

	got, err := comp.AsWindow(e.KeyboardFocus())
	if err != nil {
		t.Fatalf("focus is not a window: %v", err)
	}
	if got != bottom.window {
		t.Fatalf("focus went to %d, want the remaining window", got.ID())
	}
}

func TestDestroyForgetsWindow(t *testing.T) {
	wm, e, _ := newTestWM(t)
	x := mapPlain(t, wm, 15, geometry.Rect{X: 10, Y: 10, Width: 300, Height: 200})

	wm.HandleDestroyNotify(15)
	if wm.Lookup(15) != nil {
		t.Fatalf("destroyed window still managed")
	}
	if x.Alive() {
		t.Fatalf("destroyed window reports alive")
	}
	sp, _ := e.Space("main")
	if sp.Contains(x.window.ID()) {
		t.Fatalf("destroyed window still in space")
	}
	if err := x.SendConfigure(geometry.Rect{Width: 10, Height: 10}); err != comp.ErrResourceGone {
		t.Fatalf("configure on dead window err = %v, want ErrResourceGone", err)
	}
}

func TestTitleChangePropagates(t *testing.T) {
	wm, e, _ := newTestWM(t)
	x := mapPlain(t, wm, 16, geometry.Rect{X: 10, Y: 10, Width: 300, Height: 200})

	wm.HandleTitleChange(16, "editor")
	if x.window.Name() != "editor" {
		t.Fatalf("title = %q", x.window.Name())
	}
	if e.LookupWindowByName("editor") != x.window {
		t.Fatalf("lookup by new title failed")
	}
}
