package comp

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/Dirli-V/scape/internal/geometry"
)

// fakeLoop implements LoopHandle with manual control over fd readiness.
type fakeLoop struct {
	posted  []func()
	sources map[int]func()
	addErr  error
}

func newFakeLoop() *fakeLoop {
	return &fakeLoop{sources: make(map[int]func())}
}

func (l *fakeLoop) Post(fn func()) { l.posted = append(l.posted, fn) }

func (l *fakeLoop) AddReadSource(fd int, fn func()) error {
	if l.addErr != nil {
		return l.addErr
	}
	l.sources[fd] = fn
	return nil
}

func (l *fakeLoop) RemoveReadSource(fd int) { delete(l.sources, fd) }

func (l *fakeLoop) fire(fd int) bool {
	fn, ok := l.sources[fd]
	if !ok {
		return false
	}
	fn()
	return true
}

func (l *fakeLoop) runPosted() {
	for len(l.posted) > 0 {
		fn := l.posted[0]
		l.posted = l.posted[1:]
		fn()
	}
}

type recordRenderer struct {
	redraws []string
}

func (r *recordRenderer) ScheduleRedraw(output string) { r.redraws = append(r.redraws, output) }

func newTestEngine(t *testing.T, loop LoopHandle) *Engine {
	t.Helper()
	return NewEngine(Config{
		Logger:   slog.Default(),
		Loop:     loop,
		Renderer: &recordRenderer{},
	})
}

func mapTestWindow(t *testing.T, e *Engine, space string, loc geometry.Point, size geometry.Size) (*Window, *Surface) {
	t.Helper()
	sf := e.CreateSurface(1)
	sf.role = RoleToplevel
	w := NewNativeWindow(sf)
	w.SetSize(size)
	if err := e.MapWindow(space, w, loc, true); err != nil {
		t.Fatalf("MapWindow: %v", err)
	}
	return w, sf
}

func TestCommitAppliesBufferImmediately(t *testing.T) {
	e := newTestEngine(t, newFakeLoop())
	if _, err := e.AddSpace("main"); err != nil {
		t.Fatalf("AddSpace: %v", err)
	}
	_, sf := mapTestWindow(t, e, "main", geometry.Point{X: 10, Y: 20}, geometry.Size{Width: 400, Height: 300})

	buf := NewBuffer(geometry.Size{Width: 640, Height: 480})
	sf.AttachBuffer(buf, geometry.Point{})
	e.OnCommit(sf)

	if sf.CurrentBuffer() != buf {
		t.Fatalf("buffer not applied")
	}
	if got := sf.Size(); got != (geometry.Size{Width: 640, Height: 480}) {
		t.Fatalf("surface size = %+v", got)
	}
}

func TestCommitDeltaMovesMappedWindow(t *testing.T) {
	e := newTestEngine(t, newFakeLoop())
	if _, err := e.AddSpace("main"); err != nil {
		t.Fatalf("AddSpace: %v", err)
	}
	w, sf := mapTestWindow(t, e, "main", geometry.Point{X: 100, Y: 100}, geometry.Size{Width: 400, Height: 300})

	sf.AttachBuffer(NewBuffer(geometry.Size{Width: 400, Height: 300}), geometry.Point{X: -5, Y: 8})
	e.OnCommit(sf)

	sp, _ := e.Space("main")
	loc, ok := sp.Location(w.ID())
	if !ok {
		t.Fatalf("window lost its location")
	}
	if loc != (geometry.Point{X: 95, Y: 108}) {
		t.Fatalf("location = %+v, want {95 108}", loc)
	}
}

func TestCommitChildDeltaLeavesWindowInPlace(t *testing.T) {
	e := newTestEngine(t, newFakeLoop())
	if _, err := e.AddSpace("main"); err != nil {
		t.Fatalf("AddSpace: %v", err)
	}
	w, root := mapTestWindow(t, e, "main", geometry.Point{X: 100, Y: 100}, geometry.Size{Width: 400, Height: 300})

	child := e.CreateSurface(1)
	e.SetSurfaceParent(child, root)
	child.AttachBuffer(NewBuffer(geometry.Size{Width: 64, Height: 64}), geometry.Point{X: 5, Y: 7})
	e.OnCommit(child)

	sp, _ := e.Space("main")
	loc, ok := sp.Location(w.ID())
	if !ok {
		t.Fatalf("window lost its location")
	}
	if loc != (geometry.Point{X: 100, Y: 100}) {
		t.Fatalf("child delta moved the window to %+v", loc)
	}
}

func TestCommitGatesOnSyncDescriptor(t *testing.T) {
	loop := newFakeLoop()
	e := newTestEngine(t, loop)
	if _, err := e.AddSpace("main"); err != nil {
		t.Fatalf("AddSpace: %v", err)
	}
	_, sf := mapTestWindow(t, e, "main", geometry.Point{}, geometry.Size{Width: 100, Height: 100})

	buf := NewBuffer(geometry.Size{Width: 200, Height: 200})
	buf.SyncFD = 42
	sf.AttachBuffer(buf, geometry.Point{})
	e.OnCommit(sf)

	if sf.CurrentBuffer() == buf {
		t.Fatalf("gated commit applied before readiness")
	}

	// A second, unsynchronized commit must queue behind the gate.
	buf2 := NewBuffer(geometry.Size{Width: 300, Height: 300})
	sf.AttachBuffer(buf2, geometry.Point{})
	e.OnCommit(sf)
	if sf.CurrentBuffer() != nil {
		t.Fatalf("queued commit jumped the gate")
	}

	if !loop.fire(42) {
		t.Fatalf("no readiness source registered for fd 42")
	}
	if sf.CurrentBuffer() != buf2 {
		t.Fatalf("queue did not drain in order, current = %+v", sf.CurrentBuffer())
	}
}

func TestCommitFallsBackToImmediateApply(t *testing.T) {
	loop := newFakeLoop()
	loop.addErr = errors.New("epoll full")
	e := newTestEngine(t, loop)
	if _, err := e.AddSpace("main"); err != nil {
		t.Fatalf("AddSpace: %v", err)
	}
	_, sf := mapTestWindow(t, e, "main", geometry.Point{}, geometry.Size{Width: 100, Height: 100})

	buf := NewBuffer(geometry.Size{Width: 200, Height: 200})
	buf.SyncFD = 7
	buf.FenceFD = 8
	sf.AttachBuffer(buf, geometry.Point{})
	e.OnCommit(sf)

	if sf.CurrentBuffer() != buf {
		t.Fatalf("commit dropped when no gate could be armed")
	}
}

func TestCommitFinishesResize(t *testing.T) {
	e := newTestEngine(t, newFakeLoop())
	if _, err := e.AddSpace("main"); err != nil {
		t.Fatalf("AddSpace: %v", err)
	}
	_, sf := mapTestWindow(t, e, "main", geometry.Point{}, geometry.Size{Width: 100, Height: 100})

	sf.Resize = ResizeState{Kind: WaitingForCommit, Data: ResizeData{Edges: geometry.EdgeRight}}
	sf.AttachBuffer(NewBuffer(geometry.Size{Width: 150, Height: 100}), geometry.Point{})
	e.OnCommit(sf)

	if sf.Resize.Kind != NotResizing {
		t.Fatalf("resize state = %v, want not-resizing", sf.Resize.Kind)
	}
}

func TestCommitSendsInitialConfigure(t *testing.T) {
	e := newTestEngine(t, newFakeLoop())
	sf := e.CreateSurface(1)
	sf.role = RoleToplevel

	var configures int
	sf.SetConfigure(func(geometry.Rect) { configures++ })

	e.OnCommit(sf)
	if !sf.InitialConfigureSent() {
		t.Fatalf("initial configure not sent")
	}
	e.OnCommit(sf)
	if configures != 1 {
		t.Fatalf("configure sent %d times, want 1", configures)
	}
}

func TestCommitCursorHotspotDelta(t *testing.T) {
	e := newTestEngine(t, newFakeLoop())
	sf := e.CreateSurface(1)
	e.SetCursorSurface(sf, geometry.Point{X: 4, Y: 4})

	sf.AttachBuffer(NewBuffer(geometry.Size{Width: 24, Height: 24}), geometry.Point{X: 2, Y: 1})
	e.OnCommit(sf)

	if got := e.CursorHotspot(); got != (geometry.Point{X: 2, Y: 3}) {
		t.Fatalf("hotspot = %+v, want {2 3}", got)
	}
}

func TestDestroySurfaceDropsPendingState(t *testing.T) {
	loop := newFakeLoop()
	e := newTestEngine(t, loop)
	if _, err := e.AddSpace("main"); err != nil {
		t.Fatalf("AddSpace: %v", err)
	}
	w, sf := mapTestWindow(t, e, "main", geometry.Point{}, geometry.Size{Width: 100, Height: 100})

	buf := NewBuffer(geometry.Size{Width: 200, Height: 200})
	buf.SyncFD = 9
	sf.AttachBuffer(buf, geometry.Point{})
	e.OnCommit(sf)

	e.DestroySurface(sf)
	if loop.fire(9) {
		t.Fatalf("readiness source survived surface destruction")
	}
	if w.Mapped() {
		t.Fatalf("window still mapped after its surface died")
	}
	sp, _ := e.Space("main")
	if sp.Contains(w.ID()) {
		t.Fatalf("space still owns dead window")
	}
}
