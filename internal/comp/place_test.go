package comp

import (
	"errors"
	"testing"

	"github.com/Dirli-V/scape/internal/geometry"
)

func addTestOutput(t *testing.T, e *Engine, space, name string, w, h int) *Output {
	t.Helper()
	out := NewOutput(name, geometry.Size{Width: w, Height: h}, 1)
	if err := e.OutputAdded(space, out); err != nil {
		t.Fatalf("OutputAdded(%s): %v", name, err)
	}
	return out
}

func TestPlaceWindowZoneContainment(t *testing.T) {
	e := newTestEngine(t, newFakeLoop())
	sp, err := e.AddSpace("main")
	if err != nil {
		t.Fatalf("AddSpace: %v", err)
	}
	addTestOutput(t, e, "main", "DP-1", 1920, 1080)

	zone := Zone{Name: "left", Rect: geometry.Rect{X: 0, Y: 0, Width: 960, Height: 1080}}
	if err := sp.AddZone(zone); err != nil {
		t.Fatalf("AddZone: %v", err)
	}

	tests := []struct {
		name string
		size geometry.Size
	}{
		{"fits", geometry.Size{Width: 400, Height: 300}},
		{"wider than zone", geometry.Size{Width: 1400, Height: 300}},
		{"taller than zone", geometry.Size{Width: 400, Height: 2000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := mapTestWindow(t, e, "main", geometry.Point{X: 1200, Y: 50}, tt.size)
			rect := e.PlaceWindow(sp, w, false, "left", false)
			if !zone.Rect.ContainsRect(rect) {
				t.Fatalf("placed rect %+v escapes zone %+v", rect, zone.Rect)
			}
		})
	}
}

func TestPlaceWindowUnknownZoneFallsBack(t *testing.T) {
	e := newTestEngine(t, newFakeLoop())
	sp, err := e.AddSpace("main")
	if err != nil {
		t.Fatalf("AddSpace: %v", err)
	}
	addTestOutput(t, e, "main", "DP-1", 1920, 1080)
	w, _ := mapTestWindow(t, e, "main", geometry.Point{X: 10, Y: 10}, geometry.Size{Width: 200, Height: 200})

	rect := e.PlaceWindow(sp, w, false, "no-such-zone", false)
	usable := e.usableAreas(sp)[0]
	if !usable.ContainsRect(rect) {
		t.Fatalf("fallback rect %+v escapes usable %+v", rect, usable)
	}
}

func TestPlaceWindowCascade(t *testing.T) {
	e := newTestEngine(t, newFakeLoop())
	sp, err := e.AddSpace("main")
	if err != nil {
		t.Fatalf("AddSpace: %v", err)
	}
	addTestOutput(t, e, "main", "DP-1", 1920, 1080)

	var prev geometry.Rect
	for i := 0; i < 3; i++ {
		w, _ := mapTestWindow(t, e, "main", geometry.Point{}, geometry.Size{Width: 300, Height: 200})
		rect := e.PlaceWindow(sp, w, true, "", false)
		usable := e.usableAreas(sp)[0]
		if !usable.ContainsRect(rect) {
			t.Fatalf("window %d placed at %+v outside usable %+v", i, rect, usable)
		}
		if i > 0 && rect == prev {
			t.Fatalf("window %d not offset from predecessor at %+v", i, prev)
		}
		prev = rect
	}
}

func TestPlaceWindowExcludesExclusiveZone(t *testing.T) {
	e := newTestEngine(t, newFakeLoop())
	sp, err := e.AddSpace("main")
	if err != nil {
		t.Fatalf("AddSpace: %v", err)
	}
	out := addTestOutput(t, e, "main", "DP-1", 1920, 1080)

	bar := e.CreateSurface(2)
	layer := NewLayerSurface(bar, "bar")
	layer.Anchor = geometry.EdgeTop
	layer.ExclusiveZone = 40
	layer.DesiredSize = geometry.Size{Width: 0, Height: 40}
	out.Layers().Add(layer)
	e.FixupPositions("main")

	w, _ := mapTestWindow(t, e, "main", geometry.Point{}, geometry.Size{Width: 300, Height: 200})
	rect := e.PlaceWindow(sp, w, true, "", false)
	if rect.Y < 40 {
		t.Fatalf("placement y = %d overlaps exclusive zone", rect.Y)
	}
}

func TestFixupPositionsLaysOutputsLeftToRight(t *testing.T) {
	e := newTestEngine(t, newFakeLoop())
	if _, err := e.AddSpace("main"); err != nil {
		t.Fatalf("AddSpace: %v", err)
	}
	first := addTestOutput(t, e, "main", "DP-1", 1920, 1080)
	second := addTestOutput(t, e, "main", "HDMI-1", 1280, 720)

	if first.Location != (geometry.Point{X: 0, Y: 0}) {
		t.Fatalf("first output at %+v, want {0 0}", first.Location)
	}
	if second.Location != (geometry.Point{X: 1920, Y: 0}) {
		t.Fatalf("second output at %+v, want {1920 0}", second.Location)
	}
}

func TestFixupPositionsIdempotent(t *testing.T) {
	e := newTestEngine(t, newFakeLoop())
	sp, err := e.AddSpace("main")
	if err != nil {
		t.Fatalf("AddSpace: %v", err)
	}
	addTestOutput(t, e, "main", "DP-1", 1920, 1080)
	addTestOutput(t, e, "main", "HDMI-1", 1280, 720)

	w, _ := mapTestWindow(t, e, "main", geometry.Point{X: 5000, Y: 5000}, geometry.Size{Width: 400, Height: 300})

	e.FixupPositions("main")
	loc1, _ := sp.Location(w.ID())
	e.FixupPositions("main")
	loc2, _ := sp.Location(w.ID())

	if loc1 != loc2 {
		t.Fatalf("second fixup moved window: %+v -> %+v", loc1, loc2)
	}
	rect := geometry.RectFrom(loc1, w.Size())
	if !e.overlapsAnyUsable(sp, rect) {
		t.Fatalf("fixup left window outside usable areas: %+v", rect)
	}
}

func TestFixupPositionsRehomesOrphans(t *testing.T) {
	e := newTestEngine(t, newFakeLoop())
	sp, err := e.AddSpace("main")
	if err != nil {
		t.Fatalf("AddSpace: %v", err)
	}
	addTestOutput(t, e, "main", "DP-1", 1920, 1080)
	addTestOutput(t, e, "main", "HDMI-1", 1280, 720)

	w, _ := mapTestWindow(t, e, "main", geometry.Point{X: 2000, Y: 100}, geometry.Size{Width: 400, Height: 300})

	e.OutputRemoved("HDMI-1")

	loc, ok := sp.Location(w.ID())
	if !ok {
		t.Fatalf("window lost after output removal")
	}
	rect := geometry.RectFrom(loc, w.Size())
	if !e.overlapsAnyUsable(sp, rect) {
		t.Fatalf("window stranded at %+v after output removal", rect)
	}
}

func TestOutputSingleOwner(t *testing.T) {
	e := newTestEngine(t, newFakeLoop())
	if _, err := e.AddSpace("one"); err != nil {
		t.Fatalf("AddSpace: %v", err)
	}
	if _, err := e.AddSpace("two"); err != nil {
		t.Fatalf("AddSpace: %v", err)
	}
	out := addTestOutput(t, e, "one", "DP-1", 1920, 1080)

	err := e.OutputAdded("two", out)
	if !errors.Is(err, ErrConfigurationConflict) {
		t.Fatalf("second attach err = %v, want configuration conflict", err)
	}
}

func TestZoneDuplicateRejected(t *testing.T) {
	e := newTestEngine(t, newFakeLoop())
	sp, err := e.AddSpace("main")
	if err != nil {
		t.Fatalf("AddSpace: %v", err)
	}
	z := Zone{Name: "left", Rect: geometry.Rect{Width: 100, Height: 100}}
	if err := sp.AddZone(z); err != nil {
		t.Fatalf("first AddZone: %v", err)
	}
	dup := Zone{Name: "left", Rect: geometry.Rect{Width: 999, Height: 999}}
	if err := sp.AddZone(dup); !errors.Is(err, ErrConfigurationConflict) {
		t.Fatalf("duplicate AddZone err = %v, want configuration conflict", err)
	}
	got, _ := sp.Zone("left")
	if got.Rect.Width != 100 {
		t.Fatalf("duplicate overwrote existing zone: %+v", got)
	}
}
