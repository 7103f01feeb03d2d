package comp

import (
	"github.com/Dirli-V/scape/internal/geometry"
)

// cascadeStep is the diagonal offset between successively placed windows.
const cascadeStep = 30

// PlaceWindow computes a geometry for the window inside the space and, when
// the window is mapped there, applies the location. Placement never leaves
// the usable area: zone placements clamp into the zone, free placements
// cascade across the first output, recentering picks the output the window
// already lives on.
func (e *Engine) PlaceWindow(sp *Space, w *Window, isNew bool, requestedZone string, recenter bool) geometry.Rect {
	size := w.Size()
	if size.IsEmpty() {
		size = geometry.Size{Width: 800, Height: 600}
	}

	zone, haveZone := e.resolveZone(sp, requestedZone, isNew)
	var rect geometry.Rect
	switch {
	case haveZone:
		rect = e.placeInZone(sp, w, zone, size, isNew)
	case recenter:
		rect = e.placeCentered(sp, w, size)
	case isNew:
		rect = e.placeCascade(sp, size)
	default:
		rect = e.placeExisting(sp, w, size)
	}

	if w.id != 0 && sp.Contains(w.id) {
		sp.locations[w.id] = rect.Loc()
	}
	w.SetSize(rect.Size())
	return rect
}

// resolveZone maps a zone request to a zone. An unknown name is logged and
// ignored; an empty request falls back to the space's default zone for new
// windows only.
func (e *Engine) resolveZone(sp *Space, requested string, isNew bool) (Zone, bool) {
	if requested != "" {
		if z, ok := sp.Zone(requested); ok {
			return z, true
		}
		e.logger.Warn("requested zone not found", "space", sp.Name, "zone", requested)
		return Zone{}, false
	}
	if isNew {
		if z, ok := sp.DefaultZone(); ok {
			return z, true
		}
	}
	return Zone{}, false
}

func (e *Engine) placeInZone(sp *Space, w *Window, z Zone, size geometry.Size, isNew bool) geometry.Rect {
	loc := z.Rect.Loc()
	if !isNew && w.id != 0 {
		if cur, ok := sp.Location(w.id); ok {
			loc = cur
		}
	}
	return geometry.RectFrom(loc, size).ClampInto(z.Rect)
}

// placeCascade positions a new window at the first output's usable origin,
// shifted diagonally per window already in the space and wrapped at a third
// of the usable size so deep stacks stay on screen.
func (e *Engine) placeCascade(sp *Space, size geometry.Size) geometry.Rect {
	usable, ok := e.firstUsable(sp)
	if !ok {
		return geometry.RectFrom(geometry.Point{}, size)
	}
	n := len(sp.windows)
	offset := n * cascadeStep
	wrapX := usable.Width / 3
	wrapY := usable.Height / 3
	var off geometry.Point
	if wrapX > 0 {
		off.X = offset % wrapX
	}
	if wrapY > 0 {
		off.Y = offset % wrapY
	}
	loc := usable.Loc().Add(off)
	return geometry.RectFrom(loc, size).ClampInto(usable)
}

// placeCentered centers the window on the output it currently overlaps, or
// the first output when it overlaps none.
func (e *Engine) placeCentered(sp *Space, w *Window, size geometry.Size) geometry.Rect {
	target, ok := e.firstUsable(sp)
	if !ok {
		return geometry.RectFrom(geometry.Point{}, size)
	}
	if w.id != 0 {
		if cur, ok := sp.Location(w.id); ok {
			curRect := geometry.RectFrom(cur, w.Size())
			for _, usable := range e.usableAreas(sp) {
				if usable.Overlaps(curRect) {
					target = usable
					break
				}
			}
		}
	}
	loc := geometry.Point{
		X: target.X + (target.Width-size.Width)/2,
		Y: target.Y + (target.Height-size.Height)/2,
	}
	return geometry.RectFrom(loc, size).ClampInto(target)
}

// placeExisting keeps the window where it is, clamped into whichever usable
// area it overlaps.
func (e *Engine) placeExisting(sp *Space, w *Window, size geometry.Size) geometry.Rect {
	loc := geometry.Point{}
	if w.id != 0 {
		if cur, ok := sp.Location(w.id); ok {
			loc = cur
		}
	}
	rect := geometry.RectFrom(loc, size)
	for _, usable := range e.usableAreas(sp) {
		if usable.Overlaps(rect) {
			return rect.ClampInto(usable)
		}
	}
	if usable, ok := e.firstUsable(sp); ok {
		return rect.ClampInto(usable)
	}
	return rect
}

func (e *Engine) usableAreas(sp *Space) []geometry.Rect {
	out := make([]geometry.Rect, 0, len(sp.outputs))
	for _, name := range sp.outputs {
		if o, ok := e.outputs[name]; ok {
			out = append(out, o.UsableGeometry())
		}
	}
	return out
}

func (e *Engine) firstUsable(sp *Space) (geometry.Rect, bool) {
	areas := e.usableAreas(sp)
	if len(areas) == 0 {
		return geometry.Rect{}, false
	}
	return areas[0], true
}

// FixupPositions restores the space's layout invariants after output
// changes: outputs line up left to right in registration order, every
// output's layers are re-arranged, and windows stranded outside all usable
// areas are re-placed. Running it twice without intervening changes is a
// no-op.
func (e *Engine) FixupPositions(spaceName string) {
	sp, ok := e.spaces[spaceName]
	if !ok {
		return
	}

	x := 0
	for _, name := range sp.outputs {
		out, ok := e.outputs[name]
		if !ok {
			continue
		}
		out.Location = geometry.Point{X: x}
		out.Layers().Arrange(out.Size)
		x += out.Size.Width
	}

	for _, id := range sp.Windows() {
		w, ok := e.windows[id]
		if !ok || !w.Alive() {
			continue
		}
		loc, _ := sp.Location(id)
		rect := geometry.RectFrom(loc, w.Size())
		if e.overlapsAnyUsable(sp, rect) {
			continue
		}
		placed := e.PlaceWindow(sp, w, false, "", true)
		if err := w.SendConfigure(placed); err != nil {
			e.logger.Warn("configure after re-place failed", "window", id, "error", err)
		}
	}

	e.scheduleRedrawSpace(sp)
}

func (e *Engine) overlapsAnyUsable(sp *Space, rect geometry.Rect) bool {
	for _, usable := range e.usableAreas(sp) {
		if usable.Overlaps(rect) {
			return true
		}
	}
	return false
}
