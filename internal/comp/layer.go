package comp

import (
	"github.com/Dirli-V/scape/internal/geometry"
)

// LayerSurface is a shell surface anchored to output edges (panels, bars,
// notifications). Surfaces with a positive exclusive zone carve that many
// pixels out of the output's usable area.
type LayerSurface struct {
	surface *Surface

	Namespace     string
	Anchor        geometry.Edges
	ExclusiveZone int
	DesiredSize   geometry.Size

	// geo is output-relative, valid after Arrange.
	geo geometry.Rect
}

// NewLayerSurface wraps a surface in the layer role.
func NewLayerSurface(sf *Surface, namespace string) *LayerSurface {
	sf.role = RoleLayer
	return &LayerSurface{surface: sf, Namespace: namespace}
}

// Surface returns the backing surface.
func (l *LayerSurface) Surface() *Surface { return l.surface }

// Alive reports whether the backing surface still exists.
func (l *LayerSurface) Alive() bool { return l.surface.Alive() }

// Geometry returns the output-relative rectangle assigned by the last
// Arrange.
func (l *LayerSurface) Geometry() geometry.Rect { return l.geo }

// LayerMap owns the layer surfaces of one output and the usable rectangle
// left over after exclusive zones are carved out.
type LayerMap struct {
	layers []*LayerSurface
	usable geometry.Rect
}

// NewLayerMap returns an empty map; Usable is meaningless until Arrange ran.
func NewLayerMap() *LayerMap {
	return &LayerMap{}
}

// Add registers a layer surface with this output.
func (m *LayerMap) Add(l *LayerSurface) {
	m.layers = append(m.layers, l)
}

// Remove drops a layer surface.
func (m *LayerMap) Remove(l *LayerSurface) {
	for i, cur := range m.layers {
		if cur == l {
			m.layers = append(m.layers[:i], m.layers[i+1:]...)
			return
		}
	}
}

// Layers returns the tracked layer surfaces in registration order.
func (m *LayerMap) Layers() []*LayerSurface { return m.layers }

// Find returns the layer surface backed by sf, or nil.
func (m *LayerMap) Find(sf *Surface) *LayerSurface {
	for _, l := range m.layers {
		if l.surface == sf {
			return l
		}
	}
	return nil
}

// Usable returns the output-relative non-exclusive rectangle computed by the
// last Arrange.
func (m *LayerMap) Usable() geometry.Rect { return m.usable }

// Arrange positions every layer surface within an output of the given size
// and recomputes the usable rectangle. Dead layers are dropped. Arranging
// twice with unchanged inputs yields identical results.
func (m *LayerMap) Arrange(size geometry.Size) {
	alive := m.layers[:0]
	for _, l := range m.layers {
		if l.Alive() {
			alive = append(alive, l)
		}
	}
	m.layers = alive

	full := geometry.Rect{Width: size.Width, Height: size.Height}
	usable := full

	for _, l := range m.layers {
		l.geo = layerGeometry(l, full)
		if l.ExclusiveZone <= 0 {
			continue
		}
		switch exclusiveEdge(l.Anchor) {
		case geometry.EdgeTop:
			usable.Y += l.ExclusiveZone
			usable.Height -= l.ExclusiveZone
		case geometry.EdgeBottom:
			usable.Height -= l.ExclusiveZone
		case geometry.EdgeLeft:
			usable.X += l.ExclusiveZone
			usable.Width -= l.ExclusiveZone
		case geometry.EdgeRight:
			usable.Width -= l.ExclusiveZone
		}
	}

	if usable.Width < 0 {
		usable.Width = 0
	}
	if usable.Height < 0 {
		usable.Height = 0
	}
	m.usable = usable
}

// exclusiveEdge maps an anchor set to the single edge an exclusive zone is
// reserved from. Anchors spanning an axis reserve from the anchored
// perpendicular edge; ambiguous anchors reserve nothing.
func exclusiveEdge(anchor geometry.Edges) geometry.Edges {
	horiz := anchor & (geometry.EdgeLeft | geometry.EdgeRight)
	vert := anchor & (geometry.EdgeTop | geometry.EdgeBottom)

	switch {
	case vert == geometry.EdgeTop && horiz != geometry.EdgeLeft && horiz != geometry.EdgeRight:
		return geometry.EdgeTop
	case vert == geometry.EdgeBottom && horiz != geometry.EdgeLeft && horiz != geometry.EdgeRight:
		return geometry.EdgeBottom
	case horiz == geometry.EdgeLeft && vert != geometry.EdgeTop && vert != geometry.EdgeBottom:
		return geometry.EdgeLeft
	case horiz == geometry.EdgeRight && vert != geometry.EdgeTop && vert != geometry.EdgeBottom:
		return geometry.EdgeRight
	}
	return geometry.EdgeNone
}

// layerGeometry computes the output-relative rectangle for a layer surface:
// anchored axes stretch to the output when both opposing edges are anchored,
// otherwise the desired size is kept and the surface sits on the anchored
// edge (centered on unanchored axes).
func layerGeometry(l *LayerSurface, full geometry.Rect) geometry.Rect {
	w := l.DesiredSize.Width
	h := l.DesiredSize.Height
	if l.Anchor.Has(geometry.EdgeLeft|geometry.EdgeRight) || w <= 0 {
		w = full.Width
	}
	if l.Anchor.Has(geometry.EdgeTop|geometry.EdgeBottom) || h <= 0 {
		h = full.Height
	}

	x := (full.Width - w) / 2
	if l.Anchor.Has(geometry.EdgeLeft) {
		x = 0
	} else if l.Anchor.Has(geometry.EdgeRight) {
		x = full.Width - w
	}
	y := (full.Height - h) / 2
	if l.Anchor.Has(geometry.EdgeTop) {
		y = 0
	} else if l.Anchor.Has(geometry.EdgeBottom) {
		y = full.Height - h
	}

	return geometry.Rect{X: x, Y: y, Width: w, Height: h}
}
