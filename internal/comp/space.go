package comp

import (
	"fmt"

	"github.com/Dirli-V/scape/internal/geometry"
)

// Output is a physical or virtual display a space renders to. Its logical
// location within the space is assigned by FixupPositions.
type Output struct {
	Name     string
	Size     geometry.Size
	Scale    float64
	Location geometry.Point

	layers *LayerMap
}

// NewOutput creates an output with the given nominal mode size.
func NewOutput(name string, size geometry.Size, scale float64) *Output {
	if scale <= 0 {
		scale = 1
	}
	return &Output{Name: name, Size: size, Scale: scale, layers: NewLayerMap()}
}

// Layers returns the output's exclusive-zone layer map.
func (o *Output) Layers() *LayerMap { return o.layers }

// Geometry returns the output rectangle in space-logical coordinates.
func (o *Output) Geometry() geometry.Rect {
	return geometry.RectFrom(o.Location, o.Size)
}

// UsableGeometry returns the output's non-exclusive rectangle in
// space-logical coordinates.
func (o *Output) UsableGeometry() geometry.Rect {
	return o.layers.Usable().Translate(o.Location)
}

// Zone is a named placement region inside a space's usable area.
type Zone struct {
	Name    string
	Rect    geometry.Rect
	Default bool
}

// Space is a named workspace: an ordered collection of windows (collection
// order is stacking order, bottom to top) plus a set of outputs. Windows and
// outputs are referenced by identifier; the engine owns the actual objects.
type Space struct {
	Name string

	windows   []WindowID
	locations map[WindowID]geometry.Point

	outputs []string

	zones     map[string]Zone
	zoneOrder []string
}

// NewSpace creates an empty space.
func NewSpace(name string) *Space {
	return &Space{
		Name:      name,
		locations: make(map[WindowID]geometry.Point),
		zones:     make(map[string]Zone),
	}
}

// Windows returns the stacking order, bottom to top.
func (s *Space) Windows() []WindowID {
	out := make([]WindowID, len(s.windows))
	copy(out, s.windows)
	return out
}

// Top returns the topmost window, or 0 for an empty space.
func (s *Space) Top() WindowID {
	if len(s.windows) == 0 {
		return 0
	}
	return s.windows[len(s.windows)-1]
}

// Contains reports whether the window is mapped in this space.
func (s *Space) Contains(id WindowID) bool {
	_, ok := s.locations[id]
	return ok
}

// Location returns the window's position in space-logical coordinates.
func (s *Space) Location(id WindowID) (geometry.Point, bool) {
	loc, ok := s.locations[id]
	return loc, ok
}

// mapWindow inserts or moves a window. With raise set the window goes to the
// top of the stacking order.
func (s *Space) mapWindow(id WindowID, loc geometry.Point, raise bool) {
	if _, ok := s.locations[id]; !ok {
		s.windows = append(s.windows, id)
	} else if raise {
		s.removeFromStack(id)
		s.windows = append(s.windows, id)
	}
	s.locations[id] = loc
}

// SetLocation moves a mapped window without touching stacking order. Moving
// a window that is not mapped here is a no-op.
func (s *Space) SetLocation(id WindowID, loc geometry.Point) {
	if _, ok := s.locations[id]; ok {
		s.locations[id] = loc
	}
}

// unmapWindow detaches a window from this space.
func (s *Space) unmapWindow(id WindowID) {
	if _, ok := s.locations[id]; !ok {
		return
	}
	delete(s.locations, id)
	s.removeFromStack(id)
}

func (s *Space) removeFromStack(id WindowID) {
	for i, cur := range s.windows {
		if cur == id {
			s.windows = append(s.windows[:i], s.windows[i+1:]...)
			return
		}
	}
}

// Outputs returns the output names in registration order.
func (s *Space) Outputs() []string {
	out := make([]string, len(s.outputs))
	copy(out, s.outputs)
	return out
}

// addOutput registers an output name; duplicates are ignored.
func (s *Space) addOutput(name string) {
	for _, cur := range s.outputs {
		if cur == name {
			return
		}
	}
	s.outputs = append(s.outputs, name)
}

// removeOutput drops an output name.
func (s *Space) removeOutput(name string) {
	for i, cur := range s.outputs {
		if cur == name {
			s.outputs = append(s.outputs[:i], s.outputs[i+1:]...)
			return
		}
	}
}

// AddZone registers a placement zone. Zone names are unique within a space;
// a duplicate is rejected with ErrConfigurationConflict and the existing
// zone is kept.
func (s *Space) AddZone(z Zone) error {
	if _, ok := s.zones[z.Name]; ok {
		return fmt.Errorf("zone %q: %w", z.Name, ErrConfigurationConflict)
	}
	s.zones[z.Name] = z
	s.zoneOrder = append(s.zoneOrder, z.Name)
	return nil
}

// Zone looks a zone up by name.
func (s *Space) Zone(name string) (Zone, bool) {
	z, ok := s.zones[name]
	return z, ok
}

// Zones returns the zones in registration order.
func (s *Space) Zones() []Zone {
	out := make([]Zone, 0, len(s.zoneOrder))
	for _, name := range s.zoneOrder {
		out = append(out, s.zones[name])
	}
	return out
}

// DefaultZone returns the first zone flagged as default, if any.
func (s *Space) DefaultZone() (Zone, bool) {
	for _, name := range s.zoneOrder {
		if z := s.zones[name]; z.Default {
			return z, true
		}
	}
	return Zone{}, false
}

// ClearZones removes every zone, used when the scripting collaborator
// re-declares the zone list.
func (s *Space) ClearZones() {
	s.zones = make(map[string]Zone)
	s.zoneOrder = nil
}
