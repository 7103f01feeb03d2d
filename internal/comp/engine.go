package comp

import (
	"fmt"
	"log/slog"

	"github.com/Dirli-V/scape/internal/geometry"
)

// Hooks are the scripting collaborator's lifecycle callbacks. They live on
// the engine as plain fields: loaded once at startup, dropped at process
// exit.
type Hooks struct {
	OnStartup         func()
	OnConnectorChange func(outputs []OutputInfo)
	OnQuit            func()
}

// Config holds the engine's collaborators.
type Config struct {
	Logger   *slog.Logger
	Loop     LoopHandle
	Renderer Renderer
	Spawner  Spawner
}

type nopRenderer struct{}

func (nopRenderer) ScheduleRedraw(string) {}

// Engine owns the display core: surfaces, windows, spaces, outputs, focus
// and selection state. All of it is confined to the loop goroutine; nothing
// here locks.
type Engine struct {
	logger   *slog.Logger
	loop     LoopHandle
	renderer Renderer
	spawner  Spawner

	surfaces map[SurfaceID]*Surface
	windows  map[WindowID]*Window

	spaces     map[string]*Space
	spaceOrder []string

	outputs     map[string]*Output
	outputSpace map[string]string

	popups *PopupManager

	cursorSurface *Surface
	cursorHotspot geometry.Point

	dragIconSurface *Surface
	dragIconOffset  geometry.Point

	keyboardFocus Target
	pointerFocus  Target

	blockers map[SurfaceID]*syncBlocker
	queues   map[SurfaceID][]surfaceState

	selections      [2]selectionRecord
	selectionSerial uint64
	selectionWatch  []SelectionObserver

	hooks Hooks

	nextSurfaceID SurfaceID
	nextWindowID  WindowID
}

// NewEngine creates an engine. A nil renderer is replaced with a no-op; a
// nil loop degrades every commit to an immediate, unblocked apply.
func NewEngine(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = nopRenderer{}
	}
	return &Engine{
		logger:      logger,
		loop:        cfg.Loop,
		renderer:    renderer,
		spawner:     cfg.Spawner,
		surfaces:    make(map[SurfaceID]*Surface),
		windows:     make(map[WindowID]*Window),
		spaces:      make(map[string]*Space),
		outputs:     make(map[string]*Output),
		outputSpace: make(map[string]string),
		popups:      NewPopupManager(logger),
		blockers:    make(map[SurfaceID]*syncBlocker),
		queues:      make(map[SurfaceID][]surfaceState),
	}
}

// Logger returns the engine's logger, for collaborators constructed around
// the engine.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Popups returns the popup bookkeeping collaborator.
func (e *Engine) Popups() *PopupManager { return e.popups }

// SetHooks installs the scripting collaborator's lifecycle callbacks.
func (e *Engine) SetHooks(h Hooks) { e.hooks = h }

// RunStartup schedules the startup hook on the loop.
func (e *Engine) RunStartup() {
	if e.hooks.OnStartup == nil {
		return
	}
	e.post(e.hooks.OnStartup)
}

func (e *Engine) post(fn func()) {
	if e.loop != nil {
		e.loop.Post(fn)
		return
	}
	fn()
}

// CreateSurface registers a new surface for a client.
func (e *Engine) CreateSurface(client ClientID) *Surface {
	e.nextSurfaceID++
	sf := &Surface{
		id:     e.nextSurfaceID,
		client: client,
		alive:  true,
		sink:   discardSink{},
	}
	e.surfaces[sf.id] = sf
	return sf
}

// Surface resolves a surface id, nil if unknown or destroyed.
func (e *Engine) Surface(id SurfaceID) *Surface {
	return e.surfaces[id]
}

// SetSurfaceParent links child into parent's tree.
func (e *Engine) SetSurfaceParent(child, parent *Surface) {
	if child.parent == parent {
		return
	}
	if child.parent != nil {
		for i, cur := range child.parent.children {
			if cur == child {
				child.parent.children = append(child.parent.children[:i], child.parent.children[i+1:]...)
				break
			}
		}
	}
	child.parent = parent
	if parent != nil {
		parent.children = append(parent.children, child)
	}
}

// DestroySurface tears a surface down: pending commit state is dropped, any
// window rooted at it is unmapped and marked dead, focus holding it is
// cleared.
func (e *Engine) DestroySurface(sf *Surface) {
	if sf == nil || !sf.alive {
		return
	}
	sf.alive = false
	e.dropBlocker(sf.id)
	delete(e.queues, sf.id)
	delete(e.surfaces, sf.id)

	if e.cursorSurface == sf {
		e.cursorSurface = nil
	}
	if e.dragIconSurface == sf {
		e.dragIconSurface = nil
	}

	if win := e.WindowForSurface(sf); win != nil {
		e.UnmapWindow(win)
		delete(e.windows, win.id)
	}

	e.validateFocus()
}

// AddSpace creates a named space. Space names are unique per engine.
func (e *Engine) AddSpace(name string) (*Space, error) {
	if _, ok := e.spaces[name]; ok {
		return nil, fmt.Errorf("space %q: %w", name, ErrConfigurationConflict)
	}
	sp := NewSpace(name)
	e.spaces[name] = sp
	e.spaceOrder = append(e.spaceOrder, name)
	return sp, nil
}

// Space resolves a space by name.
func (e *Engine) Space(name string) (*Space, bool) {
	sp, ok := e.spaces[name]
	return sp, ok
}

// SpaceNames returns the spaces in creation order.
func (e *Engine) SpaceNames() []string {
	out := make([]string, len(e.spaceOrder))
	copy(out, e.spaceOrder)
	return out
}

// firstSpace returns the oldest space, which doubles as the default
// placement target for unassigned windows.
func (e *Engine) firstSpace() *Space {
	if len(e.spaceOrder) == 0 {
		return nil
	}
	return e.spaces[e.spaceOrder[0]]
}

// DefaultSpaceName returns the name of the default placement space.
func (e *Engine) DefaultSpaceName() string {
	if len(e.spaceOrder) == 0 {
		return ""
	}
	return e.spaceOrder[0]
}

// Output resolves an output by name.
func (e *Engine) Output(name string) (*Output, bool) {
	o, ok := e.outputs[name]
	return o, ok
}

// OutputAdded attaches an output to a space and re-lays the space out. An
// output belongs to at most one space at a time; attaching it elsewhere is a
// configuration conflict.
func (e *Engine) OutputAdded(spaceName string, out *Output) error {
	sp, ok := e.spaces[spaceName]
	if !ok {
		return fmt.Errorf("space %q not found: %w", spaceName, ErrConfigurationConflict)
	}
	if owner, ok := e.outputSpace[out.Name]; ok && owner != spaceName {
		return fmt.Errorf("output %q already owned by space %q: %w", out.Name, owner, ErrConfigurationConflict)
	}
	e.outputs[out.Name] = out
	e.outputSpace[out.Name] = spaceName
	sp.addOutput(out.Name)

	e.FixupPositions(spaceName)
	e.notifyConnectorChange()
	return nil
}

// OutputRemoved detaches an output. Windows stranded on it are re-homed by
// the fixup pass.
func (e *Engine) OutputRemoved(name string) {
	spaceName, ok := e.outputSpace[name]
	if !ok {
		return
	}
	delete(e.outputSpace, name)
	delete(e.outputs, name)
	if sp, ok := e.spaces[spaceName]; ok {
		sp.removeOutput(name)
		e.FixupPositions(spaceName)
	}
	e.notifyConnectorChange()
}

// OutputModeChanged applies a new nominal mode size and re-lays the owning
// space out.
func (e *Engine) OutputModeChanged(name string, size geometry.Size) {
	out, ok := e.outputs[name]
	if !ok {
		e.logger.Warn("mode change for unknown output", "output", name)
		return
	}
	out.Size = size
	if spaceName, ok := e.outputSpace[name]; ok {
		e.FixupPositions(spaceName)
	}
	e.notifyConnectorChange()
}

func (e *Engine) notifyConnectorChange() {
	if e.hooks.OnConnectorChange == nil {
		return
	}
	infos := make([]OutputInfo, 0, len(e.outputs))
	for _, name := range e.outputNames() {
		out := e.outputs[name]
		infos = append(infos, OutputInfo{Name: out.Name, Geometry: out.Geometry(), Scale: out.Scale})
	}
	hook := e.hooks.OnConnectorChange
	e.post(func() { hook(infos) })
}

func (e *Engine) outputNames() []string {
	names := make([]string, 0, len(e.outputs))
	for _, spaceName := range e.spaceOrder {
		for _, n := range e.spaces[spaceName].outputs {
			names = append(names, n)
		}
	}
	return names
}

// RegisterWindow assigns the window an id and tracks it. Mapping is a
// separate step.
func (e *Engine) RegisterWindow(w *Window) WindowID {
	if w.id != 0 {
		return w.id
	}
	e.nextWindowID++
	w.id = e.nextWindowID
	e.windows[w.id] = w
	return w.id
}

// Window resolves a window id.
func (e *Engine) Window(id WindowID) (*Window, bool) {
	w, ok := e.windows[id]
	return w, ok
}

// MapWindow attaches the window to a space at loc. A window mapped elsewhere
// is moved; the single-owner invariant holds across the move.
func (e *Engine) MapWindow(spaceName string, w *Window, loc geometry.Point, raise bool) error {
	sp, ok := e.spaces[spaceName]
	if !ok {
		return fmt.Errorf("space %q not found: %w", spaceName, ErrConfigurationConflict)
	}
	e.RegisterWindow(w)
	if cur := e.SpaceOfWindow(w); cur != nil && cur != sp {
		cur.unmapWindow(w.id)
	}
	sp.mapWindow(w.id, loc, raise)
	w.mapped = true
	e.scheduleRedrawSpace(sp)
	return nil
}

// UnmapWindow detaches the window from its space without destroying it.
func (e *Engine) UnmapWindow(w *Window) {
	sp := e.SpaceOfWindow(w)
	if sp == nil {
		w.mapped = false
		return
	}
	sp.unmapWindow(w.id)
	w.mapped = false
	e.scheduleRedrawSpace(sp)
}

// SpaceOfWindow returns the space owning the window, nil when unmapped.
func (e *Engine) SpaceOfWindow(w *Window) *Space {
	if w == nil || w.id == 0 {
		return nil
	}
	for _, name := range e.spaceOrder {
		if e.spaces[name].Contains(w.id) {
			return e.spaces[name]
		}
	}
	return nil
}

// WindowForSurface returns the window whose root surface is sf's tree root,
// nil when the surface does not belong to a window.
func (e *Engine) WindowForSurface(sf *Surface) *Window {
	if sf == nil {
		return nil
	}
	root := sf.Root()
	for _, w := range e.windows {
		if w.native == root {
			return w
		}
	}
	return nil
}

// LookupWindowByName resolves a textual identifier to a live window, used by
// the administrative boundary. Topmost windows win; the title is matched
// first, then the application id.
func (e *Engine) LookupWindowByName(name string) *Window {
	var byAppID *Window
	for _, spaceName := range e.spaceOrder {
		sp := e.spaces[spaceName]
		wins := sp.Windows()
		for i := len(wins) - 1; i >= 0; i-- {
			w, ok := e.windows[wins[i]]
			if !ok || !w.Alive() {
				continue
			}
			if w.name == name {
				return w
			}
			if byAppID == nil && w.appID == name {
				byAppID = w
			}
		}
	}
	return byAppID
}

// SetCursorSurface installs the active cursor image surface.
func (e *Engine) SetCursorSurface(sf *Surface, hotspot geometry.Point) {
	if sf != nil {
		sf.role = RoleCursor
	}
	e.cursorSurface = sf
	e.cursorHotspot = hotspot
}

// CursorHotspot returns the cursor image hotspot.
func (e *Engine) CursorHotspot() geometry.Point { return e.cursorHotspot }

// SetDragIcon installs the active drag-and-drop icon surface.
func (e *Engine) SetDragIcon(sf *Surface, offset geometry.Point) {
	if sf != nil {
		sf.role = RoleDragIcon
	}
	e.dragIconSurface = sf
	e.dragIconOffset = offset
}

// DragIconOffset returns the drag icon's offset.
func (e *Engine) DragIconOffset() geometry.Point { return e.dragIconOffset }

func (e *Engine) scheduleRedrawSpace(sp *Space) {
	if sp == nil {
		return
	}
	for _, name := range sp.outputs {
		e.renderer.ScheduleRedraw(name)
	}
}

// Spawn hands a command to the external process collaborator.
func (e *Engine) Spawn(command string) {
	if e.spawner == nil {
		e.logger.Warn("no spawner configured", "command", command)
		return
	}
	e.logger.Info("starting program", "command", command)
	if err := e.spawner.Spawn(command); err != nil {
		e.logger.Error("failed to start program", "command", command, "error", err)
	}
}
