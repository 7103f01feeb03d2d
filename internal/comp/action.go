package comp

import (
	"github.com/Dirli-V/scape/internal/geometry"
)

// ActionKind enumerates the bindable compositor actions.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionQuit
	ActionSpawn
	ActionFocusOrSpawn
	ActionMoveWindow
	ActionCloseWindow
	ActionTab
)

func (k ActionKind) String() string {
	switch k {
	case ActionQuit:
		return "quit"
	case ActionSpawn:
		return "spawn"
	case ActionFocusOrSpawn:
		return "focus-or-spawn"
	case ActionMoveWindow:
		return "move-window"
	case ActionCloseWindow:
		return "close-window"
	case ActionTab:
		return "tab"
	default:
		return "none"
	}
}

// Action is one bindable operation. Fields are populated per kind: Command
// for spawn variants, AppID for focus-or-spawn, Window/Zone/Space for window
// moves.
type Action struct {
	Kind    ActionKind
	Command string
	AppID   string
	Window  string
	Zone    string
	Space   string
}

// Execute runs an action against the engine. Unresolvable references (a
// window or zone that no longer exists) are logged and dropped; an action
// never takes the process down.
func (e *Engine) Execute(a Action) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("action failed", "action", a.Kind, "panic", r)
		}
	}()

	switch a.Kind {
	case ActionNone:
	case ActionQuit:
		if e.hooks.OnQuit != nil {
			e.hooks.OnQuit()
		} else {
			e.logger.Warn("quit requested but no quit hook installed")
		}
	case ActionSpawn:
		e.Spawn(a.Command)
	case ActionFocusOrSpawn:
		if w := e.findByAppID(a.AppID); w != nil {
			e.FocusWindow(w)
			return
		}
		e.Spawn(a.Command)
	case ActionMoveWindow:
		e.moveWindowAction(a)
	case ActionCloseWindow:
		w := e.actionWindow(a.Window)
		if w == nil {
			e.logger.Warn("close: window not found", "window", a.Window)
			return
		}
		if err := w.RequestClose(); err != nil {
			e.logger.Warn("close request failed", "window", w.ID(), "error", err)
		}
	case ActionTab:
		e.cycleFocus()
	default:
		e.logger.Warn("unknown action", "kind", int(a.Kind))
	}
}

// actionWindow resolves an action's window reference: by name when given,
// otherwise the keyboard-focused window.
func (e *Engine) actionWindow(name string) *Window {
	if name != "" {
		return e.LookupWindowByName(name)
	}
	w, err := AsWindow(e.keyboardFocus)
	if err != nil || !w.Alive() {
		return nil
	}
	return w
}

func (e *Engine) findByAppID(appID string) *Window {
	for _, spaceName := range e.spaceOrder {
		sp := e.spaces[spaceName]
		wins := sp.Windows()
		for i := len(wins) - 1; i >= 0; i-- {
			if w, ok := e.windows[wins[i]]; ok && w.Alive() && w.AppID() == appID {
				return w
			}
		}
	}
	return nil
}

func (e *Engine) moveWindowAction(a Action) {
	w := e.actionWindow(a.Window)
	if w == nil {
		e.logger.Warn("move: window not found", "window", a.Window)
		return
	}

	sp := e.SpaceOfWindow(w)
	if a.Space != "" {
		target, ok := e.spaces[a.Space]
		if !ok {
			e.logger.Warn("move: space not found", "space", a.Space)
			return
		}
		if target != sp {
			loc, _ := geomOrZero(sp, w)
			if err := e.MapWindow(a.Space, w, loc, true); err != nil {
				e.logger.Warn("move: remap failed", "error", err)
				return
			}
			sp = target
		}
	}
	if sp == nil {
		e.logger.Warn("move: window not mapped", "window", w.ID())
		return
	}

	rect := e.PlaceWindow(sp, w, false, a.Zone, a.Zone == "")
	if err := w.SendConfigure(rect); err != nil {
		e.logger.Warn("move: configure failed", "window", w.ID(), "error", err)
	}
	e.scheduleRedrawSpace(sp)
}

// cycleFocus sends the topmost window of the focused space to the bottom of
// the stack and focuses the window revealed underneath.
func (e *Engine) cycleFocus() {
	sp := e.focusedSpace()
	if sp == nil || len(sp.windows) < 2 {
		return
	}
	top := sp.windows[len(sp.windows)-1]
	sp.removeFromStack(top)
	sp.windows = append([]WindowID{top}, sp.windows...)
	e.FocusTopmost(sp)
	e.scheduleRedrawSpace(sp)
}

// focusedSpace is the space holding the keyboard-focused window, falling
// back to the oldest space.
func (e *Engine) focusedSpace() *Space {
	if w, err := AsWindow(e.keyboardFocus); err == nil {
		if sp := e.SpaceOfWindow(w); sp != nil {
			return sp
		}
	}
	return e.firstSpace()
}

func geomOrZero(sp *Space, w *Window) (geometry.Point, bool) {
	if sp == nil {
		return geometry.Point{}, false
	}
	return sp.locations[w.ID()], true
}
