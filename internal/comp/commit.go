package comp

import (
	"fmt"

	"github.com/Dirli-V/scape/internal/geometry"
)

// syncBlocker gates queued commits of one surface on buffer readiness. The
// fd belongs to the client buffer; the blocker only watches it.
type syncBlocker struct {
	fd int
}

// needsBlocker reports whether the staged state carries a readiness
// requirement.
func needsBlocker(st surfaceState) bool {
	if !st.hasNewBuffer || st.buffer == nil {
		return false
	}
	return st.buffer.SyncFD >= 0 || st.buffer.FenceFD >= 0
}

// OnCommit is the atomic application point for a surface's staged state.
// Commits that carry a readiness requirement are queued and gated on the
// buffer's descriptor; everything else applies immediately, behind any
// still-gated predecessors so per-surface order holds. A commit is never
// dropped: when no gate can be armed the state applies right away.
func (e *Engine) OnCommit(sf *Surface) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("commit handling failed", "surface", sf.ID(), "panic", r)
		}
	}()

	if sf == nil || !sf.alive {
		return
	}

	st := sf.takePending()
	sid := sf.ID()
	e.queues[sid] = append(e.queues[sid], st)

	if needsBlocker(st) && e.loop != nil {
		if e.armBlocker(sf, st) {
			return
		}
	}

	if _, gated := e.blockers[sid]; gated {
		// An earlier commit still waits; this one drains behind it.
		return
	}

	e.drainCommits(sf)
}

// armBlocker registers a readiness gate for the surface, replacing any older
// gate (the newest blocker decides when the whole queue drains). Returns
// false when no descriptor could be watched; the caller applies immediately.
func (e *Engine) armBlocker(sf *Surface, st surfaceState) bool {
	sid := sf.ID()
	fire := func() {
		e.dropBlocker(sid)
		e.drainCommits(sf)
	}

	if old, ok := e.blockers[sid]; ok {
		e.loop.RemoveReadSource(old.fd)
		delete(e.blockers, sid)
	}

	var err error
	if fd := st.buffer.SyncFD; fd >= 0 {
		if err = e.loop.AddReadSource(fd, fire); err == nil {
			e.blockers[sid] = &syncBlocker{fd: fd}
			return true
		}
	}
	if fd := st.buffer.FenceFD; fd >= 0 {
		if ferr := e.loop.AddReadSource(fd, fire); ferr == nil {
			e.blockers[sid] = &syncBlocker{fd: fd}
			return true
		} else if err == nil {
			err = ferr
		}
	}

	e.logger.Warn("commit synchronization unavailable, applying immediately",
		"surface", sid,
		"error", fmt.Errorf("%w: %v", ErrSynchronizationFailure, err))
	return false
}

func (e *Engine) dropBlocker(sid SurfaceID) {
	b, ok := e.blockers[sid]
	if !ok {
		return
	}
	if e.loop != nil {
		e.loop.RemoveReadSource(b.fd)
	}
	delete(e.blockers, sid)
}

// drainCommits applies every queued state of the surface in commit order.
func (e *Engine) drainCommits(sf *Surface) {
	sid := sf.ID()
	queue := e.queues[sid]
	delete(e.queues, sid)
	for _, st := range queue {
		e.applyState(sf, st)
	}
}

// applyState makes one staged state current and runs the post-apply steps:
// delta propagation, the initial configure handshake, resize completion,
// popup bookkeeping and the redraw signal.
func (e *Engine) applyState(sf *Surface, st surfaceState) {
	if !sf.alive {
		return
	}

	if st.hasNewBuffer {
		sf.current.buffer = st.buffer
		if st.buffer != nil {
			sf.size = st.buffer.Size
		} else {
			sf.size.Width, sf.size.Height = 0, 0
		}
	}

	if !st.delta.IsZero() {
		e.propagateDelta(sf, st)
	}

	e.ensureInitialConfigure(sf)

	if sf.Resize.Kind == WaitingForCommit {
		sf.Resize = ResizeState{}
	}

	e.popups.Commit(sf)

	if win := e.WindowForSurface(sf); win != nil {
		if st.hasNewBuffer && st.buffer != nil {
			win.SetSize(st.buffer.Size)
		}
		e.scheduleRedrawSpace(e.SpaceOfWindow(win))
		return
	}
	for _, name := range e.outputNames() {
		e.renderer.ScheduleRedraw(name)
	}
}

// propagateDelta moves whatever the surface anchors by the attach delta: a
// mapped window shifts, a cursor image moves its hotspot the opposite way, a
// drag icon shifts its offset. Only the anchoring surface itself propagates;
// a child surface's delta repositions the child, not the tree it sits in.
func (e *Engine) propagateDelta(sf *Surface, st surfaceState) {
	if sf.Root() != sf {
		return
	}
	switch {
	case e.cursorSurface == sf:
		e.cursorHotspot = e.cursorHotspot.Sub(st.delta)
	case e.dragIconSurface == sf:
		e.dragIconOffset = e.dragIconOffset.Add(st.delta)
	default:
		win := e.WindowForSurface(sf)
		if win == nil || !win.Mapped() || win.RootSurface() != sf {
			return
		}
		sp := e.SpaceOfWindow(win)
		if sp == nil {
			return
		}
		loc, ok := sp.Location(win.ID())
		if !ok {
			return
		}
		sp.locations[win.ID()] = loc.Add(st.delta)
	}
}

// ensureInitialConfigure sends the handshake's first configure for shell
// surfaces that have not had one yet. Mapping is not legal before this went
// out.
func (e *Engine) ensureInitialConfigure(sf *Surface) {
	if sf.initialConfigureSent || sf.configure == nil {
		return
	}
	switch sf.role {
	case RoleToplevel, RolePopup, RoleLayer, RoleLock:
	default:
		return
	}
	sf.configure(geometry.Rect{})
	sf.initialConfigureSent = true
}
