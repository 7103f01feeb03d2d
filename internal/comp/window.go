package comp

import (
	"github.com/Dirli-V/scape/internal/geometry"
)

// Window wraps either a native surface tree or a legacy-protocol surface.
// Exactly one of native/legacy is set. A mapped window is owned by exactly
// one space; unmapped windows are detached, not destroyed, until their
// underlying surface dies.
type Window struct {
	id    WindowID
	name  string
	appID string

	native *Surface
	legacy LegacyWindow

	// Decorated is the client's own decoration preference; SSD is whether
	// the compositor currently draws synthetic decorations for it.
	Decorated bool
	SSD       bool

	Maximized  bool
	Fullscreen bool

	savedGeometry *geometry.Rect

	size   geometry.Size
	mapped bool

	closeRequest func()

	// decoration receives input routed to the synthetic decoration area.
	decoration decorationState
}

// decorationState buffers input on the synthetic decoration so the shell
// layer can turn presses into move/resize grabs.
type decorationState struct {
	pointer geometry.Point
	pressed map[uint32]bool
}

// NewNativeWindow wraps a native surface tree root.
func NewNativeWindow(root *Surface) *Window {
	return &Window{native: root, Decorated: true}
}

// NewLegacyWindow wraps a legacy-protocol surface.
func NewLegacyWindow(lw LegacyWindow) *Window {
	return &Window{legacy: lw, Decorated: lw.Decorated()}
}

// ID returns the window identifier. Zero until the window is registered
// with an engine.
func (w *Window) ID() WindowID { return w.id }

// Name returns the window title used for lookup-by-name.
func (w *Window) Name() string { return w.name }

// SetName updates the window title.
func (w *Window) SetName(name string) { w.name = name }

// AppID returns the application identifier.
func (w *Window) AppID() string { return w.appID }

// SetAppID updates the application identifier.
func (w *Window) SetAppID(id string) { w.appID = id }

// IsLegacy reports whether the window lives on the legacy protocol.
func (w *Window) IsLegacy() bool { return w.legacy != nil }

// Native returns the native surface tree root, nil for legacy windows.
func (w *Window) Native() *Surface { return w.native }

// Legacy returns the legacy surface handle, nil for native windows.
func (w *Window) Legacy() LegacyWindow { return w.legacy }

// Mapped reports whether the window is currently owned by a space.
func (w *Window) Mapped() bool { return w.mapped }

// Size returns the window's logical size.
func (w *Window) Size() geometry.Size { return w.size }

// SetSize updates the window's logical size.
func (w *Window) SetSize(s geometry.Size) { w.size = s }

// Alive reports whether the underlying surface still exists.
func (w *Window) Alive() bool {
	if w.legacy != nil {
		return w.legacy.Alive()
	}
	return w.native != nil && w.native.Alive()
}

// Client returns the owning client connection.
func (w *Window) Client() ClientID {
	if w.legacy != nil {
		return w.legacy.Client()
	}
	if w.native != nil {
		return w.native.Client()
	}
	return 0
}

// SaveGeometry snapshots the window's geometry for a later restore.
func (w *Window) SaveGeometry(r geometry.Rect) {
	saved := r
	w.savedGeometry = &saved
}

// RestoreGeometry takes the saved snapshot, if any. The snapshot is consumed.
func (w *Window) RestoreGeometry() (geometry.Rect, bool) {
	if w.savedGeometry == nil {
		return geometry.Rect{}, false
	}
	out := *w.savedGeometry
	w.savedGeometry = nil
	return out, true
}

// SendConfigure proposes a geometry to the client through whichever protocol
// the window speaks.
func (w *Window) SendConfigure(r geometry.Rect) error {
	if w.legacy != nil {
		return w.legacy.SendConfigure(r)
	}
	if w.native != nil && w.native.configure != nil {
		w.native.configure(r)
		return nil
	}
	return ErrResourceGone
}

// SetCloseRequest installs the transport's close delivery for a native
// window.
func (w *Window) SetCloseRequest(fn func()) { w.closeRequest = fn }

// RequestClose asks the client to close the window.
func (w *Window) RequestClose() error {
	if w.legacy != nil {
		return w.legacy.Close()
	}
	if w.closeRequest != nil {
		w.closeRequest()
		return nil
	}
	return ErrResourceGone
}

// sink returns the input sink for the window's content surface.
func (w *Window) sink() EventSink {
	if w.legacy != nil {
		return w.legacy
	}
	if w.native != nil {
		return w.native.Sink()
	}
	return discardSink{}
}

// RootSurface returns the surface commits are matched against: the native
// tree root, or nil for legacy windows (their commits arrive through the
// bridge's association surface).
func (w *Window) RootSurface() *Surface { return w.native }
