package comp

import (
	"log/slog"

	"github.com/Dirli-V/scape/internal/geometry"
)

// Popup is a short-lived surface positioned relative to a parent surface.
type Popup struct {
	surface *Surface
	parent  *Surface
	Offset  geometry.Point
}

// NewPopup wraps a surface in the popup role.
func NewPopup(sf, parent *Surface, offset geometry.Point) *Popup {
	sf.role = RolePopup
	return &Popup{surface: sf, parent: parent, Offset: offset}
}

// Surface returns the backing surface.
func (p *Popup) Surface() *Surface { return p.surface }

// Parent returns the surface this popup is positioned against.
func (p *Popup) Parent() *Surface { return p.parent }

// Alive reports whether the backing surface still exists.
func (p *Popup) Alive() bool { return p.surface.Alive() }

// PopupManager tracks live popups per engine. The commit pipeline calls into
// it for bookkeeping on every commit; it prunes popups whose surface or
// parent died.
type PopupManager struct {
	popups []*Popup
	logger *slog.Logger
}

// NewPopupManager returns an empty manager.
func NewPopupManager(logger *slog.Logger) *PopupManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &PopupManager{logger: logger}
}

// Track registers a popup.
func (pm *PopupManager) Track(p *Popup) {
	pm.popups = append(pm.popups, p)
}

// Find returns the popup backed by sf, or nil.
func (pm *PopupManager) Find(sf *Surface) *Popup {
	for _, p := range pm.popups {
		if p.surface == sf {
			return p
		}
	}
	return nil
}

// Commit is the per-commit bookkeeping pass: dead popups (or popups whose
// parent died) are dropped from tracking.
func (pm *PopupManager) Commit(sf *Surface) {
	kept := pm.popups[:0]
	for _, p := range pm.popups {
		if !p.Alive() || (p.parent != nil && !p.parent.Alive()) {
			pm.logger.Debug("dropping dead popup", "surface", p.surface.ID())
			continue
		}
		kept = append(kept, p)
	}
	pm.popups = kept
	_ = sf
}
