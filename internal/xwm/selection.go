package xwm

import (
	"io"

	"github.com/Dirli-V/scape/internal/comp"
)

// selectionBridge mirrors the clipboard and primary selections between the
// native side and legacy clients. Ownership lives in the engine; the bridge
// only translates.
type selectionBridge struct {
	wm *WM

	// identities are the grant tokens for selections the bridge installed
	// on behalf of legacy owners, per selection kind.
	identities [2]uint64
}

func selIdx(kind comp.SelectionKind) int {
	if kind == comp.SelectionPrimary {
		return 1
	}
	return 0
}

// InitSelections hooks the bridge into the engine's selection changes.
func (wm *WM) InitSelections() {
	b := &selectionBridge{wm: wm}
	wm.sel = b
	wm.engine.WatchSelections(b.onChange)
}

// onChange mirrors native ownership to the legacy side. Legacy-owned
// changes originate here, so only the other direction is forwarded.
func (b *selectionBridge) onChange(offer comp.SelectionOffer) {
	switch offer.Side {
	case comp.SideNative:
		if err := b.wm.conn.OwnSelection(offer.Kind, offer.MimeTypes); err != nil {
			b.wm.logger.Warn("selection mirror failed", "kind", offer.Kind, "error", err)
		}
	case comp.SideNone:
		if err := b.wm.conn.DisownSelection(offer.Kind); err != nil {
			b.wm.logger.Debug("selection disown failed", "kind", offer.Kind, "error", err)
		}
	}
}

// HandleSelectionOwner records a legacy client taking a selection. The
// engine hands back an identity token used to validate a later clear.
func (wm *WM) HandleSelectionOwner(kind comp.SelectionKind, mimes []string) {
	id := wm.engine.SetSelection(kind, comp.SideLegacy, mimes, legacySource{wm: wm, kind: kind})
	wm.sel.identities[selIdx(kind)] = id
}

// HandleSelectionClear handles the legacy owner going away. The stored
// identity keeps a stale clear from wiping a selection someone else took in
// the meantime.
func (wm *WM) HandleSelectionClear(kind comp.SelectionKind) {
	wm.engine.ClearSelection(kind, wm.sel.identities[selIdx(kind)])
}

// HandleSelectionRequest pipes selection data to a legacy client asking for
// the current selection.
func (wm *WM) HandleSelectionRequest(kind comp.SelectionKind, mimeType string, dst io.WriteCloser) {
	if err := wm.engine.RequestSelection(kind, mimeType, dst); err != nil {
		wm.logger.Warn("selection transfer failed", "kind", kind, "mime", mimeType, "error", err)
	}
}

// legacySource serves native-side requests for a selection a legacy client
// owns by converting through the X server.
type legacySource struct {
	wm   *WM
	kind comp.SelectionKind
}

func (s legacySource) Send(mimeType string, dst io.WriteCloser) error {
	return s.wm.conn.ConvertSelection(s.kind, mimeType, dst)
}
