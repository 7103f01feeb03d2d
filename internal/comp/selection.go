package comp

import (
	"fmt"
	"io"
)

// selectionRecord is the engine-side ownership state of one selection.
type selectionRecord struct {
	side     SelectionSide
	mimes    []string
	source   SelectionSource
	identity uint64
}

// SelectionOffer is the observable state of one selection.
type SelectionOffer struct {
	Kind      SelectionKind
	Side      SelectionSide
	MimeTypes []string
}

// SelectionObserver is notified whenever a selection's ownership or offer
// changes. The interop bridge registers one to mirror native selections to
// legacy clients.
type SelectionObserver func(offer SelectionOffer)

func selectionIndex(kind SelectionKind) int {
	if kind == SelectionPrimary {
		return 1
	}
	return 0
}

// WatchSelections registers an observer for selection changes.
func (e *Engine) WatchSelections(obs SelectionObserver) {
	e.selectionWatch = append(e.selectionWatch, obs)
}

func (e *Engine) notifySelection(kind SelectionKind) {
	offer, _ := e.Selection(kind)
	for _, obs := range e.selectionWatch {
		obs(offer)
	}
}

// SetSelection installs a new selection owner and returns an identity token
// for the grant. Whoever later clears the selection must present the token;
// that keeps a stale clear from wiping a newer owner.
func (e *Engine) SetSelection(kind SelectionKind, side SelectionSide, mimes []string, source SelectionSource) uint64 {
	e.selectionSerial++
	id := e.selectionSerial
	rec := &e.selections[selectionIndex(kind)]
	rec.side = side
	rec.mimes = append([]string(nil), mimes...)
	rec.source = source
	rec.identity = id
	e.logger.Debug("selection changed", "kind", kind, "side", side, "mimes", len(mimes))
	e.notifySelection(kind)
	return id
}

// ClearSelection drops the selection if identity still names the current
// owner. A mismatched identity is a no-op.
func (e *Engine) ClearSelection(kind SelectionKind, identity uint64) {
	rec := &e.selections[selectionIndex(kind)]
	if rec.identity != identity || rec.side == SideNone {
		return
	}
	*rec = selectionRecord{}
	e.logger.Debug("selection cleared", "kind", kind)
	e.notifySelection(kind)
}

// Selection returns the current offer for a selection. ok is false when the
// selection is unowned.
func (e *Engine) Selection(kind SelectionKind) (SelectionOffer, bool) {
	rec := e.selections[selectionIndex(kind)]
	offer := SelectionOffer{
		Kind:      kind,
		Side:      rec.side,
		MimeTypes: append([]string(nil), rec.mimes...),
	}
	return offer, rec.side != SideNone
}

// RequestSelection pipes the selection's data for one mime type into dst.
// dst is closed by the source when the transfer completes.
func (e *Engine) RequestSelection(kind SelectionKind, mimeType string, dst io.WriteCloser) error {
	rec := e.selections[selectionIndex(kind)]
	if rec.side == SideNone || rec.source == nil {
		dst.Close()
		return fmt.Errorf("selection %s unowned: %w", kind, ErrResourceGone)
	}
	offered := false
	for _, m := range rec.mimes {
		if m == mimeType {
			offered = true
			break
		}
	}
	if !offered {
		dst.Close()
		return fmt.Errorf("mime type %q not offered for %s selection: %w", mimeType, kind, ErrProtocolViolation)
	}
	return rec.source.Send(mimeType, dst)
}
