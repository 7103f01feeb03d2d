package xwm

import (
	"bytes"
	"testing"

	"github.com/Dirli-V/scape/internal/comp"
)

type closeBuffer struct {
	bytes.Buffer
	closed bool
}

func (b *closeBuffer) Close() error {
	b.closed = true
	return nil
}

func TestNativeSelectionMirroredToLegacy(t *testing.T) {
	wm, e, conn := newTestWM(t)

	e.SetSelection(comp.SelectionClipboard, comp.SideNative,
		[]string{"text/plain", "text/html"}, nil)

	mimes, ok := conn.owned[comp.SelectionClipboard]
	if !ok {
		t.Fatalf("native selection not mirrored")
	}
	if len(mimes) != 2 {
		t.Fatalf("mirrored mimes = %v", mimes)
	}
	_ = wm
}

func TestLegacySelectionReachableFromNative(t *testing.T) {
	wm, e, conn := newTestWM(t)
	conn.convData["text/plain"] = "from the other side"

	wm.HandleSelectionOwner(comp.SelectionClipboard, []string{"text/plain"})

	offer, ok := e.Selection(comp.SelectionClipboard)
	if !ok || offer.Side != comp.SideLegacy {
		t.Fatalf("offer = %+v ok=%v", offer, ok)
	}

	var dst closeBuffer
	if err := e.RequestSelection(comp.SelectionClipboard, "text/plain", &dst); err != nil {
		t.Fatalf("RequestSelection: %v", err)
	}
	if dst.String() != "from the other side" {
		t.Fatalf("transferred %q", dst.String())
	}
	if !dst.closed {
		t.Fatalf("destination not closed")
	}
}

func TestStaleLegacyClearIgnored(t *testing.T) {
	wm, e, _ := newTestWM(t)

	wm.HandleSelectionOwner(comp.SelectionClipboard, []string{"text/plain"})
	// Ownership moves natively before the legacy clear arrives.
	e.SetSelection(comp.SelectionClipboard, comp.SideNative, []string{"text/html"}, nil)

	wm.HandleSelectionClear(comp.SelectionClipboard)

	offer, ok := e.Selection(comp.SelectionClipboard)
	if !ok || offer.Side != comp.SideNative {
		t.Fatalf("stale clear wiped native owner: %+v ok=%v", offer, ok)
	}
}

func TestLegacyClearWithCurrentIdentity(t *testing.T) {
	wm, e, conn := newTestWM(t)

	wm.HandleSelectionOwner(comp.SelectionPrimary, []string{"text/plain"})
	wm.HandleSelectionClear(comp.SelectionPrimary)

	if _, ok := e.Selection(comp.SelectionPrimary); ok {
		t.Fatalf("selection still owned after clear")
	}
	if len(conn.disowned) == 0 {
		t.Fatalf("legacy side not told about the cleared selection")
	}
}

func TestBothSelectionsBridgeIndependently(t *testing.T) {
	wm, e, conn := newTestWM(t)

	wm.HandleSelectionOwner(comp.SelectionClipboard, []string{"text/plain"})
	e.SetSelection(comp.SelectionPrimary, comp.SideNative, []string{"text/plain"}, nil)

	clip, _ := e.Selection(comp.SelectionClipboard)
	if clip.Side != comp.SideLegacy {
		t.Fatalf("clipboard side = %v", clip.Side)
	}
	if _, ok := conn.owned[comp.SelectionPrimary]; !ok {
		t.Fatalf("primary not mirrored to legacy side")
	}
	if _, ok := conn.owned[comp.SelectionClipboard]; ok {
		t.Fatalf("legacy-owned clipboard mirrored back at itself")
	}
}
