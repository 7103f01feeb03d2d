package xwm

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

var ignoreModsOnce sync.Once

// BindKey grabs a key combination on the root window and runs fn on the
// compositor loop whenever it is pressed. Combinations use xgbutil syntax,
// e.g. "Mod4-Return".
func (c *X11Conn) BindKey(combo string, fn func()) error {
	ignoreModsOnce.Do(func() {
		keybind.Initialize(c.xu)
		configureIgnoreMods(c.xu)
	})

	err := keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		c.loop.Post(fn)
	}).Connect(c.xu, c.xu.RootWin(), combo, true)
	if err != nil {
		return fmt.Errorf("grab %q: %w", combo, err)
	}
	return nil
}

// configureIgnoreMods makes grabs fire regardless of lock-key state by
// registering every combination of CapsLock, NumLock and ScrollLock as an
// ignorable modifier set.
func configureIgnoreMods(xu *xgbutil.XUtil) {
	caps := uint16(xproto.ModMaskLock)
	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := map[uint16]struct{}{0: {}}

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		unique[mask] = struct{}{}
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}
	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
