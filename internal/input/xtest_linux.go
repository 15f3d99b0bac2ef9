//go:build linux

package input

import (
	"errors"
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
)

// ErrUnsupported indicates the X server lacks the XTEST extension.
var ErrUnsupported = errors.New("XTEST extension unavailable")

const leftButton = 1

var keysyms = map[Key]xproto.Keysym{
	KeyEnter:     0xff0d,
	KeyEscape:    0xff1b,
	KeyBackspace: 0xff08,
	KeyTab:       0xff09,
	KeySpace:     0x0020,
	KeyUp:        0xff52,
	KeyDown:      0xff54,
	KeyLeft:      0xff51,
	KeyRight:     0xff53,
	KeyHome:      0xff50,
	KeyEnd:       0xff57,
	KeyPageUp:    0xff55,
	KeyPageDown:  0xff56,
	KeyInsert:    0xff63,
	KeyDelete:    0xffff,
}

// X11Injector injects input through the XTEST extension.
type X11Injector struct {
	mu      sync.Mutex
	xu      *xgbutil.XUtil
	shift   xproto.Keycode
	scratch xproto.Keycode
}

// NewInjector connects to $DISPLAY and initializes XTEST.
func NewInjector() (Injector, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect X server: %w", err)
	}
	if err := xtest.Init(xu.Conn()); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	keybind.Initialize(xu)

	inj := &X11Injector{xu: xu}
	if codes := keybind.StrToKeycodes(xu, "Shift_L"); len(codes) > 0 {
		inj.shift = codes[0]
	}
	inj.scratch = inj.findScratchKeycode()
	return inj, nil
}

// MoveAbs warps the pointer to an absolute root-window coordinate.
func (x *X11Injector) MoveAbs(px, py int) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return xtest.FakeInputChecked(x.xu.Conn(), xproto.MotionNotify, 0, 0, x.xu.RootWin(), int16(px), int16(py), 0).Check()
}

// LeftDown presses the left mouse button.
func (x *X11Injector) LeftDown() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.fake(xproto.ButtonPress, leftButton)
}

// LeftUp releases the left mouse button.
func (x *X11Injector) LeftUp() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.fake(xproto.ButtonRelease, leftButton)
}

// KeyPress sends a press and release of a named key.
func (x *X11Injector) KeyPress(k Key) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	sym, ok := keysymFor(k)
	if !ok {
		return fmt.Errorf("no keysym for %s", k)
	}
	code, shifted, ok := x.lookup(sym)
	if !ok {
		return fmt.Errorf("keysym 0x%x not in keyboard map", uint32(sym))
	}
	return x.tap(code, shifted)
}

// TypeUnicode types text rune by rune. Runes missing from the keyboard map
// are bound to a scratch keycode first.
func (x *X11Injector) TypeUnicode(text string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, r := range text {
		sym := runeKeysym(r)
		code, shifted, ok := x.lookup(sym)
		if !ok {
			if err := x.bindScratch(sym); err != nil {
				return err
			}
			code, shifted = x.scratch, false
		}
		if err := x.tap(code, shifted); err != nil {
			return err
		}
	}
	return nil
}

// tap presses and releases a keycode, holding shift when the keysym sits in the shifted column.
func (x *X11Injector) tap(code xproto.Keycode, shifted bool) error {
	if shifted && x.shift != 0 {
		if err := x.fake(xproto.KeyPress, byte(x.shift)); err != nil {
			return err
		}
		defer x.fake(xproto.KeyRelease, byte(x.shift))
	}
	if err := x.fake(xproto.KeyPress, byte(code)); err != nil {
		return err
	}
	return x.fake(xproto.KeyRelease, byte(code))
}

func (x *X11Injector) fake(kind byte, detail byte) error {
	return xtest.FakeInputChecked(x.xu.Conn(), kind, detail, 0, x.xu.RootWin(), 0, 0, 0).Check()
}

// lookup finds a keycode producing sym in the unshifted or shifted column.
func (x *X11Injector) lookup(sym xproto.Keysym) (xproto.Keycode, bool, bool) {
	setup := xproto.Setup(x.xu.Conn())
	for kc := int(setup.MinKeycode); kc <= int(setup.MaxKeycode); kc++ {
		code := xproto.Keycode(kc)
		if code == x.scratch {
			continue
		}
		if keybind.KeysymGet(x.xu, code, 0) == sym {
			return code, false, true
		}
		if keybind.KeysymGet(x.xu, code, 1) == sym {
			return code, true, true
		}
	}
	return 0, false, false
}

// findScratchKeycode picks the highest keycode with no keysyms bound.
func (x *X11Injector) findScratchKeycode() xproto.Keycode {
	setup := xproto.Setup(x.xu.Conn())
	for kc := int(setup.MaxKeycode); kc >= int(setup.MinKeycode); kc-- {
		code := xproto.Keycode(kc)
		if keybind.KeysymGet(x.xu, code, 0) == 0 && keybind.KeysymGet(x.xu, code, 1) == 0 {
			return code
		}
	}
	return setup.MaxKeycode
}

// bindScratch maps the scratch keycode to sym for one keystroke.
func (x *X11Injector) bindScratch(sym xproto.Keysym) error {
	per := keybind.KeyMapGet(x.xu).KeysymsPerKeycode
	syms := make([]xproto.Keysym, per)
	for i := range syms {
		syms[i] = sym
	}
	err := xproto.ChangeKeyboardMappingChecked(x.xu.Conn(), 1, x.scratch, per, syms).Check()
	if err != nil {
		return fmt.Errorf("bind keysym 0x%x: %w", uint32(sym), err)
	}
	x.xu.Sync()
	return nil
}

func keysymFor(k Key) (xproto.Keysym, bool) {
	switch {
	case k >= KeyA && k <= KeyZ:
		return xproto.Keysym('a' + int(k-KeyA)), true
	case k >= Key0 && k <= Key9:
		return xproto.Keysym('0' + int(k-Key0)), true
	case k >= KeyF1 && k <= KeyF12:
		return xproto.Keysym(0xffbe + int(k-KeyF1)), true
	}
	sym, ok := keysyms[k]
	return sym, ok
}

// runeKeysym follows the X11 convention: Latin-1 runes are their own keysym,
// everything else lives at 0x01000000 + codepoint. Control characters map to function keysyms.
func runeKeysym(r rune) xproto.Keysym {
	switch r {
	case '\n', '\r':
		return 0xff0d
	case '\t':
		return 0xff09
	case '\b':
		return 0xff08
	}
	if r >= 0x20 && r <= 0xff {
		return xproto.Keysym(r)
	}
	return xproto.Keysym(0x01000000 + int(r))
}
