//go:build windows

package input

import (
	"fmt"
	"unicode/utf16"

	"github.com/lxn/win"
)

// extendedKeys need KEYEVENTF_EXTENDEDKEY so they are not read as numpad keys.
var extendedKeys = map[Key]bool{
	KeyUp: true, KeyDown: true, KeyLeft: true, KeyRight: true,
	KeyHome: true, KeyEnd: true, KeyPageUp: true, KeyPageDown: true,
	KeyInsert: true, KeyDelete: true,
}

var virtualKeys = map[Key]uint16{
	KeyEnter:     win.VK_RETURN,
	KeyEscape:    win.VK_ESCAPE,
	KeyBackspace: win.VK_BACK,
	KeyTab:       win.VK_TAB,
	KeySpace:     win.VK_SPACE,
	KeyUp:        win.VK_UP,
	KeyDown:      win.VK_DOWN,
	KeyLeft:      win.VK_LEFT,
	KeyRight:     win.VK_RIGHT,
	KeyHome:      win.VK_HOME,
	KeyEnd:       win.VK_END,
	KeyPageUp:    win.VK_PRIOR,
	KeyPageDown:  win.VK_NEXT,
	KeyInsert:    win.VK_INSERT,
	KeyDelete:    win.VK_DELETE,
}

// virtualKey maps a Key to its Windows virtual-key code.
func virtualKey(k Key) (uint16, bool) {
	switch {
	case k >= KeyA && k <= KeyZ:
		return uint16('A' + int(k-KeyA)), true
	case k >= Key0 && k <= Key9:
		return uint16('0' + int(k-Key0)), true
	case k >= KeyF1 && k <= KeyF12:
		return uint16(win.VK_F1 + int(k-KeyF1)), true
	}
	vk, ok := virtualKeys[k]
	return vk, ok
}

// KeyPress sends a press and release of a named key.
func (w *WinInjector) KeyPress(k Key) error {
	vk, ok := virtualKey(k)
	if !ok {
		return fmt.Errorf("no virtual key for %s", k)
	}
	var flags uint32
	if extendedKeys[k] {
		flags = win.KEYEVENTF_EXTENDEDKEY
	}
	if err := sendKeyboardInput(win.KEYBDINPUT{WVk: vk, DwFlags: flags}); err != nil {
		return err
	}
	return sendKeyboardInput(win.KEYBDINPUT{WVk: vk, DwFlags: flags | win.KEYEVENTF_KEYUP})
}

// TypeUnicode types text as KEYEVENTF_UNICODE events, one UTF-16 unit at a time.
func (w *WinInjector) TypeUnicode(text string) error {
	if text == "" {
		return nil
	}
	for _, code := range utf16.Encode([]rune(text)) {
		if err := sendKeyboardInput(win.KEYBDINPUT{WScan: code, DwFlags: win.KEYEVENTF_UNICODE}); err != nil {
			return err
		}
		if err := sendKeyboardInput(win.KEYBDINPUT{WScan: code, DwFlags: win.KEYEVENTF_UNICODE | win.KEYEVENTF_KEYUP}); err != nil {
			return err
		}
	}
	return nil
}
