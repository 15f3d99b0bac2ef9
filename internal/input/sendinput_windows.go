//go:build windows

package input

import (
	"errors"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
)

// ErrUnsupported is never returned on Windows; declared for API parity.
var ErrUnsupported = errors.New("input injection unsupported")

// WinInjector injects mouse and keyboard input using SendInput.
type WinInjector struct{}

// NewInjector returns a Windows input injector.
func NewInjector() (Injector, error) {
	return &WinInjector{}, nil
}

// keyboardInput pads KEYBD_INPUT to the size of the INPUT union, which is
// the size of its largest member (the mouse variant).
type keyboardInput struct {
	win.KEYBD_INPUT
	_ [8]byte
}

var sizeofInput = int32(unsafe.Sizeof(win.MOUSE_INPUT{}))

// sendMouseInput dispatches a single mouse input event.
func sendMouseInput(flags uint32, dx, dy int32, data uint32) error {
	input := win.MOUSE_INPUT{
		Type: win.INPUT_MOUSE,
		Mi: win.MOUSEINPUT{
			Dx:        dx,
			Dy:        dy,
			MouseData: data,
			DwFlags:   flags,
		},
	}
	return sendInput(unsafe.Pointer(&input))
}

// sendKeyboardInput dispatches a single keyboard input event.
func sendKeyboardInput(key win.KEYBDINPUT) error {
	input := keyboardInput{
		KEYBD_INPUT: win.KEYBD_INPUT{
			Type: win.INPUT_KEYBOARD,
			Ki:   key,
		},
	}
	return sendInput(unsafe.Pointer(&input))
}

// sendInput returns the thread error when UIPI or a desktop switch blocks the event.
func sendInput(input unsafe.Pointer) error {
	if win.SendInput(1, input, sizeofInput) != 1 {
		if code := win.GetLastError(); code != 0 {
			return syscall.Errno(code)
		}
		return errors.New("SendInput blocked")
	}
	return nil
}
