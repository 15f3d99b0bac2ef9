// Package input synthesizes pointer and keyboard events for the focused desktop.
package input

// Injector defines the input operations used by the device controller.
// Coordinates are absolute screen pixels.
type Injector interface {
	MoveAbs(x, y int) error
	LeftDown() error
	LeftUp() error
	KeyPress(k Key) error
	TypeUnicode(text string) error
}
