//go:build !windows && !linux

package input

import "errors"

// ErrUnsupported indicates input injection is not available on this platform.
var ErrUnsupported = errors.New("input injection is only supported on Windows and X11")

// NoopInjector is a placeholder injector for unsupported platforms.
type NoopInjector struct{}

// NewInjector returns a non-functional injector on unsupported platforms.
func NewInjector() (Injector, error) {
	return &NoopInjector{}, ErrUnsupported
}

// MoveAbs returns ErrUnsupported.
func (n *NoopInjector) MoveAbs(x, y int) error {
	_ = x
	_ = y
	return ErrUnsupported
}

// LeftDown returns ErrUnsupported.
func (n *NoopInjector) LeftDown() error {
	return ErrUnsupported
}

// LeftUp returns ErrUnsupported.
func (n *NoopInjector) LeftUp() error {
	return ErrUnsupported
}

// KeyPress returns ErrUnsupported.
func (n *NoopInjector) KeyPress(k Key) error {
	_ = k
	return ErrUnsupported
}

// TypeUnicode returns ErrUnsupported.
func (n *NoopInjector) TypeUnicode(text string) error {
	_ = text
	return ErrUnsupported
}
