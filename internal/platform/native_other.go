//go:build !windows && !linux

package platform

import (
	"github.com/frudas24/pdb/internal/capture"
	"github.com/frudas24/pdb/internal/window"
)

// Native is a placeholder backend on unsupported platforms.
type Native struct{}

var _ Desktop = (*Native)(nil)

// New returns ErrUnsupported.
func New() (*Native, error) {
	return &Native{}, ErrUnsupported
}

// Name identifies the backend.
func (n *Native) Name() string { return "unsupported" }

// Close is a no-op.
func (n *Native) Close() error { return nil }

// Windows returns ErrUnsupported.
func (n *Native) Windows() ([]window.Info, error) { return nil, ErrUnsupported }

// Window returns ErrUnsupported.
func (n *Native) Window(window.Handle) (window.Info, error) { return window.Info{}, ErrUnsupported }

// Restore returns ErrUnsupported.
func (n *Native) Restore(window.Handle) error { return ErrUnsupported }

// Minimize returns ErrUnsupported.
func (n *Native) Minimize(window.Handle) error { return ErrUnsupported }

// Focus returns ErrUnsupported.
func (n *Native) Focus(window.Handle) error { return ErrUnsupported }

// CursorPos returns ErrUnsupported.
func (n *Native) CursorPos() (window.Point, error) { return window.Point{}, ErrUnsupported }

// Grab returns ErrUnsupported.
func (n *Native) Grab(window.Handle) (*capture.Bitmap, error) { return nil, ErrUnsupported }
