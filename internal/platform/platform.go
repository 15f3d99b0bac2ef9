// Package platform binds the controller to the host desktop: window
// enumeration and state, cursor position and client-area capture.
package platform

import (
	"errors"

	"github.com/frudas24/pdb/internal/capture"
	"github.com/frudas24/pdb/internal/control"
)

// ErrUnsupported indicates no desktop backend exists for this OS.
var ErrUnsupported = errors.New("desktop control is only supported on Windows and X11")

// Desktop is everything the daemon needs from a backend.
type Desktop interface {
	control.Desktop
	capture.Grabber
	// Name identifies the backend in logs.
	Name() string
	Close() error
}
