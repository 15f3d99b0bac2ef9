// Package monitor enumerates displays so window rectangles can be placed on them.
package monitor

import (
	"errors"

	"github.com/frudas24/pdb/internal/window"
)

// ErrUnsupported indicates display enumeration is unavailable on this OS.
var ErrUnsupported = errors.New("display enumeration is only supported on Windows and X11")

// Monitor describes a display in virtual-screen coordinates. Work excludes
// taskbars and docks where the platform reports them.
type Monitor struct {
	Index   int         `json:"index"`
	Bounds  window.Rect `json:"bounds"`
	Work    window.Rect `json:"work"`
	Primary bool        `json:"primary"`
}

// Containing returns the monitor holding the centre of r.
func Containing(list []Monitor, r window.Rect) (Monitor, bool) {
	cx, cy := r.X+r.W/2, r.Y+r.H/2
	for _, m := range list {
		if m.Bounds.Contains(cx, cy) {
			return m, true
		}
	}
	return Monitor{}, false
}
