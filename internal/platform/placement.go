package platform

import "github.com/frudas24/pdb/internal/window"

// frameInsets are the non-client border widths around a client area.
type frameInsets struct {
	Left, Top, Right, Bottom int
}

// restoredClient converts a restored outer window rectangle in workspace
// coordinates into the client area in screen coordinates. workOffset is the
// work area origin minus the monitor origin.
func restoredClient(normal window.Rect, in frameInsets, workOffset window.Point) window.Rect {
	w := normal.W - in.Left - in.Right
	h := normal.H - in.Top - in.Bottom
	return window.Rect{
		X: normal.X + workOffset.X + in.Left,
		Y: normal.Y + workOffset.Y + in.Top,
		W: max(w, 0),
		H: max(h, 0),
	}
}
