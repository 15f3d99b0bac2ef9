package control

import (
	"github.com/frudas24/pdb/internal/failure"
	"github.com/frudas24/pdb/internal/window"
)

// WindowSource returns a fresh snapshot of one window, or a NotFound failure
// when the handle no longer names a live window.
type WindowSource interface {
	Window(h window.Handle) (window.Info, error)
}

// Mapper converts client-area points to screen points. The desktop backend
// reports client rectangles in physical pixels, so no DPI scaling happens here.
type Mapper struct {
	src WindowSource
}

// NewMapper creates a mapper over a window source.
func NewMapper(src WindowSource) *Mapper {
	return &Mapper{src: src}
}

// ToScreen re-queries the window's client rectangle and offsets p by its origin.
func (m *Mapper) ToScreen(h window.Handle, p window.Point) (window.Point, error) {
	info, err := m.src.Window(h)
	if err != nil {
		return window.Point{}, goneError(h, err)
	}
	return window.Point{X: info.Client.X + p.X, Y: info.Client.Y + p.Y}, nil
}

// ToClient is the inverse of ToScreen.
func (m *Mapper) ToClient(h window.Handle, p window.Point) (window.Point, window.Info, error) {
	info, err := m.src.Window(h)
	if err != nil {
		return window.Point{}, window.Info{}, goneError(h, err)
	}
	return window.Point{X: p.X - info.Client.X, Y: p.Y - info.Client.Y}, info, nil
}

// goneError reports a window that resolved earlier but no longer does.
func goneError(h window.Handle, err error) error {
	switch failure.KindOf(err) {
	case failure.NotFound, failure.InvalidHandle, failure.WindowGone:
		return failure.Wrap(failure.WindowGone, err, "window "+h.String()+" is gone")
	default:
		return failure.Classify(err, failure.PlatformError)
	}
}
