// Package testutil holds recording fakes for the desktop and input layers.
package testutil

import (
	"sync"
	"time"

	"github.com/frudas24/pdb/internal/capture"
	"github.com/frudas24/pdb/internal/failure"
	"github.com/frudas24/pdb/internal/window"
)

// Event records one window-state call made against the fake desktop.
type Event struct {
	Name   string
	Handle window.Handle
	Seq    int
	At     time.Time
}

// FakeDesktop is an in-memory window table that records restore, minimize,
// focus and grab calls in order.
type FakeDesktop struct {
	mu      sync.Mutex
	windows []window.Info
	events  []Event

	// Frames overrides the bitmap returned by Grab per window.
	Frames map[window.Handle]*capture.Bitmap
	// GrabErr is returned by Grab when set.
	GrabErr error
	// RestoreErr, MinimizeErr and FocusErr are returned by the matching calls.
	RestoreErr  error
	MinimizeErr error
	FocusErr    error
	Cursor      window.Point
}

// NewFakeDesktop creates a desktop with the given windows in enumeration order.
func NewFakeDesktop(wins ...window.Info) *FakeDesktop {
	return &FakeDesktop{
		windows: append([]window.Info(nil), wins...),
		Frames:  make(map[window.Handle]*capture.Bitmap),
	}
}

// Windows returns a snapshot of all windows.
func (d *FakeDesktop) Windows() ([]window.Info, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]window.Info(nil), d.windows...), nil
}

// Window returns a fresh snapshot of one window.
func (d *FakeDesktop) Window(h window.Handle) (window.Info, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := d.indexLocked(h); i >= 0 {
		return d.windows[i], nil
	}
	return window.Info{}, failure.New(failure.NotFound, "no window with handle %s", h)
}

// Restore marks a window as not minimized.
func (d *FakeDesktop) Restore(h window.Handle) error {
	return d.transition("Restore", h, false, d.RestoreErr)
}

// Minimize marks a window as minimized.
func (d *FakeDesktop) Minimize(h window.Handle) error {
	return d.transition("Minimize", h, true, d.MinimizeErr)
}

// Focus records a foreground request.
func (d *FakeDesktop) Focus(h window.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recordLocked("Focus", h)
	if d.indexLocked(h) < 0 {
		return failure.New(failure.NotFound, "no window with handle %s", h)
	}
	return d.FocusErr
}

// CursorPos returns the configured cursor position.
func (d *FakeDesktop) CursorPos() (window.Point, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Cursor, nil
}

// SetCursor moves the fake cursor.
func (d *FakeDesktop) SetCursor(p window.Point) {
	d.mu.Lock()
	d.Cursor = p
	d.mu.Unlock()
}

// Grab returns the configured frame or a blank frame sized to the client area.
// Minimized windows still yield a frame, like a compositor surface.
func (d *FakeDesktop) Grab(h window.Handle) (*capture.Bitmap, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recordLocked("Grab", h)
	if d.GrabErr != nil {
		return nil, d.GrabErr
	}
	i := d.indexLocked(h)
	if i < 0 {
		return nil, failure.New(failure.WindowGone, "window %s closed", h)
	}
	if frame, ok := d.Frames[h]; ok {
		return frame.Clone(), nil
	}
	c := d.windows[i].Client
	w, hgt := c.W, c.H
	if w <= 0 || hgt <= 0 {
		w, hgt = 1, 1
	}
	return capture.NewBitmap(w, hgt), nil
}

// Remove closes a window.
func (d *FakeDesktop) Remove(h window.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := d.indexLocked(h); i >= 0 {
		d.windows = append(d.windows[:i], d.windows[i+1:]...)
	}
}

// Move shifts a window's client origin.
func (d *FakeDesktop) Move(h window.Handle, x, y int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := d.indexLocked(h); i >= 0 {
		d.windows[i].Client.X = x
		d.windows[i].Client.Y = y
	}
}

// Events returns the recorded calls in order.
func (d *FakeDesktop) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Event(nil), d.events...)
}

// Count returns how many times a call was made.
func (d *FakeDesktop) Count(name string) int {
	n := 0
	for _, e := range d.Events() {
		if e.Name == name {
			n++
		}
	}
	return n
}

func (d *FakeDesktop) transition(name string, h window.Handle, minimized bool, injected error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recordLocked(name, h)
	if injected != nil {
		return injected
	}
	i := d.indexLocked(h)
	if i < 0 {
		return failure.New(failure.NotFound, "no window with handle %s", h)
	}
	d.windows[i].Minimized = minimized
	return nil
}

func (d *FakeDesktop) recordLocked(name string, h window.Handle) {
	d.events = append(d.events, Event{Name: name, Handle: h, Seq: len(d.events), At: time.Now()})
}

func (d *FakeDesktop) indexLocked(h window.Handle) int {
	for i, w := range d.windows {
		if w.Handle == h {
			return i
		}
	}
	return -1
}
