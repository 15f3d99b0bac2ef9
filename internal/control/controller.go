// Package control drives windows: it resolves handles, brackets input in a
// restore/minimize transition and maps client coordinates to the screen.
package control

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/frudas24/pdb/internal/capture"
	"github.com/frudas24/pdb/internal/failure"
	"github.com/frudas24/pdb/internal/input"
	"github.com/frudas24/pdb/internal/window"
)

const (
	defaultSwipeDuration = 500 * time.Millisecond
	defaultSwipeStep     = 10 * time.Millisecond
)

// Desktop is the window-state surface the controller drives.
type Desktop interface {
	window.Enumerator
	WindowSource
	Restore(h window.Handle) error
	Minimize(h window.Handle) error
	Focus(h window.Handle) error
	CursorPos() (window.Point, error)
}

// Options tunes settle delays and swipe stepping.
type Options struct {
	RestoreSettle time.Duration
	FocusSettle   time.Duration
	SwipeStep     time.Duration
	// Sleep replaces time.Sleep, mainly for tests.
	Sleep func(time.Duration)
	// OnTransition observes bracket state changes.
	OnTransition func(h window.Handle, from, to State)
}

// DefaultOptions mirrors the settle delays the desktop needs after a restore.
func DefaultOptions() Options {
	return Options{
		RestoreSettle: 100 * time.Millisecond,
		FocusSettle:   50 * time.Millisecond,
		SwipeStep:     defaultSwipeStep,
	}
}

// Controller executes device operations against live windows.
type Controller struct {
	desktop  Desktop
	registry *window.Registry
	mapper   *Mapper
	injector input.Injector
	pipeline *capture.Pipeline
	locks    *lockMap
	opts     Options
}

// New creates a controller. pipeline may be nil when screenshots are not needed.
func New(desktop Desktop, injector input.Injector, pipeline *capture.Pipeline, opts Options) *Controller {
	if opts.SwipeStep <= 0 {
		opts.SwipeStep = defaultSwipeStep
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	return &Controller{
		desktop:  desktop,
		registry: window.NewRegistry(desktop),
		mapper:   NewMapper(desktop),
		injector: injector,
		pipeline: pipeline,
		locks:    newLockMap(),
		opts:     opts,
	}
}

// Devices lists the controllable windows.
func (c *Controller) Devices(ctx context.Context) ([]window.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.registry.List()
}

// Find resolves a handle token or title substring.
func (c *Controller) Find(ctx context.Context, query string) (window.Info, error) {
	if err := ctx.Err(); err != nil {
		return window.Info{}, err
	}
	return c.registry.Find(query)
}

// Device borrows a handle for one or more operations. Nothing is cached:
// every call re-resolves the window.
func (c *Controller) Device(h window.Handle) *Device {
	return &Device{c: c, h: h}
}

// Click clicks at a client-area point.
func (c *Controller) Click(ctx context.Context, h window.Handle, x, y int) error {
	return c.Device(h).Click(ctx, x, y)
}

// Swipe drags from one client point to another over durationMs milliseconds.
func (c *Controller) Swipe(ctx context.Context, h window.Handle, x1, y1, x2, y2, durationMs int) error {
	return c.Device(h).Swipe(ctx, x1, y1, x2, y2, durationMs)
}

// Text types a string into the window.
func (c *Controller) Text(ctx context.Context, h window.Handle, text string) error {
	return c.Device(h).Text(ctx, text)
}

// Key presses one named key.
func (c *Controller) Key(ctx context.Context, h window.Handle, k input.Key) error {
	return c.Device(h).Key(ctx, k)
}

// Screenshot captures the client area without touching window state.
func (c *Controller) Screenshot(ctx context.Context, h window.Handle) (*capture.Bitmap, error) {
	return c.Device(h).Screenshot(ctx)
}

// Size returns the client-area size.
func (c *Controller) Size(ctx context.Context, h window.Handle) (int, int, error) {
	return c.Device(h).Size(ctx)
}

// Focus brings the window to the foreground.
func (c *Controller) Focus(ctx context.Context, h window.Handle) error {
	return c.Device(h).Focus(ctx)
}

// applyActions executes actions using the injector. A pressed button is
// always released, even when a later step fails.
func (c *Controller) applyActions(actions []Action) error {
	pressed := false
	for _, action := range actions {
		if err := c.applyAction(action); err != nil {
			if pressed && action.Type != ActLeftUp {
				if upErr := c.injector.LeftUp(); upErr != nil {
					log.Printf("control: release after failure: %v", upErr)
				}
			}
			return failure.Wrap(failure.InjectionFailed, err, string(action.Type))
		}
		switch action.Type {
		case ActLeftDown:
			pressed = true
		case ActLeftUp:
			pressed = false
		}
	}
	return nil
}

// applyAction executes a single action.
func (c *Controller) applyAction(action Action) error {
	switch action.Type {
	case ActMove:
		return c.injector.MoveAbs(action.X, action.Y)
	case ActLeftDown:
		return c.injector.LeftDown()
	case ActLeftUp:
		return c.injector.LeftUp()
	case ActKey:
		return c.injector.KeyPress(action.Key)
	case ActType:
		return c.injector.TypeUnicode(action.Text)
	case ActWait:
		c.opts.Sleep(action.Wait)
		return nil
	default:
		return fmt.Errorf("unknown action %q", action.Type)
	}
}
