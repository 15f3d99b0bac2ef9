package control

import (
	"context"
	"time"

	"github.com/frudas24/pdb/internal/capture"
	"github.com/frudas24/pdb/internal/failure"
	"github.com/frudas24/pdb/internal/input"
	"github.com/frudas24/pdb/internal/window"
)

// Device is a short-lived borrow of one window handle. It owns no OS
// resource and caches no geometry.
type Device struct {
	c *Controller
	h window.Handle
}

// Handle returns the borrowed handle.
func (d *Device) Handle() window.Handle {
	return d.h
}

// Click presses and releases the left button at a client point.
func (d *Device) Click(ctx context.Context, x, y int) error {
	return d.c.withBracket(ctx, d.h, func() error {
		p, err := d.c.mapper.ToScreen(d.h, window.Point{X: x, Y: y})
		if err != nil {
			return err
		}
		return d.c.applyActions(PlanClick(p))
	})
}

// Swipe drags between two client points. durationMs 0 means an immediate
// press, move and release.
func (d *Device) Swipe(ctx context.Context, x1, y1, x2, y2, durationMs int) error {
	if durationMs < 0 {
		return failure.New(failure.BadArguments, "swipe duration must be >= 0, got %d", durationMs)
	}
	duration := time.Duration(durationMs) * time.Millisecond
	return d.c.withBracket(ctx, d.h, func() error {
		from, err := d.c.mapper.ToScreen(d.h, window.Point{X: x1, Y: y1})
		if err != nil {
			return err
		}
		to, err := d.c.mapper.ToScreen(d.h, window.Point{X: x2, Y: y2})
		if err != nil {
			return err
		}
		return d.c.applyActions(PlanSwipe(from, to, duration, d.c.opts.SwipeStep))
	})
}

// Text types a string, one input event per character.
func (d *Device) Text(ctx context.Context, text string) error {
	if text == "" {
		if _, err := d.c.desktop.Window(d.h); err != nil {
			return entryError(d.h, err)
		}
		return nil
	}
	return d.c.withBracket(ctx, d.h, func() error {
		if _, err := d.c.desktop.Window(d.h); err != nil {
			return goneError(d.h, err)
		}
		return d.c.applyActions(PlanText(text))
	})
}

// Key presses and releases one named key.
func (d *Device) Key(ctx context.Context, k input.Key) error {
	if !k.Valid() {
		return failure.New(failure.BadArguments, "invalid key %s", k)
	}
	return d.c.withBracket(ctx, d.h, func() error {
		if _, err := d.c.desktop.Window(d.h); err != nil {
			return goneError(d.h, err)
		}
		return d.c.applyActions(PlanKey(k))
	})
}

// Screenshot captures the client area. It never restores or focuses the
// window and does not take the per-handle lock.
func (d *Device) Screenshot(ctx context.Context) (*capture.Bitmap, error) {
	if d.c.pipeline == nil {
		return nil, failure.New(failure.PlatformError, "capture is not configured")
	}
	if _, err := d.c.desktop.Window(d.h); err != nil {
		return nil, err
	}
	return d.c.pipeline.Capture(ctx, d.h)
}

// Size returns the current client-area width and height.
func (d *Device) Size(ctx context.Context) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	info, err := d.c.desktop.Window(d.h)
	if err != nil {
		return 0, 0, err
	}
	return info.Client.W, info.Client.H, nil
}

// Focus restores a minimized window and brings it to the foreground. The
// window is left restored.
func (d *Device) Focus(ctx context.Context) error {
	release, err := d.c.locks.acquire(ctx, d.h)
	if err != nil {
		return err
	}
	defer release()

	info, err := d.c.desktop.Window(d.h)
	if err != nil {
		return entryError(d.h, err)
	}
	if info.Minimized {
		if err := d.c.desktop.Restore(d.h); err != nil {
			return entryError(d.h, err)
		}
		d.c.transition(d.h, StateMinimized, StateNormal)
		d.c.settle(d.c.opts.RestoreSettle)
	}
	if err := d.c.desktop.Focus(d.h); err != nil {
		return failure.Classify(err, failure.InjectionFailed)
	}
	return nil
}
