package control

import (
	"context"
	"time"

	"github.com/frudas24/pdb/internal/window"
)

// CoordSample is one reading of the cursor relative to a window's client area.
type CoordSample struct {
	Point  window.Point
	Inside bool
	Err    error
}

// Coords streams the cursor position in client coordinates of h. Samples are
// produced lazily on every interval tick and only when the position changes.
// The channel closes when ctx ends or after a sample carrying an error.
func (c *Controller) Coords(ctx context.Context, h window.Handle, interval time.Duration) <-chan CoordSample {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	out := make(chan CoordSample)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last *CoordSample
		for {
			sample := c.sampleCursor(h)
			if sample.Err != nil || last == nil || *last != sample {
				select {
				case out <- sample:
				case <-ctx.Done():
					return
				}
				if sample.Err != nil {
					return
				}
				last = &sample
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return out
}

func (c *Controller) sampleCursor(h window.Handle) CoordSample {
	cursor, err := c.desktop.CursorPos()
	if err != nil {
		return CoordSample{Err: err}
	}
	p, info, err := c.mapper.ToClient(h, cursor)
	if err != nil {
		return CoordSample{Err: err}
	}
	return CoordSample{Point: p, Inside: info.Client.Contains(cursor.X, cursor.Y)}
}
