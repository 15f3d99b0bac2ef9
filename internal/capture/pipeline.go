package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/frudas24/pdb/internal/failure"
	"github.com/frudas24/pdb/internal/window"
)

// ErrNoFrame is returned by a grabber when the compositor has no frame for the window yet.
var ErrNoFrame = errors.New("no frame available")

const (
	defaultTimeout = 2 * time.Second
	defaultPoll    = 50 * time.Millisecond
)

// Grabber reads one frame of a window's client area from its compositor surface.
// It must not change the window's minimized or foreground state.
type Grabber interface {
	Grab(h window.Handle) (*Bitmap, error)
}

// Pipeline wraps a grabber with a bounded wait and remembers the most recent
// frame per window so minimized windows still yield their last composed image.
type Pipeline struct {
	grabber Grabber
	timeout time.Duration
	poll    time.Duration

	mu   sync.Mutex
	last map[window.Handle]*Bitmap
}

// NewPipeline creates a pipeline. Non-positive durations fall back to 2s timeout and 50ms poll.
func NewPipeline(g Grabber, timeout, poll time.Duration) *Pipeline {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if poll <= 0 {
		poll = defaultPoll
	}
	return &Pipeline{
		grabber: g,
		timeout: timeout,
		poll:    poll,
		last:    make(map[window.Handle]*Bitmap),
	}
}

type grabResult struct {
	bmp *Bitmap
	err error
}

// Capture returns the newest frame for h, failing with CaptureTimeout when no
// frame appears within the pipeline timeout.
func (p *Pipeline) Capture(ctx context.Context, h window.Handle) (*Bitmap, error) {
	deadline := time.NewTimer(p.timeout)
	defer deadline.Stop()

	for {
		// Buffered so a grab that outlives the deadline does not leak its goroutine.
		ch := make(chan grabResult, 1)
		go func() {
			bmp, err := p.grabber.Grab(h)
			ch <- grabResult{bmp: bmp, err: err}
		}()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, failure.New(failure.CaptureTimeout, "no frame for %s within %s", h, p.timeout)
		case res := <-ch:
			switch {
			case res.err == nil:
				if err := res.bmp.Validate(); err != nil {
					return nil, failure.Wrap(failure.PlatformError, err, "capture")
				}
				p.remember(h, res.bmp)
				return res.bmp, nil
			case errors.Is(res.err, ErrNoFrame):
				if cached := p.cached(h); cached != nil {
					return cached, nil
				}
			default:
				kind := failure.KindOf(res.err)
				if kind == failure.WindowGone || kind == failure.NotFound || kind == failure.InvalidHandle {
					p.Forget(h)
				}
				return nil, failure.Classify(res.err, failure.PlatformError)
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, failure.New(failure.CaptureTimeout, "no frame for %s within %s", h, p.timeout)
		case <-time.After(p.poll):
		}
	}
}

// Forget drops the cached frame for a window.
func (p *Pipeline) Forget(h window.Handle) {
	p.mu.Lock()
	delete(p.last, h)
	p.mu.Unlock()
}

func (p *Pipeline) remember(h window.Handle, bmp *Bitmap) {
	p.mu.Lock()
	p.last[h] = bmp.Clone()
	p.mu.Unlock()
}

func (p *Pipeline) cached(h window.Handle) *Bitmap {
	p.mu.Lock()
	defer p.mu.Unlock()
	if bmp, ok := p.last[h]; ok {
		return bmp.Clone()
	}
	return nil
}
