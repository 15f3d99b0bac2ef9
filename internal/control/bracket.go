package control

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/frudas24/pdb/internal/failure"
	"github.com/frudas24/pdb/internal/window"
)

// State is the bracket state of a window during an input action.
type State int

const (
	// StateNormal is a visible window; no transition is needed.
	StateNormal State = iota
	// StateRestoredForAction is a minimized window temporarily restored.
	StateRestoredForAction
	// StateMinimized is a minimized window.
	StateMinimized
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateRestoredForAction:
		return "restored-for-action"
	case StateMinimized:
		return "minimized"
	default:
		return "unknown"
	}
}

// withBracket runs act while h is guaranteed non-minimized. A window that was
// minimized on entry is minimized again on every exit path. The per-handle
// lock spans the whole bracket so concurrent actions cannot undo each other.
func (c *Controller) withBracket(ctx context.Context, h window.Handle, act func() error) (err error) {
	release, err := c.locks.acquire(ctx, h)
	if err != nil {
		return err
	}
	defer release()

	info, err := c.desktop.Window(h)
	if err != nil {
		return entryError(h, err)
	}

	if info.Minimized {
		c.transition(h, StateMinimized, StateRestoredForAction)
		defer func() {
			minErr := c.desktop.Minimize(h)
			c.transition(h, StateRestoredForAction, StateMinimized)
			if minErr == nil {
				return
			}
			log.Printf("control: re-minimize %s: %v", h, minErr)
			reErr := failure.Wrap(failure.InjectionFailed, minErr, "re-minimize "+h.String())
			if err != nil {
				err = errors.Join(err, reErr)
				return
			}
			err = reErr
		}()
		if err := c.desktop.Restore(h); err != nil {
			return entryError(h, err)
		}
		c.settle(c.opts.RestoreSettle)
	}

	if err := c.desktop.Focus(h); err != nil {
		log.Printf("control: focus %s: %v", h, err)
	} else {
		c.settle(c.opts.FocusSettle)
	}

	return act()
}

func (c *Controller) transition(h window.Handle, from, to State) {
	if c.opts.OnTransition != nil {
		c.opts.OnTransition(h, from, to)
	}
}

func (c *Controller) settle(d time.Duration) {
	if d > 0 {
		c.opts.Sleep(d)
	}
}

// entryError reports a handle that does not resolve when an action starts.
func entryError(h window.Handle, err error) error {
	switch failure.KindOf(err) {
	case failure.NotFound, failure.InvalidHandle, failure.WindowGone:
		return failure.Wrap(failure.InvalidHandle, err, "window "+h.String()+" does not exist")
	default:
		return failure.Classify(err, failure.InjectionFailed)
	}
}
