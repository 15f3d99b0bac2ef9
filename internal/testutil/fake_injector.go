package testutil

import (
	"sync"
	"time"

	"github.com/frudas24/pdb/internal/input"
)

// Call records a single injected action.
type Call struct {
	Name string
	X    int
	Y    int
	Key  input.Key
	Text string
}

// FakeInjector implements input.Injector and records calls for tests.
type FakeInjector struct {
	mu    sync.Mutex
	calls []Call

	// FailOn makes the named call return Err.
	FailOn string
	Err    error
	// Delay is slept inside every call to widen race windows.
	Delay time.Duration
	// OnCall runs after a call is recorded, outside the lock.
	OnCall func(Call)
}

// Ensure FakeInjector implements the interface.
var _ input.Injector = (*FakeInjector)(nil)

// MoveAbs records an absolute move.
func (f *FakeInjector) MoveAbs(x, y int) error {
	return f.record(Call{Name: "MoveAbs", X: x, Y: y})
}

// LeftDown records a left mouse down.
func (f *FakeInjector) LeftDown() error {
	return f.record(Call{Name: "LeftDown"})
}

// LeftUp records a left mouse up.
func (f *FakeInjector) LeftUp() error {
	return f.record(Call{Name: "LeftUp"})
}

// KeyPress records a named key press.
func (f *FakeInjector) KeyPress(k input.Key) error {
	return f.record(Call{Name: "KeyPress", Key: k})
}

// TypeUnicode records typed text.
func (f *FakeInjector) TypeUnicode(text string) error {
	return f.record(Call{Name: "TypeUnicode", Text: text})
}

// Calls returns a copy of the recorded calls.
func (f *FakeInjector) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Names returns the recorded call names in order.
func (f *FakeInjector) Names() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Name
	}
	return out
}

func (f *FakeInjector) record(c Call) error {
	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	fail := f.FailOn == c.Name
	err := f.Err
	hook := f.OnCall
	f.mu.Unlock()
	if hook != nil {
		hook(c)
	}
	if fail {
		return err
	}
	return nil
}
