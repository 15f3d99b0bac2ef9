// Package protocol implements the line-oriented wire format shared by the
// pdb client and server.
//
// A request is one line: a command token followed by space separated
// arguments. A response is a status line starting with OK or ERR, optionally
// followed by device lines or a raw pixel block whose length is announced on
// the status line.
package protocol

import (
	"github.com/frudas24/pdb/internal/input"
	"github.com/frudas24/pdb/internal/window"
)

// DefaultSwipeMs is used when a swipe frame omits its duration.
const DefaultSwipeMs = 500

// Command is one request. The set of variants is closed.
type Command interface {
	// Name returns the wire token of the command.
	Name() string
	isCommand()
}

// ListDevices requests the window list. It is also accepted as "list".
type ListDevices struct{}

// Click presses and releases the left button at a client point.
type Click struct {
	Handle window.Handle
	X, Y   int
}

// Swipe drags between two client points.
type Swipe struct {
	Handle     window.Handle
	X1, Y1     int
	X2, Y2     int
	DurationMs int
}

// Text types a string.
type Text struct {
	Handle window.Handle
	Text   string
}

// Key presses one named key.
type Key struct {
	Handle window.Handle
	Key    input.Key
}

// Screenshot captures the client area.
type Screenshot struct {
	Handle window.Handle
}

// Ping checks reachability.
type Ping struct{}

// Size reports the client-area size.
type Size struct {
	Handle window.Handle
}

// Focus brings a window to the foreground.
type Focus struct {
	Handle window.Handle
}

func (ListDevices) Name() string { return "devices" }
func (Click) Name() string       { return "click" }
func (Swipe) Name() string       { return "swipe" }
func (Text) Name() string        { return "text" }
func (Key) Name() string         { return "key" }
func (Screenshot) Name() string  { return "screenshot" }
func (Ping) Name() string        { return "ping" }
func (Size) Name() string        { return "size" }
func (Focus) Name() string       { return "focus" }

func (ListDevices) isCommand() {}
func (Click) isCommand()       {}
func (Swipe) isCommand()       {}
func (Text) isCommand()        {}
func (Key) isCommand()         {}
func (Screenshot) isCommand()  {}
func (Ping) isCommand()        {}
func (Size) isCommand()        {}
func (Focus) isCommand()       {}

// Commands lists the accepted command tokens, aliases included.
func Commands() []string {
	return []string{"devices", "list", "click", "swipe", "text", "key", "screenshot", "ping", "size", "focus"}
}
