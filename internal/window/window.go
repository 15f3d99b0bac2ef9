// Package window models top-level desktop windows and resolves handle or title queries.
package window

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/frudas24/pdb/internal/failure"
)

// Handle is an opaque platform window identifier (HWND on Windows, XID on X11).
type Handle uint64

// String formats the handle the way it is typed on the command line.
func (h Handle) String() string {
	return fmt.Sprintf("0x%X", uint64(h))
}

// ParseHandle reads a 0x-prefixed hexadecimal or a decimal handle token.
func ParseHandle(s string) (Handle, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, failure.New(failure.InvalidHandle, "empty handle")
	}
	var (
		v   uint64
		err error
	)
	if rest, ok := cutHexPrefix(s); ok {
		v, err = strconv.ParseUint(rest, 16, 64)
	} else {
		v, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return 0, failure.New(failure.InvalidHandle, "malformed handle %q", s)
	}
	if v == 0 {
		return 0, failure.New(failure.InvalidHandle, "null handle")
	}
	return Handle(v), nil
}

func cutHexPrefix(s string) (string, bool) {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:], true
	}
	return s, false
}

// Point is a coordinate pair. Client-area relative unless documented otherwise.
type Point struct {
	X int
	Y int
}

// Rect is an axis-aligned rectangle in screen coordinates.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Contains reports whether a screen point lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && y >= r.Y && x < r.X+r.W && y < r.Y+r.H
}

// Info is an immutable snapshot of one window taken during enumeration.
type Info struct {
	Handle    Handle
	Title     string
	Class     string
	Minimized bool
	Client    Rect
}
