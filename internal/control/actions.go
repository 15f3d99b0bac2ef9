package control

import (
	"time"

	"github.com/frudas24/pdb/internal/input"
	"github.com/frudas24/pdb/internal/window"
)

// ActionType identifies the kind of input action to execute.
type ActionType string

const (
	// ActMove moves the mouse cursor.
	ActMove ActionType = "move"
	// ActLeftDown presses the left mouse button.
	ActLeftDown ActionType = "left_down"
	// ActLeftUp releases the left mouse button.
	ActLeftUp ActionType = "left_up"
	// ActKey presses and releases a named key.
	ActKey ActionType = "key"
	// ActType types unicode text.
	ActType ActionType = "type"
	// ActWait pauses between steps.
	ActWait ActionType = "wait"
)

// Action describes one input operation in screen coordinates.
type Action struct {
	Type ActionType
	X    int
	Y    int
	Key  input.Key
	Text string
	Wait time.Duration
}

// PlanClick presses and releases the left button at a screen point.
func PlanClick(p window.Point) []Action {
	return []Action{
		{Type: ActMove, X: p.X, Y: p.Y},
		{Type: ActLeftDown},
		{Type: ActLeftUp},
	}
}

// PlanSwipe presses at from, walks the interpolated path spreading the moves
// evenly over duration, then releases at to. A zero duration degenerates to
// press, one move and release.
func PlanSwipe(from, to window.Point, duration, step time.Duration) []Action {
	actions := []Action{
		{Type: ActMove, X: from.X, Y: from.Y},
		{Type: ActLeftDown},
	}
	path := SwipePath(from, to, duration, step)
	var interval time.Duration
	if len(path) > 0 && duration > 0 {
		interval = duration / time.Duration(len(path))
	}
	for _, p := range path {
		if interval > 0 {
			actions = append(actions, Action{Type: ActWait, Wait: interval})
		}
		actions = append(actions, Action{Type: ActMove, X: p.X, Y: p.Y})
	}
	return append(actions, Action{Type: ActLeftUp})
}

// SwipePath returns the intermediate and final points of a straight swipe,
// excluding the start point. The last point is always to.
func SwipePath(from, to window.Point, duration, step time.Duration) []window.Point {
	if step <= 0 {
		step = 10 * time.Millisecond
	}
	steps := 1
	if duration > 0 {
		steps = int(duration / step)
		if steps < 1 {
			steps = 1
		}
	}
	dx := to.X - from.X
	dy := to.Y - from.Y
	path := make([]window.Point, 0, steps)
	for i := 1; i <= steps; i++ {
		path = append(path, window.Point{
			X: from.X + roundDiv(dx*i, steps),
			Y: from.Y + roundDiv(dy*i, steps),
		})
	}
	return path
}

// roundDiv divides rounding half away from zero.
func roundDiv(n, d int) int {
	if n >= 0 {
		return (n + d/2) / d
	}
	return -((-n + d/2) / d)
}

// PlanText emits one input event per character. Newline, tab and backspace
// go out as their named keys; everything else as a unicode text event.
func PlanText(text string) []Action {
	actions := make([]Action, 0, len(text))
	runes := []rune(text)
	for i, r := range runes {
		switch r {
		case '\r':
			if i+1 < len(runes) && runes[i+1] == '\n' {
				continue
			}
			actions = append(actions, Action{Type: ActKey, Key: input.KeyEnter})
		case '\n':
			actions = append(actions, Action{Type: ActKey, Key: input.KeyEnter})
		case '\t':
			actions = append(actions, Action{Type: ActKey, Key: input.KeyTab})
		case '\b':
			actions = append(actions, Action{Type: ActKey, Key: input.KeyBackspace})
		default:
			actions = append(actions, Action{Type: ActType, Text: string(r)})
		}
	}
	return actions
}

// PlanKey presses and releases a single key.
func PlanKey(k input.Key) []Action {
	return []Action{{Type: ActKey, Key: k}}
}
