package input

import (
	"fmt"
	"strings"

	"github.com/frudas24/pdb/internal/failure"
)

// Key is the closed set of named keys accepted by the key command.
type Key int

// Named keys. Letters, digits and function keys are contiguous ranges.
const (
	KeyEnter Key = iota + 1
	KeyEscape
	KeyBackspace
	KeyTab
	KeySpace
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyDelete
	KeyA
	KeyZ   = KeyA + 25
	Key0   = KeyZ + 1
	Key9   = Key0 + 9
	KeyF1  = Key9 + 1
	KeyF12 = KeyF1 + 11
)

var namedKeys = map[Key]string{
	KeyEnter:     "enter",
	KeyEscape:    "escape",
	KeyBackspace: "backspace",
	KeyTab:       "tab",
	KeySpace:     "space",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyLeft:      "left",
	KeyRight:     "right",
	KeyHome:      "home",
	KeyEnd:       "end",
	KeyPageUp:    "pageup",
	KeyPageDown:  "pagedown",
	KeyInsert:    "insert",
	KeyDelete:    "delete",
}

var keyAliases = map[string]Key{
	"return": KeyEnter,
	"back":   KeyBackspace,
	"esc":    KeyEscape,
}

var keysByToken = buildKeyTokens()

func buildKeyTokens() map[string]Key {
	out := make(map[string]Key, len(namedKeys)+26+10+12+len(keyAliases))
	for _, k := range AllKeys() {
		out[k.String()] = k
	}
	for alias, k := range keyAliases {
		out[alias] = k
	}
	return out
}

// AllKeys returns every key in declaration order.
func AllKeys() []Key {
	keys := make([]Key, 0, int(KeyF12))
	for k := KeyEnter; k <= KeyF12; k++ {
		keys = append(keys, k)
	}
	return keys
}

// Valid reports whether k is part of the closed key set.
func (k Key) Valid() bool {
	return k >= KeyEnter && k <= KeyF12
}

// String returns the canonical lowercase wire token.
func (k Key) String() string {
	switch {
	case k >= KeyA && k <= KeyZ:
		return string(rune('a' + int(k-KeyA)))
	case k >= Key0 && k <= Key9:
		return string(rune('0' + int(k-Key0)))
	case k >= KeyF1 && k <= KeyF12:
		return fmt.Sprintf("f%d", int(k-KeyF1)+1)
	}
	if name, ok := namedKeys[k]; ok {
		return name
	}
	return fmt.Sprintf("key(%d)", int(k))
}

// ParseKey maps a token (case-insensitive, aliases allowed) to a Key.
func ParseKey(token string) (Key, error) {
	k, ok := keysByToken[strings.ToLower(strings.TrimSpace(token))]
	if !ok {
		return 0, failure.New(failure.BadArguments, "unknown key %q", token)
	}
	return k, nil
}
