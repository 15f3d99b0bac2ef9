package input

import (
	"testing"

	"github.com/frudas24/pdb/internal/failure"
)

// TestParseKey_Canonical verifies every canonical token maps back to its key.
func TestParseKey_Canonical(t *testing.T) {
	for _, k := range AllKeys() {
		got, err := ParseKey(k.String())
		if err != nil || got != k {
			t.Fatalf("expected %s to round-trip, got %v err=%v", k, got, err)
		}
	}
}

// TestAllKeys_Count verifies the closed set size.
func TestAllKeys_Count(t *testing.T) {
	// 15 named keys, 26 letters, 10 digits, 12 function keys.
	if got := len(AllKeys()); got != 63 {
		t.Fatalf("expected 63 keys, got %d", got)
	}
}

// TestParseKey_Aliases verifies the short aliases.
func TestParseKey_Aliases(t *testing.T) {
	cases := map[string]Key{"return": KeyEnter, "back": KeyBackspace, "esc": KeyEscape, "ENTER": KeyEnter, " F5 ": KeyF1 + 4}
	for token, want := range cases {
		got, err := ParseKey(token)
		if err != nil || got != want {
			t.Fatalf("expected %q -> %s, got %v err=%v", token, want, got, err)
		}
	}
}

// TestParseKey_Ranges verifies letter, digit and function key tokens.
func TestParseKey_Ranges(t *testing.T) {
	if k, _ := ParseKey("a"); k != KeyA {
		t.Fatalf("expected KeyA, got %v", k)
	}
	if k, _ := ParseKey("z"); k != KeyZ {
		t.Fatalf("expected KeyZ, got %v", k)
	}
	if k, _ := ParseKey("0"); k != Key0 {
		t.Fatalf("expected Key0, got %v", k)
	}
	if k, _ := ParseKey("f12"); k != KeyF12 {
		t.Fatalf("expected KeyF12, got %v", k)
	}
}

// TestParseKey_Unknown verifies unknown tokens are rejected as BadArguments.
func TestParseKey_Unknown(t *testing.T) {
	for _, token := range []string{"", "f13", "ctrl", "aa", "!"} {
		if _, err := ParseKey(token); failure.KindOf(err) != failure.BadArguments {
			t.Fatalf("expected BadArguments for %q, got %v", token, err)
		}
	}
}
