package failure

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

// TestKindOf_Wrapped verifies the kind survives fmt wrapping.
func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("click: %w", New(WindowGone, "window 0x100 closed"))
	if got := KindOf(err); got != WindowGone {
		t.Fatalf("expected WindowGone, got %s", got)
	}
}

// TestKindOf_Plain verifies unclassified errors report KindNone.
func TestKindOf_Plain(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindNone {
		t.Fatalf("expected KindNone, got %s", got)
	}
}

// TestParseKind_AllNames verifies every kind name parses back.
func TestParseKind_AllNames(t *testing.T) {
	for k := NotFound; k <= PlatformError; k++ {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Fatalf("expected %s to parse, got %v ok=%v", k, got, ok)
		}
	}
	if _, ok := ParseKind("Nope"); ok {
		t.Fatalf("expected unknown name to fail")
	}
}

// TestIs_MatchesKind verifies errors.Is compares kinds only.
func TestIs_MatchesKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", New(NotFound, "no window titled %q", "Notepad"))
	if !errors.Is(err, &Error{Kind: NotFound}) {
		t.Fatalf("expected errors.Is to match NotFound")
	}
	if errors.Is(err, &Error{Kind: WindowGone}) {
		t.Fatalf("expected errors.Is to reject WindowGone")
	}
}

// TestClassify_KeepsExisting verifies classified errors are not rewrapped.
func TestClassify_KeepsExisting(t *testing.T) {
	orig := New(CaptureTimeout, "no frame")
	if got := Classify(orig, InjectionFailed); KindOf(got) != CaptureTimeout {
		t.Fatalf("expected CaptureTimeout, got %s", KindOf(got))
	}
	if got := Classify(errors.New("denied"), InjectionFailed); KindOf(got) != InjectionFailed {
		t.Fatalf("expected InjectionFailed, got %s", KindOf(got))
	}
	if Classify(nil, InjectionFailed) != nil {
		t.Fatalf("expected nil for nil input")
	}
}

// TestMessage_Formats verifies the message excludes the kind prefix.
func TestMessage_Formats(t *testing.T) {
	err := Wrap(InjectionFailed, errors.New("access denied"), "SendInput")
	if got := Message(err); got != "SendInput: access denied" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := err.Error(); got != "InjectionFailed: SendInput: access denied" {
		t.Fatalf("unexpected error string %q", got)
	}
}

// TestHTTPStatus_Kinds verifies gateway status codes per kind.
func TestHTTPStatus_Kinds(t *testing.T) {
	cases := map[error]int{
		New(NotFound, "x"):         http.StatusNotFound,
		New(InvalidHandle, "x"):    http.StatusBadRequest,
		New(CaptureTimeout, "x"):   http.StatusGatewayTimeout,
		New(PlatformError, "x"):    http.StatusServiceUnavailable,
		errors.New("unclassified"): http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := HTTPStatus(err); got != want {
			t.Fatalf("expected %d for %v, got %d", want, err, got)
		}
	}
}
