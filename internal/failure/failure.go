// Package failure defines the typed error kinds shared by local calls and the wire protocol.
package failure

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an operation failure.
type Kind int

const (
	// KindNone marks errors that carry no classification.
	KindNone Kind = iota
	// NotFound means no window matched a handle or title query.
	NotFound
	// WindowGone means the window vanished between resolution and use.
	WindowGone
	// InvalidHandle means a handle token was malformed or no longer resolves.
	InvalidHandle
	// InjectionFailed means the OS rejected synthesized input.
	InjectionFailed
	// CaptureTimeout means no frame was produced within the capture bound.
	CaptureTimeout
	// UnknownCommand means the command token is not part of the vocabulary.
	UnknownCommand
	// BadArguments means the argument count or shape is wrong for a command.
	BadArguments
	// ConnectionError means the remote transport failed.
	ConnectionError
	// PlatformError means the desktop backend is unavailable on this host.
	PlatformError
)

var kindNames = map[Kind]string{
	NotFound:        "NotFound",
	WindowGone:      "WindowGone",
	InvalidHandle:   "InvalidHandle",
	InjectionFailed: "InjectionFailed",
	CaptureTimeout:  "CaptureTimeout",
	UnknownCommand:  "UnknownCommand",
	BadArguments:    "BadArguments",
	ConnectionError: "ConnectionError",
	PlatformError:   "PlatformError",
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// ParseKind maps a wire name back to a Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return KindNone, false
}

// Error is a classified operation failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same kind, so errors.Is(err, failure.New(NotFound, "")) works.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind && other.Msg == "" && other.Err == nil
}

// New builds a classified error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in the chain, or KindNone.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindNone
}

// Message returns the human-readable part of a classified error.
func Message(err error) string {
	var fe *Error
	if !errors.As(err, &fe) {
		return err.Error()
	}
	switch {
	case fe.Msg != "" && fe.Err != nil:
		return fe.Msg + ": " + fe.Err.Error()
	case fe.Msg != "":
		return fe.Msg
	case fe.Err != nil:
		return fe.Err.Error()
	default:
		return ""
	}
}

// Classify returns err unchanged when it already carries a kind, otherwise wraps it with def.
func Classify(err error, def Kind) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindNone {
		return err
	}
	return Wrap(def, err, "")
}

// HTTPStatus maps an error to the status code the HTTP gateway answers with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case NotFound, WindowGone:
		return http.StatusNotFound
	case InvalidHandle, UnknownCommand, BadArguments:
		return http.StatusBadRequest
	case CaptureTimeout:
		return http.StatusGatewayTimeout
	case ConnectionError:
		return http.StatusBadGateway
	case PlatformError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
