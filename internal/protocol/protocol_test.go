package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/frudas24/pdb/internal/capture"
	"github.com/frudas24/pdb/internal/failure"
	"github.com/frudas24/pdb/internal/input"
	"github.com/frudas24/pdb/internal/window"
)

func reader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

// TestCommand_RoundTrip verifies every variant decodes to an equal value.
func TestCommand_RoundTrip(t *testing.T) {
	cmds := []Command{
		ListDevices{},
		Ping{},
		Click{Handle: 0x100, X: 10, Y: -3},
		Swipe{Handle: 0x1A2B, X1: 1, Y1: 2, X2: 300, Y2: 400, DurationMs: 0},
		Swipe{Handle: 42, X1: 1, Y1: 2, X2: 3, Y2: 4, DurationMs: 750},
		Text{Handle: 0x100, Text: "hello world"},
		Text{Handle: 0x100, Text: "line1\nline2\t\"quoted\" é"},
		Text{Handle: 0x100, Text: ""},
		Key{Handle: 0x100, Key: input.KeyEnter},
		Key{Handle: 0x100, Key: input.KeyF1 + 11},
		Screenshot{Handle: 0xFFFF},
		Size{Handle: 7},
		Focus{Handle: 0x200},
	}
	var buf bytes.Buffer
	for _, c := range cmds {
		if err := WriteCommand(&buf, c); err != nil {
			t.Fatalf("write %T: %v", c, err)
		}
	}
	r := bufio.NewReader(&buf)
	for _, want := range cmds {
		got, err := ReadCommand(r)
		if err != nil {
			t.Fatalf("read %T: %v", want, err)
		}
		if got != want {
			t.Fatalf("expected %#v, got %#v", want, got)
		}
	}
	if _, err := ReadCommand(r); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

// TestParseCommand_Defaults verifies aliases, default swipe duration and raw text.
func TestParseCommand_Defaults(t *testing.T) {
	cases := map[string]Command{
		"list":                   ListDevices{},
		"DEVICES":                ListDevices{},
		"swipe 0x10 1 2 3 4":     Swipe{Handle: 0x10, X1: 1, Y1: 2, X2: 3, Y2: 4, DurationMs: 500},
		"text 16 hello there":    Text{Handle: 16, Text: "hello there"},
		"key 0x10 Return":        Key{Handle: 0x10, Key: input.KeyEnter},
		"click 0x100 10 10\r":    Click{Handle: 0x100, X: 10, Y: 10},
		"  screenshot   0x100  ": Screenshot{Handle: 0x100},
		"size 0X1a2b":            Size{Handle: 0x1A2B},
	}
	for line, want := range cases {
		got, err := ParseCommand(line)
		if err != nil {
			t.Fatalf("parse %q: %v", line, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %#v, got %#v", line, want, got)
		}
	}
}

// TestParseCommand_Errors verifies error kinds for malformed frames.
func TestParseCommand_Errors(t *testing.T) {
	cases := map[string]failure.Kind{
		"bogus 1 2":              failure.UnknownCommand,
		"coord 0x100":            failure.UnknownCommand,
		"click 0x100 10":         failure.BadArguments,
		"click 0x100 10 ten":     failure.BadArguments,
		"swipe 0x1 1 2 3":        failure.BadArguments,
		"swipe 0x1 1 2 3 4 -5":   failure.BadArguments,
		"key 0x100 hyper":        failure.BadArguments,
		"key 0x100":              failure.BadArguments,
		"ping extra":             failure.BadArguments,
		"click 0xZZ 1 1":         failure.InvalidHandle,
		"screenshot notahandle":  failure.InvalidHandle,
		`text 0x1 "unterminated`: failure.BadArguments,
		"text":                   failure.BadArguments,
	}
	for line, want := range cases {
		_, err := ParseCommand(line)
		if got := failure.KindOf(err); got != want {
			t.Fatalf("parse %q: expected %s, got %v", line, want, err)
		}
	}
}

// TestReadCommand_SkipsBlankLines verifies keepalive newlines are ignored.
func TestReadCommand_SkipsBlankLines(t *testing.T) {
	got, err := ReadCommand(reader("\n\r\n  \nping\n"))
	if err != nil || got != (Ping{}) {
		t.Fatalf("expected ping, got %v err=%v", got, err)
	}
}

// TestReadCommand_LineTooLong verifies oversized frames fail without desyncing the stream.
func TestReadCommand_LineTooLong(t *testing.T) {
	r := reader("text 0x1 " + strings.Repeat("a", MaxLineBytes+10) + "\nping\n")
	if _, err := ReadCommand(r); failure.KindOf(err) != failure.BadArguments {
		t.Fatalf("expected BadArguments, got %v", err)
	}
	got, err := ReadCommand(r)
	if err != nil || got != (Ping{}) {
		t.Fatalf("expected ping after oversized line, got %v err=%v", got, err)
	}
}

func roundTripResponse(t *testing.T, cmd Command, resp Response) Response {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteResponse(&buf, resp); err != nil {
		t.Fatalf("write response: %v", err)
	}
	r := bufio.NewReader(&buf)
	got, err := ReadResponse(r, cmd)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if r.Buffered() != 0 {
		t.Fatalf("expected response to be fully consumed, %d bytes left", r.Buffered())
	}
	return got
}

// TestResponse_Ack verifies the plain OK frame.
func TestResponse_Ack(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResponse(&buf, OK(Ack{})); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "OK\n" {
		t.Fatalf("expected OK line, got %q", buf.String())
	}
	got := roundTripResponse(t, Click{Handle: 1}, OK(Ack{}))
	if got.Err != nil || got.Payload != (Ack{}) {
		t.Fatalf("expected ack, got %+v", got)
	}
}

// TestResponse_Pong verifies the ping handshake.
func TestResponse_Pong(t *testing.T) {
	got := roundTripResponse(t, Ping{}, OK(Pong{}))
	if got.Payload != (Pong{}) {
		t.Fatalf("expected pong, got %+v", got)
	}
}

// TestResponse_Devices verifies device lines survive titles with spaces and quotes.
func TestResponse_Devices(t *testing.T) {
	devices := []window.Info{
		{Handle: 0x100, Title: "Untitled - Notepad", Class: "Notepad", Minimized: true, Client: window.Rect{X: 8, Y: 31, W: 800, H: 600}},
		{Handle: 0x2A, Title: `say "hi"` + "\n", Client: window.Rect{X: -1920, Y: 0, W: 1, H: 1}},
	}
	got := roundTripResponse(t, ListDevices{}, OK(DeviceList{Devices: devices}))
	list, ok := got.Payload.(DeviceList)
	if !ok || len(list.Devices) != 2 {
		t.Fatalf("expected 2 devices, got %+v", got)
	}
	for i := range devices {
		if list.Devices[i] != devices[i] {
			t.Fatalf("expected %+v, got %+v", devices[i], list.Devices[i])
		}
	}
}

// TestResponse_Screenshot verifies the binary block follows the status line.
func TestResponse_Screenshot(t *testing.T) {
	bmp := capture.NewBitmap(3, 2)
	for i := range bmp.Pix {
		bmp.Pix[i] = byte(i)
	}
	bmp.Pix[5] = '\n'

	var buf bytes.Buffer
	if err := WriteResponse(&buf, OK(Image{Bitmap: bmp})); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "OK 3 2 24\n") {
		t.Fatalf("unexpected header %q", buf.String()[:12])
	}
	buf.WriteString("OK\n")

	r := bufio.NewReader(&buf)
	got, err := ReadResponse(r, Screenshot{Handle: 1})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	img := got.Payload.(Image).Bitmap
	if img.Width != 3 || img.Height != 2 || !bytes.Equal(img.Pix, bmp.Pix) {
		t.Fatalf("pixel block mismatch: %+v", img)
	}
	next, err := ReadResponse(r, Click{Handle: 1})
	if err != nil || next.Payload != (Ack{}) {
		t.Fatalf("expected stream aligned after block, got %+v err=%v", next, err)
	}
}

// TestResponse_ScreenshotTruncated verifies a short block is a transport error.
func TestResponse_ScreenshotTruncated(t *testing.T) {
	_, err := ReadResponse(reader("OK 2 2 16\nabc"), Screenshot{Handle: 1})
	if err == nil {
		t.Fatalf("expected error for truncated block")
	}
}

// TestResponse_ScreenshotBadHeader verifies the byte count must match the dimensions.
func TestResponse_ScreenshotBadHeader(t *testing.T) {
	if _, err := ReadResponse(reader("OK 2 2 15\n"), Screenshot{Handle: 1}); err == nil {
		t.Fatalf("expected error for inconsistent header")
	}
}

// TestResponse_Size verifies the size payload.
func TestResponse_Size(t *testing.T) {
	got := roundTripResponse(t, Size{Handle: 1}, OK(Dimensions{Width: 640, Height: 480}))
	if got.Payload != (Dimensions{Width: 640, Height: 480}) {
		t.Fatalf("expected 640x480, got %+v", got)
	}
}

// TestResponse_Error verifies ERR frames carry kind and message.
func TestResponse_Error(t *testing.T) {
	resp := Fail(failure.New(failure.NotFound, "no window titled %q", "Paint"), failure.PlatformError)
	var buf bytes.Buffer
	if err := WriteResponse(&buf, resp); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "ERR NotFound \"no window titled \\\"Paint\\\"\"\n" {
		t.Fatalf("unexpected frame %q", buf.String())
	}
	got, err := ReadResponse(bufio.NewReader(&buf), Screenshot{Handle: 1})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Err == nil || got.Err.Kind != failure.NotFound || got.Err.Msg != `no window titled "Paint"` {
		t.Fatalf("unexpected error response %+v", got.Err)
	}
	if failure.KindOf(got.AsError()) != failure.NotFound {
		t.Fatalf("expected AsError to keep the kind")
	}
}

// TestFail_DefaultKind verifies unclassified errors get the default kind.
func TestFail_DefaultKind(t *testing.T) {
	resp := Fail(errors.New("boom"), failure.InjectionFailed)
	if resp.Err.Kind != failure.InjectionFailed || resp.Err.Msg != "boom" {
		t.Fatalf("unexpected %+v", resp.Err)
	}
}

// TestReadResponse_BadStatus verifies garbage status lines are rejected.
func TestReadResponse_BadStatus(t *testing.T) {
	if _, err := ReadResponse(reader("HELLO\n"), Ping{}); err == nil {
		t.Fatalf("expected error for bad status")
	}
	if _, err := ReadResponse(reader("OK 1 2\n"), Click{Handle: 1}); err == nil {
		t.Fatalf("expected error for unexpected payload")
	}
}

// TestFormatResponse_SplitsImage verifies the pixel block is returned apart from the status line.
func TestFormatResponse_SplitsImage(t *testing.T) {
	bmp := capture.NewBitmap(2, 1)
	bmp.Pix[0] = 9
	text, block, err := FormatResponse(OK(Image{Bitmap: bmp}))
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if text != "OK 2 1 8\n" {
		t.Fatalf("expected header line, got %q", text)
	}
	if len(block) != 8 || block[0] != 9 {
		t.Fatalf("expected 8 pixel bytes, got %v", block)
	}
	text, block, err = FormatResponse(OK(Dimensions{Width: 3, Height: 4}))
	if err != nil || text != "OK 3 4\n" || block != nil {
		t.Fatalf("unexpected size frame %q %v err=%v", text, block, err)
	}
}
