package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/frudas24/pdb/internal/capture"
	"github.com/frudas24/pdb/internal/failure"
	"github.com/frudas24/pdb/internal/input"
	"github.com/frudas24/pdb/internal/window"
)

const (
	// MaxLineBytes bounds a single text frame.
	MaxLineBytes = 1 << 20
	// MaxImageBytes bounds a screenshot block (8K RGBA with room to spare).
	MaxImageBytes = 256 << 20
	// MaxDevices bounds a device list.
	MaxDevices = 1 << 16
)

// ErrLineTooLong is returned when a frame exceeds MaxLineBytes.
var ErrLineTooLong = errors.New("protocol: frame exceeds line limit")

// EncodeCommand renders c as a frame without the trailing newline.
func EncodeCommand(c Command) string {
	switch v := c.(type) {
	case ListDevices, Ping:
		return v.Name()
	case Click:
		return fmt.Sprintf("click %s %d %d", v.Handle, v.X, v.Y)
	case Swipe:
		return fmt.Sprintf("swipe %s %d %d %d %d %d", v.Handle, v.X1, v.Y1, v.X2, v.Y2, v.DurationMs)
	case Text:
		return fmt.Sprintf("text %s %s", v.Handle, strconv.Quote(v.Text))
	case Key:
		return fmt.Sprintf("key %s %s", v.Handle, v.Key)
	case Screenshot:
		return "screenshot " + v.Handle.String()
	case Size:
		return "size " + v.Handle.String()
	case Focus:
		return "focus " + v.Handle.String()
	default:
		panic(fmt.Sprintf("protocol: unhandled command %T", c))
	}
}

// WriteCommand writes one request frame.
func WriteCommand(w io.Writer, c Command) error {
	_, err := io.WriteString(w, EncodeCommand(c)+"\n")
	return err
}

// ReadCommand reads the next non-blank request frame. Transport errors are
// returned as-is; malformed frames come back as *failure.Error with kind
// UnknownCommand, BadArguments or InvalidHandle and leave the stream usable.
func ReadCommand(r *bufio.Reader) (Command, error) {
	for {
		line, err := readLine(r)
		if err != nil {
			if errors.Is(err, ErrLineTooLong) {
				return nil, failure.Wrap(failure.BadArguments, err, "")
			}
			return nil, err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		return ParseCommand(line)
	}
}

// ParseCommand decodes one frame.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")
	name, rest := cutToken(strings.TrimLeft(line, " "))
	switch strings.ToLower(name) {
	case "devices", "list":
		if err := wantArgs(name, rest, 0); err != nil {
			return nil, err
		}
		return ListDevices{}, nil
	case "ping":
		if err := wantArgs(name, rest, 0); err != nil {
			return nil, err
		}
		return Ping{}, nil
	case "click":
		args, err := splitArgs(rest)
		if err != nil {
			return nil, err
		}
		if len(args) != 3 {
			return nil, argCount("click", "<handle> <x> <y>", len(args))
		}
		h, err := window.ParseHandle(args[0])
		if err != nil {
			return nil, err
		}
		xs, err := parseInts(args[1:])
		if err != nil {
			return nil, err
		}
		return Click{Handle: h, X: xs[0], Y: xs[1]}, nil
	case "swipe":
		args, err := splitArgs(rest)
		if err != nil {
			return nil, err
		}
		if len(args) != 5 && len(args) != 6 {
			return nil, argCount("swipe", "<handle> <x1> <y1> <x2> <y2> [duration_ms]", len(args))
		}
		h, err := window.ParseHandle(args[0])
		if err != nil {
			return nil, err
		}
		xs, err := parseInts(args[1:])
		if err != nil {
			return nil, err
		}
		s := Swipe{Handle: h, X1: xs[0], Y1: xs[1], X2: xs[2], Y2: xs[3], DurationMs: DefaultSwipeMs}
		if len(xs) == 5 {
			if xs[4] < 0 {
				return nil, failure.New(failure.BadArguments, "swipe duration must be >= 0, got %d", xs[4])
			}
			s.DurationMs = xs[4]
		}
		return s, nil
	case "text":
		token, remainder := cutToken(rest)
		if token == "" {
			return nil, argCount("text", "<handle> <text>", 0)
		}
		h, err := window.ParseHandle(token)
		if err != nil {
			return nil, err
		}
		text, err := decodeText(remainder)
		if err != nil {
			return nil, err
		}
		return Text{Handle: h, Text: text}, nil
	case "key":
		args, err := splitArgs(rest)
		if err != nil {
			return nil, err
		}
		if len(args) != 2 {
			return nil, argCount("key", "<handle> <key>", len(args))
		}
		h, err := window.ParseHandle(args[0])
		if err != nil {
			return nil, err
		}
		k, err := input.ParseKey(args[1])
		if err != nil {
			return nil, err
		}
		return Key{Handle: h, Key: k}, nil
	case "screenshot", "size", "focus":
		args, err := splitArgs(rest)
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, argCount(strings.ToLower(name), "<handle>", len(args))
		}
		h, err := window.ParseHandle(args[0])
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(name) {
		case "screenshot":
			return Screenshot{Handle: h}, nil
		case "size":
			return Size{Handle: h}, nil
		default:
			return Focus{Handle: h}, nil
		}
	case "":
		return nil, failure.New(failure.UnknownCommand, "empty command")
	default:
		return nil, failure.New(failure.UnknownCommand, "unknown command %q", name)
	}
}

// FormatResponse renders resp as its text lines and, for screenshots, the
// raw pixel block that follows them on the wire.
func FormatResponse(resp Response) (string, []byte, error) {
	var sb strings.Builder
	if resp.Err != nil {
		fmt.Fprintf(&sb, "ERR %s %s\n", resp.Err.Kind, strconv.Quote(failure.Message(resp.Err)))
		return sb.String(), nil, nil
	}
	switch p := resp.Payload.(type) {
	case nil, Ack:
		sb.WriteString("OK\n")
	case Pong:
		sb.WriteString("OK pong\n")
	case Dimensions:
		fmt.Fprintf(&sb, "OK %d %d\n", p.Width, p.Height)
	case DeviceList:
		fmt.Fprintf(&sb, "OK %d\n", len(p.Devices))
		for _, d := range p.Devices {
			sb.WriteString(encodeDevice(d))
			sb.WriteByte('\n')
		}
	case Image:
		if p.Bitmap == nil {
			return "", nil, errors.New("protocol: image response without bitmap")
		}
		if err := p.Bitmap.Validate(); err != nil {
			return "", nil, fmt.Errorf("protocol: %w", err)
		}
		fmt.Fprintf(&sb, "OK %d %d %d\n", p.Bitmap.Width, p.Bitmap.Height, len(p.Bitmap.Pix))
		return sb.String(), p.Bitmap.Pix, nil
	default:
		return "", nil, fmt.Errorf("protocol: unhandled payload %T", p)
	}
	return sb.String(), nil, nil
}

// WriteResponse writes one response frame.
func WriteResponse(w io.Writer, resp Response) error {
	text, block, err := FormatResponse(resp)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	bw.WriteString(text)
	if block != nil {
		bw.Write(block)
	}
	return bw.Flush()
}

// ReadResponse reads the response to cmd. An ERR frame is returned as a
// Response with Err set and a nil error; the error return is reserved for
// transport and framing problems.
func ReadResponse(r *bufio.Reader, cmd Command) (Response, error) {
	line, err := readLine(r)
	if err != nil {
		return Response{}, err
	}
	status, rest := cutToken(line)
	switch status {
	case "ERR":
		return Response{Err: decodeError(rest)}, nil
	case "OK":
	default:
		return Response{}, fmt.Errorf("protocol: bad status line %q", line)
	}

	fields := strings.Fields(rest)
	switch cmd.(type) {
	case Ping:
		if len(fields) != 1 || fields[0] != "pong" {
			return Response{}, fmt.Errorf("protocol: unexpected ping reply %q", line)
		}
		return OK(Pong{}), nil
	case ListDevices:
		if len(fields) != 1 {
			return Response{}, fmt.Errorf("protocol: bad device count %q", line)
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil || n < 0 || n > MaxDevices {
			return Response{}, fmt.Errorf("protocol: bad device count %q", line)
		}
		devices := make([]window.Info, 0, n)
		for i := 0; i < n; i++ {
			dl, err := readLine(r)
			if err != nil {
				return Response{}, err
			}
			d, err := decodeDevice(dl)
			if err != nil {
				return Response{}, err
			}
			devices = append(devices, d)
		}
		return OK(DeviceList{Devices: devices}), nil
	case Size:
		xs, err := parseInts(fields)
		if err != nil || len(xs) != 2 {
			return Response{}, fmt.Errorf("protocol: bad size reply %q", line)
		}
		return OK(Dimensions{Width: xs[0], Height: xs[1]}), nil
	case Screenshot:
		xs, err := parseInts(fields)
		if err != nil || len(xs) != 3 {
			return Response{}, fmt.Errorf("protocol: bad screenshot header %q", line)
		}
		w, h, n := xs[0], xs[1], xs[2]
		if w <= 0 || h <= 0 || n != w*h*4 || n > MaxImageBytes {
			return Response{}, fmt.Errorf("protocol: bad screenshot header %q", line)
		}
		pix := make([]byte, n)
		if _, err := io.ReadFull(r, pix); err != nil {
			return Response{}, fmt.Errorf("protocol: read pixel block: %w", err)
		}
		return OK(Image{Bitmap: &capture.Bitmap{Width: w, Height: h, Pix: pix}}), nil
	default:
		if len(fields) != 0 {
			return Response{}, fmt.Errorf("protocol: unexpected payload for %s: %q", cmd.Name(), line)
		}
		return OK(Ack{}), nil
	}
}

func encodeDevice(d window.Info) string {
	minimized := 0
	if d.Minimized {
		minimized = 1
	}
	return fmt.Sprintf("%s %d %d %d %d %d %s %s", d.Handle, minimized,
		d.Client.X, d.Client.Y, d.Client.W, d.Client.H,
		strconv.Quote(d.Title), strconv.Quote(d.Class))
}

func decodeDevice(line string) (window.Info, error) {
	args, err := splitArgs(line)
	if err != nil || len(args) < 7 {
		return window.Info{}, fmt.Errorf("protocol: bad device line %q", line)
	}
	h, err := window.ParseHandle(args[0])
	if err != nil {
		return window.Info{}, fmt.Errorf("protocol: bad device line %q: %w", line, err)
	}
	xs, err := parseInts(args[1:6])
	if err != nil {
		return window.Info{}, fmt.Errorf("protocol: bad device line %q: %w", line, err)
	}
	d := window.Info{
		Handle:    h,
		Minimized: xs[0] != 0,
		Client:    window.Rect{X: xs[1], Y: xs[2], W: xs[3], H: xs[4]},
		Title:     args[6],
	}
	if len(args) > 7 {
		d.Class = args[7]
	}
	return d, nil
}

func decodeError(rest string) *failure.Error {
	name, msg := cutToken(rest)
	kind, ok := failure.ParseKind(name)
	if !ok {
		kind = failure.PlatformError
		msg = rest
	}
	if unq, err := strconv.Unquote(msg); err == nil {
		msg = unq
	}
	return &failure.Error{Kind: kind, Msg: msg}
}

// decodeText accepts either one quoted string or the raw remainder of the line.
func decodeText(rest string) (string, error) {
	if strings.HasPrefix(rest, `"`) {
		s, err := strconv.Unquote(rest)
		if err != nil {
			return "", failure.Wrap(failure.BadArguments, err, "text: bad quoted string")
		}
		return s, nil
	}
	return rest, nil
}

// readLine returns one line without its terminator. io.EOF is returned only
// when no bytes were read.
func readLine(r *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		chunk, err := r.ReadSlice('\n')
		if sb.Len()+len(chunk) > MaxLineBytes {
			if err == nil {
				return "", ErrLineTooLong
			}
			// Drain the rest of the oversized line so the stream stays aligned.
			for errors.Is(err, bufio.ErrBufferFull) {
				_, err = r.ReadSlice('\n')
			}
			return "", ErrLineTooLong
		}
		sb.Write(chunk)
		switch {
		case err == nil:
			return strings.TrimRight(sb.String(), "\r\n"), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && sb.Len() > 0:
			return strings.TrimRight(sb.String(), "\r\n"), nil
		default:
			return "", err
		}
	}
}

// cutToken splits off the first space separated token.
func cutToken(s string) (string, string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeft(s[i+1:], " \t")
}

// splitArgs splits on whitespace, honoring Go-quoted strings.
func splitArgs(s string) ([]string, error) {
	var out []string
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return out, nil
		}
		if s[0] == '"' {
			end := quotedEnd(s)
			if end < 0 {
				return nil, failure.New(failure.BadArguments, "unterminated quoted argument")
			}
			v, err := strconv.Unquote(s[:end])
			if err != nil {
				return nil, failure.Wrap(failure.BadArguments, err, "bad quoted argument")
			}
			out = append(out, v)
			s = s[end:]
			continue
		}
		tok, rest := cutToken(s)
		out = append(out, tok)
		s = rest
	}
}

// quotedEnd returns the index just past the closing quote of a string that
// starts with a quote, or -1.
func quotedEnd(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return -1
}

func parseInts(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, failure.New(failure.BadArguments, "expected integer, got %q", a)
		}
		out[i] = v
	}
	return out, nil
}

func wantArgs(name, rest string, n int) error {
	args, err := splitArgs(rest)
	if err != nil {
		return err
	}
	if len(args) != n {
		return failure.New(failure.BadArguments, "%s takes no arguments, got %d", strings.ToLower(name), len(args))
	}
	return nil
}

func argCount(name, usage string, got int) error {
	return failure.New(failure.BadArguments, "usage: %s %s (got %d arguments)", name, usage, got)
}
