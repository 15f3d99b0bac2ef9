package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/frudas24/pdb/internal/capture"
	"github.com/frudas24/pdb/internal/client"
	"github.com/frudas24/pdb/internal/config"
	"github.com/frudas24/pdb/internal/control"
	"github.com/frudas24/pdb/internal/failure"
	"github.com/frudas24/pdb/internal/output"
	"github.com/frudas24/pdb/internal/server"
	"github.com/frudas24/pdb/internal/testutil"
	"github.com/frudas24/pdb/internal/window"
)

func notepad() window.Info {
	return window.Info{Handle: 0x100, Title: "Untitled - Notepad", Class: "Notepad", Minimized: true, Client: window.Rect{X: 50, Y: 60, W: 320, H: 200}}
}

func newController(desk *testutil.FakeDesktop, inj *testutil.FakeInjector) *control.Controller {
	opts := control.DefaultOptions()
	opts.Sleep = func(time.Duration) {}
	return control.New(desk, inj, capture.NewPipeline(desk, time.Second, time.Millisecond), opts)
}

// testDeps wires the commands to an in-memory desktop. opens counts local backend constructions.
func testDeps(ctrl *control.Controller, opens *int) Deps {
	return Deps{
		OpenLocal: func() (Local, error) {
			*opens++
			return Local{Controller: ctrl, Close: func() error { return nil }}, nil
		},
		Dial: client.Dial,
		LoadConfig: func() (config.Client, error) {
			return config.Client{ServerAddr: "127.0.0.1:1", TimeoutMs: 2000, Format: "table"}, nil
		},
	}
}

func run(ctx context.Context, deps Deps, args ...string) (string, error) {
	root := NewRootCmd(deps)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func startDaemon(t *testing.T, ctrl *control.Controller) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = server.New(server.NewDispatcher(ctrl), 0).Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			t.Errorf("daemon did not stop")
		}
	})
	return ln.Addr().String()
}

// TestRoot_HasSubcommands verifies the command vocabulary is registered.
func TestRoot_HasSubcommands(t *testing.T) {
	root := NewRootCmd(DefaultDeps())
	found := make(map[string]bool)
	for _, c := range root.Commands() {
		found[c.Name()] = true
	}
	for _, name := range []string{"devices", "click", "swipe", "text", "key", "screenshot", "size", "focus", "coord", "ping", "mcp"} {
		if !found[name] {
			t.Fatalf("expected subcommand %q", name)
		}
	}
	for _, flag := range []string{"server", "local", "format"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Fatalf("expected persistent flag --%s", flag)
		}
	}
}

// TestClick_LocalMinimized verifies a local click prints OK and re-minimizes the window.
func TestClick_LocalMinimized(t *testing.T) {
	desk := testutil.NewFakeDesktop(notepad())
	inj := &testutil.FakeInjector{}
	opens := 0
	out, err := run(context.Background(), testDeps(newController(desk, inj), &opens), "--local", "click", "0x100", "10", "10")
	if err != nil {
		t.Fatalf("click: %v", err)
	}
	if out != "OK\n" {
		t.Fatalf("expected OK, got %q", out)
	}
	info, _ := desk.Window(0x100)
	if !info.Minimized {
		t.Fatalf("expected window minimized again")
	}
	calls := inj.Calls()
	if len(calls) == 0 || calls[0].X != 60 || calls[0].Y != 70 {
		t.Fatalf("expected move to screen (60,70), got %+v", calls)
	}
}

// TestClick_NegativeCoordinates verifies negative client points are passed as arguments, not flags.
func TestClick_NegativeCoordinates(t *testing.T) {
	desk := testutil.NewFakeDesktop(notepad())
	inj := &testutil.FakeInjector{}
	opens := 0
	deps := testDeps(newController(desk, inj), &opens)
	out, err := run(context.Background(), deps, "--local", "click", "0x100", "-5", "10")
	if err != nil {
		t.Fatalf("click: %v", err)
	}
	if out != "OK\n" {
		t.Fatalf("expected OK, got %q", out)
	}
	calls := inj.Calls()
	if len(calls) == 0 || calls[0].X != 45 || calls[0].Y != 70 {
		t.Fatalf("expected move to screen (45,70), got %+v", calls)
	}
	if _, err := run(context.Background(), deps, "--local", "swipe", "0x100", "-1", "-2", "3", "4", "0"); err != nil {
		t.Fatalf("swipe with negative start: %v", err)
	}
}

// TestClick_BadArguments verifies argument errors are reported before any backend opens.
func TestClick_BadArguments(t *testing.T) {
	opens := 0
	deps := testDeps(newController(testutil.NewFakeDesktop(notepad()), &testutil.FakeInjector{}), &opens)

	_, err := run(context.Background(), deps, "--local", "click", "0x100", "ten", "10")
	if failure.KindOf(err) != failure.BadArguments {
		t.Fatalf("expected BadArguments, got %v", err)
	}
	if _, err := run(context.Background(), deps, "--local", "click", "0x100", "10"); err == nil {
		t.Fatalf("expected arg count error")
	}
	if _, err := run(context.Background(), deps, "--local", "swipe", "0x100", "1", "2", "3", "4", "-5"); failure.KindOf(err) != failure.BadArguments {
		t.Fatalf("expected BadArguments for negative duration, got %v", err)
	}
	if _, err := run(context.Background(), deps, "--local", "key", "0x100", "hyper"); failure.KindOf(err) != failure.BadArguments {
		t.Fatalf("expected BadArguments for unknown key, got %v", err)
	}
	if opens != 0 {
		t.Fatalf("expected no backend opened, got %d", opens)
	}
}

// TestSize_TitleLookup verifies a title substring resolves to the first matching window.
func TestSize_TitleLookup(t *testing.T) {
	desk := testutil.NewFakeDesktop(
		window.Info{Handle: 0x50, Title: "Calculator", Client: window.Rect{W: 100, H: 100}},
		notepad(),
	)
	opens := 0
	out, err := run(context.Background(), testDeps(newController(desk, &testutil.FakeInjector{}), &opens), "--local", "size", "NOTEPAD")
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if out != "320 200\n" {
		t.Fatalf("expected 320 200, got %q", out)
	}
	if _, err := run(context.Background(), testDeps(newController(desk, &testutil.FakeInjector{}), &opens), "--local", "size", "Paint"); failure.KindOf(err) != failure.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

// TestText_JoinsArguments verifies trailing arguments are typed with single spaces.
func TestText_JoinsArguments(t *testing.T) {
	desk := testutil.NewFakeDesktop(notepad())
	inj := &testutil.FakeInjector{}
	opens := 0
	if _, err := run(context.Background(), testDeps(newController(desk, inj), &opens), "--local", "text", "0x100", "hi", "there"); err != nil {
		t.Fatalf("text: %v", err)
	}
	var typed strings.Builder
	for _, c := range inj.Calls() {
		typed.WriteString(c.Text)
	}
	if typed.String() != "hi there" {
		t.Fatalf("expected %q typed, got %q", "hi there", typed.String())
	}
}

// TestDevices_JSON verifies the device list honours --format json.
func TestDevices_JSON(t *testing.T) {
	desk := testutil.NewFakeDesktop(notepad())
	opens := 0
	out, err := run(context.Background(), testDeps(newController(desk, &testutil.FakeInjector{}), &opens), "--local", "--format", "json", "list")
	if err != nil {
		t.Fatalf("devices: %v", err)
	}
	var got []output.Device
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid json %q: %v", out, err)
	}
	if len(got) != 1 || got[0].Handle != "0x100" || !got[0].Minimized {
		t.Fatalf("unexpected devices %+v", got)
	}
}

// TestFormat_Invalid verifies an unknown format is rejected.
func TestFormat_Invalid(t *testing.T) {
	opens := 0
	deps := testDeps(newController(testutil.NewFakeDesktop(), &testutil.FakeInjector{}), &opens)
	if _, err := run(context.Background(), deps, "--local", "--format", "xml", "devices"); err == nil {
		t.Fatalf("expected format error")
	}
}

// TestScreenshot_Remote verifies a remote capture is saved locally without touching window state.
func TestScreenshot_Remote(t *testing.T) {
	desk := testutil.NewFakeDesktop(notepad())
	opens := 0
	deps := testDeps(newController(desk, &testutil.FakeInjector{}), &opens)
	addr := startDaemon(t, newController(desk, &testutil.FakeInjector{}))
	path := filepath.Join(t.TempDir(), "shot.png")

	out, err := run(context.Background(), deps, "--server", addr, "screenshot", "0x100", path)
	if err != nil {
		t.Fatalf("screenshot: %v", err)
	}
	if !strings.Contains(out, "320x200") {
		t.Fatalf("expected size in output, got %q", out)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if cfg.Width != 320 || cfg.Height != 200 {
		t.Fatalf("expected 320x200, got %dx%d", cfg.Width, cfg.Height)
	}
	if desk.Count("Restore") != 0 || desk.Count("Minimize") != 0 {
		t.Fatalf("expected no window transitions, got %+v", desk.Events())
	}
	if opens != 0 {
		t.Fatalf("expected remote path only, got %d local opens", opens)
	}
}

// TestPing_Remote verifies ping answers pong from a daemon and is refused locally.
func TestPing_Remote(t *testing.T) {
	desk := testutil.NewFakeDesktop()
	opens := 0
	deps := testDeps(newController(desk, &testutil.FakeInjector{}), &opens)
	addr := startDaemon(t, newController(desk, &testutil.FakeInjector{}))

	out, err := run(context.Background(), deps, "--server", addr, "ping")
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if out != "pong\n" {
		t.Fatalf("expected pong, got %q", out)
	}
	if _, err := run(context.Background(), deps, "--local", "ping"); failure.KindOf(err) != failure.BadArguments {
		t.Fatalf("expected BadArguments for local ping, got %v", err)
	}
}

// TestRemote_ConnectionRefused verifies dial failures surface as ConnectionError.
func TestRemote_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	opens := 0
	deps := testDeps(newController(testutil.NewFakeDesktop(), &testutil.FakeInjector{}), &opens)
	if _, err := run(context.Background(), deps, "--server", addr, "devices"); failure.KindOf(err) != failure.ConnectionError {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
}

// TestCoord_LocalStream verifies the cursor is printed in client coordinates until cancelled.
func TestCoord_LocalStream(t *testing.T) {
	desk := testutil.NewFakeDesktop(notepad())
	desk.SetCursor(window.Point{X: 60, Y: 80})
	opens := 0
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	out, err := run(ctx, testDeps(newController(desk, &testutil.FakeInjector{}), &opens), "coord", "0x100")
	if err != nil {
		t.Fatalf("coord: %v", err)
	}
	if out != "10 20\n" {
		t.Fatalf("expected one sample 10 20, got %q", out)
	}
}

// TestCoord_RejectsServer verifies coord refuses an explicit daemon address.
func TestCoord_RejectsServer(t *testing.T) {
	opens := 0
	deps := testDeps(newController(testutil.NewFakeDesktop(notepad()), &testutil.FakeInjector{}), &opens)
	if _, err := run(context.Background(), deps, "--server", "127.0.0.1:5037", "coord", "0x100"); failure.KindOf(err) != failure.BadArguments {
		t.Fatalf("expected BadArguments, got %v", err)
	}
	if opens != 0 {
		t.Fatalf("expected no backend opened")
	}
}
