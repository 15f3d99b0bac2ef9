package capture

import (
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/image/bmp"

	"github.com/frudas24/pdb/internal/failure"
	"github.com/frudas24/pdb/internal/window"
)

type grabFunc func(h window.Handle) (*Bitmap, error)

func (f grabFunc) Grab(h window.Handle) (*Bitmap, error) {
	return f(h)
}

// TestFromBGRA_SwapsChannels verifies BGRA input becomes opaque RGBA.
func TestFromBGRA_SwapsChannels(t *testing.T) {
	src := []byte{
		1, 2, 3, 0, 4, 5, 6, 0, 0xEE, 0xEE, // row 0 plus 2 bytes padding
		7, 8, 9, 0, 10, 11, 12, 0, 0xEE, 0xEE,
	}
	b, err := FromBGRA(2, 2, 10, src)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	want := []byte{3, 2, 1, 255, 6, 5, 4, 255, 9, 8, 7, 255, 12, 11, 10, 255}
	if string(b.Pix) != string(want) {
		t.Fatalf("expected %v, got %v", want, b.Pix)
	}
}

// TestFromBGRA_ShortBuffer verifies undersized buffers are rejected.
func TestFromBGRA_ShortBuffer(t *testing.T) {
	if _, err := FromBGRA(2, 2, 8, make([]byte, 12)); err == nil {
		t.Fatalf("expected error for short buffer")
	}
}

// TestCapture_ReturnsFrame verifies a ready frame is returned as-is.
func TestCapture_ReturnsFrame(t *testing.T) {
	p := NewPipeline(grabFunc(func(window.Handle) (*Bitmap, error) {
		return NewBitmap(4, 3), nil
	}), time.Second, time.Millisecond)
	b, err := p.Capture(context.Background(), 0x100)
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if b.Width != 4 || b.Height != 3 {
		t.Fatalf("expected 4x3, got %dx%d", b.Width, b.Height)
	}
}

// TestCapture_TimeoutWithoutFrame verifies CaptureTimeout when the compositor never produces a frame.
func TestCapture_TimeoutWithoutFrame(t *testing.T) {
	p := NewPipeline(grabFunc(func(window.Handle) (*Bitmap, error) {
		return nil, ErrNoFrame
	}), 30*time.Millisecond, 5*time.Millisecond)
	start := time.Now()
	_, err := p.Capture(context.Background(), 0x100)
	if failure.KindOf(err) != failure.CaptureTimeout {
		t.Fatalf("expected CaptureTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("timeout took too long: %s", elapsed)
	}
}

// TestCapture_TimeoutOnBlockedGrab verifies a stuck grabber is bounded by the timeout.
func TestCapture_TimeoutOnBlockedGrab(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	p := NewPipeline(grabFunc(func(window.Handle) (*Bitmap, error) {
		<-release
		return nil, ErrNoFrame
	}), 20*time.Millisecond, time.Millisecond)
	if _, err := p.Capture(context.Background(), 0x100); failure.KindOf(err) != failure.CaptureTimeout {
		t.Fatalf("expected CaptureTimeout, got %v", err)
	}
}

// TestCapture_FrameAfterRetry verifies polling continues until a frame appears.
func TestCapture_FrameAfterRetry(t *testing.T) {
	var calls atomic.Int32
	p := NewPipeline(grabFunc(func(window.Handle) (*Bitmap, error) {
		if calls.Add(1) < 3 {
			return nil, ErrNoFrame
		}
		return NewBitmap(2, 2), nil
	}), time.Second, time.Millisecond)
	if _, err := p.Capture(context.Background(), 0x100); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 grabs, got %d", calls.Load())
	}
}

// TestCapture_CachedFrameWhenNoSurface verifies the last frame is served once the surface disappears.
func TestCapture_CachedFrameWhenNoSurface(t *testing.T) {
	var minimized atomic.Bool
	p := NewPipeline(grabFunc(func(window.Handle) (*Bitmap, error) {
		if minimized.Load() {
			return nil, ErrNoFrame
		}
		return NewBitmap(8, 6), nil
	}), 50*time.Millisecond, time.Millisecond)
	if _, err := p.Capture(context.Background(), 0x100); err != nil {
		t.Fatalf("first capture failed: %v", err)
	}
	minimized.Store(true)
	b, err := p.Capture(context.Background(), 0x100)
	if err != nil {
		t.Fatalf("cached capture failed: %v", err)
	}
	if b.Width != 8 || b.Height != 6 {
		t.Fatalf("expected cached 8x6, got %dx%d", b.Width, b.Height)
	}
}

// TestCapture_WindowGoneForgetsCache verifies a vanished window drops its cached frame.
func TestCapture_WindowGoneForgetsCache(t *testing.T) {
	var gone atomic.Bool
	p := NewPipeline(grabFunc(func(h window.Handle) (*Bitmap, error) {
		if gone.Load() {
			return nil, failure.New(failure.WindowGone, "window %s closed", h)
		}
		return NewBitmap(1, 1), nil
	}), 50*time.Millisecond, time.Millisecond)
	if _, err := p.Capture(context.Background(), 0x100); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	gone.Store(true)
	if _, err := p.Capture(context.Background(), 0x100); failure.KindOf(err) != failure.WindowGone {
		t.Fatalf("expected WindowGone, got %v", err)
	}
	if p.cached(0x100) != nil {
		t.Fatalf("expected cache entry to be dropped")
	}
}

// TestCapture_PlainErrorClassified verifies unclassified grab errors become PlatformError.
func TestCapture_PlainErrorClassified(t *testing.T) {
	p := NewPipeline(grabFunc(func(window.Handle) (*Bitmap, error) {
		return nil, errors.New("BitBlt failed")
	}), time.Second, time.Millisecond)
	if _, err := p.Capture(context.Background(), 0x100); failure.KindOf(err) != failure.PlatformError {
		t.Fatalf("expected PlatformError, got %v", err)
	}
}

// TestSave_ByExtension verifies PNG and BMP files decode to the captured size.
func TestSave_ByExtension(t *testing.T) {
	dir := t.TempDir()
	b := NewBitmap(5, 4)

	pngPath := filepath.Join(dir, "shot.png")
	if err := Save(pngPath, b); err != nil {
		t.Fatalf("save png: %v", err)
	}
	f, err := os.Open(pngPath)
	if err != nil {
		t.Fatalf("open png: %v", err)
	}
	cfg, err := png.DecodeConfig(f)
	_ = f.Close()
	if err != nil || cfg.Width != 5 || cfg.Height != 4 {
		t.Fatalf("expected 5x4 png, got %+v err=%v", cfg, err)
	}

	bmpPath := filepath.Join(dir, "shot.BMP")
	if err := Save(bmpPath, b); err != nil {
		t.Fatalf("save bmp: %v", err)
	}
	f, err = os.Open(bmpPath)
	if err != nil {
		t.Fatalf("open bmp: %v", err)
	}
	cfg, err = bmp.DecodeConfig(f)
	_ = f.Close()
	if err != nil || cfg.Width != 5 || cfg.Height != 4 {
		t.Fatalf("expected 5x4 bmp, got %+v err=%v", cfg, err)
	}
}

// TestFormatForPath verifies extension mapping.
func TestFormatForPath(t *testing.T) {
	cases := map[string]Format{"a.png": FormatPNG, "a.JPG": FormatJPEG, "a.jpeg": FormatJPEG, "a.bmp": FormatBMP, "a": FormatPNG}
	for path, want := range cases {
		if got := FormatForPath(path); got != want {
			t.Fatalf("expected %s for %s, got %s", want, path, got)
		}
	}
}
