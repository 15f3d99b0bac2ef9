// Package capture produces window bitmaps through a platform grabber with a bounded wait.
package capture

import (
	"fmt"
	"image"
)

// Bitmap is a row-major RGBA image with a stride of 4*Width bytes.
type Bitmap struct {
	Width  int
	Height int
	Pix    []byte
}

// NewBitmap allocates a zeroed bitmap.
func NewBitmap(w, h int) *Bitmap {
	return &Bitmap{Width: w, Height: h, Pix: make([]byte, w*h*4)}
}

// Size returns the expected pixel buffer length for the dimensions.
func (b *Bitmap) Size() int {
	return b.Width * b.Height * 4
}

// Validate checks the buffer matches the dimensions.
func (b *Bitmap) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("invalid bitmap size %dx%d", b.Width, b.Height)
	}
	if len(b.Pix) != b.Size() {
		return fmt.Errorf("bitmap buffer is %d bytes, want %d", len(b.Pix), b.Size())
	}
	return nil
}

// Image wraps the pixel buffer without copying.
func (b *Bitmap) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// Clone returns a deep copy.
func (b *Bitmap) Clone() *Bitmap {
	out := &Bitmap{Width: b.Width, Height: b.Height, Pix: make([]byte, len(b.Pix))}
	copy(out.Pix, b.Pix)
	return out
}

// FromBGRA converts a 32-bit BGRA/BGRX buffer (GDI and X11 ZPixmap layout)
// into an opaque RGBA bitmap. stride is the source row length in bytes.
func FromBGRA(w, h, stride int, src []byte) (*Bitmap, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", w, h)
	}
	if stride < w*4 || len(src) < stride*(h-1)+w*4 {
		return nil, fmt.Errorf("frame buffer too small: %d bytes for %dx%d stride %d", len(src), w, h, stride)
	}
	out := NewBitmap(w, h)
	for y := 0; y < h; y++ {
		si := y * stride
		di := y * w * 4
		for x := 0; x < w; x++ {
			out.Pix[di+0] = src[si+2]
			out.Pix[di+1] = src[si+1]
			out.Pix[di+2] = src[si+0]
			out.Pix[di+3] = 255
			si += 4
			di += 4
		}
	}
	return out, nil
}
