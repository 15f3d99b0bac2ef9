package capture

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
)

// Format names an on-disk image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatBMP  Format = "bmp"
)

// FormatForPath picks an encoding from a file extension, defaulting to PNG.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG
	case ".bmp":
		return FormatBMP
	default:
		return FormatPNG
	}
}

// Encode writes the bitmap in the given format.
func Encode(w io.Writer, b *Bitmap, f Format) error {
	if err := b.Validate(); err != nil {
		return err
	}
	img := b.Image()
	switch f {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case FormatBMP:
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("unsupported image format %q", f)
	}
}

// Save encodes the bitmap to path, choosing the format from the extension.
func Save(path string, b *Bitmap) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, b, FormatForPath(path)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// EncodeJPEG encodes a bitmap for preview streams.
func EncodeJPEG(b *Bitmap, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = 60
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, b.Image(), &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
