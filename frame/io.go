package frame

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"

	// Register additional still-image decoders with image.Decode.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// I/O errors.
var (
	// ErrUnsupportedFormat is returned when an encoding is not supported.
	ErrUnsupportedFormat = errors.New("frame: unsupported format")

	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("frame: empty data")
)

// Load decodes an image file. PNG, JPEG, GIF, BMP, TIFF and WebP are
// recognized by content. The result is RGBA8 without an embedded profile.
func Load(path string) (*Frame, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("frame: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f)
}

// LoadBytes decodes an image held in memory.
func LoadBytes(data []byte) (*Frame, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	return Decode(bytes.NewReader(data))
}

// Decode decodes an image from the given reader, auto-detecting the format.
func Decode(r io.Reader) (*Frame, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("frame: decode: %w", err)
	}
	return FromImage(img), nil
}

// Save encodes the frame to a file, choosing PNG or JPEG by extension.
func (f *Frame) Save(path string) error {
	var encode func(io.Writer) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		encode = f.EncodePNG
	case ".jpg", ".jpeg":
		encode = func(w io.Writer) error { return f.EncodeJPEG(w, 90) }
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	out, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("frame: create file: %w", err)
	}
	if err := encode(out); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// EncodePNG encodes the frame as PNG to the given writer.
func (f *Frame) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, f.Image()); err != nil {
		return fmt.Errorf("frame: encode PNG: %w", err)
	}
	return nil
}

// EncodeJPEG encodes the frame as JPEG with the given quality (1-100).
func (f *Frame) EncodeJPEG(w io.Writer, quality int) error {
	quality = min(max(quality, 1), 100)
	if err := jpeg.Encode(w, f.Image(), &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("frame: encode JPEG: %w", err)
	}
	return nil
}

// FromImage creates an RGBA8 frame from a standard library image.
func FromImage(img image.Image) *Frame {
	bounds := img.Bounds()
	width, height := max(bounds.Dx(), 1), max(bounds.Dy(), 1)

	f, _ := New(width, height, FormatRGBA8)

	// Fast path for NRGBA images
	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := range bounds.Dy() {
			srcStart := y * nrgba.Stride
			copy(f.RowBytes(y), nrgba.Pix[srcStart:srcStart+bounds.Dx()*4])
		}
		return f
	}

	// Anything else goes through x/image/draw, which un-premultiplies into
	// an NRGBA view over the frame's storage.
	dst := &image.NRGBA{
		Pix:    f.data,
		Stride: f.stride,
		Rect:   image.Rect(0, 0, width, height),
	}
	xdraw.Draw(dst, dst.Rect, img, bounds.Min, xdraw.Src)
	return f
}

// Image converts the frame to a standard library image.
// Returns *image.Gray for grayscale and *image.NRGBA otherwise.
func (f *Frame) Image() image.Image {
	rect := image.Rect(0, 0, f.width, f.height)

	switch f.format {
	case FormatGray8:
		gray := image.NewGray(rect)
		for y := range f.height {
			copy(gray.Pix[y*gray.Stride:], f.RowBytes(y))
		}
		return gray

	case FormatRGBA8:
		nrgba := image.NewNRGBA(rect)
		for y := range f.height {
			copy(nrgba.Pix[y*nrgba.Stride:], f.RowBytes(y))
		}
		return nrgba

	default:
		nrgba := image.NewNRGBA(rect)
		for y := range f.height {
			for x := range f.width {
				r, g, b, a := f.GetRGBA(x, y)
				off := y*nrgba.Stride + x*4
				nrgba.Pix[off] = r
				nrgba.Pix[off+1] = g
				nrgba.Pix[off+2] = b
				nrgba.Pix[off+3] = a
			}
		}
		return nrgba
	}
}
