package frame

import (
	"bytes"
	"errors"

	"github.com/google/uuid"
)

// Common errors for frame operations.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("frame: invalid dimensions")

	// ErrInvalidFormat is returned when the format is not recognized.
	ErrInvalidFormat = errors.New("frame: invalid format")

	// ErrInvalidStride is returned when stride is less than minimum required.
	ErrInvalidStride = errors.New("frame: stride too small for width")

	// ErrDataTooSmall is returned when provided data is smaller than required.
	ErrDataTooSmall = errors.New("frame: data buffer too small")

	// ErrOutOfBounds is returned when pixel coordinates are outside bounds.
	ErrOutOfBounds = errors.New("frame: coordinates out of bounds")
)

// Frame is a single image buffer: an input still, a captured frame, an
// intermediate or an output of a filter chain.
//
// Every frame gets a unique ID at construction. The ID travels with derived
// results in logs and keys per-frame caches.
//
// Thread safety: Frame is safe for concurrent read access. Write operations
// (Set*, Clear, Fill) require external synchronization.
type Frame struct {
	id         string
	data       []byte
	width      int
	height     int
	stride     int
	format     Format
	colorSpace ColorSpace
}

// New creates a zeroed frame with the given dimensions and format.
func New(width, height int, format Format) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}

	stride := format.RowBytes(width)
	return &Frame{
		id:     uuid.NewString(),
		data:   make([]byte, stride*height),
		width:  width,
		height: height,
		stride: stride,
		format: format,
	}, nil
}

// FromRaw creates a frame over existing data without copying.
// The caller must ensure data remains valid for the lifetime of the frame.
// Stride must be at least format.RowBytes(width).
func FromRaw(data []byte, width, height int, format Format, stride int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}

	minStride := format.RowBytes(width)
	if stride < minStride {
		return nil, ErrInvalidStride
	}

	requiredSize := stride*(height-1) + minStride
	if len(data) < requiredSize {
		return nil, ErrDataTooSmall
	}

	return &Frame{
		id:     uuid.NewString(),
		data:   data[:requiredSize],
		width:  width,
		height: height,
		stride: stride,
		format: format,
	}, nil
}

// Clone creates a deep copy of the frame with a new ID.
func (f *Frame) Clone() *Frame {
	newData := make([]byte, len(f.data))
	copy(newData, f.data)

	return &Frame{
		id:         uuid.NewString(),
		data:       newData,
		width:      f.width,
		height:     f.height,
		stride:     f.stride,
		format:     f.format,
		colorSpace: f.colorSpace,
	}
}

// ID returns the frame's unique identifier.
func (f *Frame) ID() string {
	return f.id
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int {
	return f.width
}

// Height returns the frame height in pixels.
func (f *Frame) Height() int {
	return f.height
}

// Stride returns the number of bytes per row (including padding).
func (f *Frame) Stride() int {
	return f.stride
}

// Format returns the pixel format.
func (f *Frame) Format() Format {
	return f.format
}

// ColorSpace returns the embedded color profile, ColorSpaceNone if absent.
func (f *Frame) ColorSpace() ColorSpace {
	return f.colorSpace
}

// SetColorSpace attaches a color profile to the frame.
func (f *Frame) SetColorSpace(cs ColorSpace) {
	f.colorSpace = cs
}

// Data returns the raw pixel data slice.
func (f *Frame) Data() []byte {
	return f.data
}

// RowBytes returns a slice of the pixel data for row y.
// Returns nil if y is out of bounds.
func (f *Frame) RowBytes(y int) []byte {
	if y < 0 || y >= f.height {
		return nil
	}
	start := y * f.stride
	return f.data[start : start+f.format.RowBytes(f.width)]
}

// IsPacked reports whether rows are stored without padding.
func (f *Frame) IsPacked() bool {
	return f.stride == f.format.RowBytes(f.width)
}

// Packed returns the pixel data without row padding. The frame's own slice
// is returned when it is already packed.
func (f *Frame) Packed() []byte {
	if f.IsPacked() {
		return f.data
	}
	rowBytes := f.format.RowBytes(f.width)
	out := make([]byte, rowBytes*f.height)
	for y := range f.height {
		copy(out[y*rowBytes:], f.RowBytes(y))
	}
	return out
}

// SameContent reports whether f and other have the same size, format and
// pixel bytes, ignoring row padding and IDs.
func (f *Frame) SameContent(other *Frame) bool {
	if other == nil {
		return false
	}
	if f.width != other.width || f.height != other.height || f.format != other.format {
		return false
	}
	for y := range f.height {
		if !bytes.Equal(f.RowBytes(y), other.RowBytes(y)) {
			return false
		}
	}
	return true
}

// PixelOffset returns the byte offset of pixel (x, y) in the data slice.
// Returns -1 if coordinates are out of bounds.
func (f *Frame) PixelOffset(x, y int) int {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return -1
	}
	return y*f.stride + x*f.format.BytesPerPixel()
}

// GetRGBA returns the color at (x, y) as (r, g, b, a) in 0-255 range.
// For grayscale formats, r=g=b=gray and a=255.
// For formats without alpha, a=255.
// Returns (0,0,0,0) if coordinates are out of bounds.
func (f *Frame) GetRGBA(x, y int) (r, g, b, a uint8) {
	offset := f.PixelOffset(x, y)
	if offset < 0 {
		return 0, 0, 0, 0
	}
	pixel := f.data[offset:]

	switch f.format {
	case FormatGray8:
		v := pixel[0]
		return v, v, v, 255
	case FormatRGB8:
		return pixel[0], pixel[1], pixel[2], 255
	case FormatRGBA8:
		return pixel[0], pixel[1], pixel[2], pixel[3]
	case FormatBGRA8:
		return pixel[2], pixel[1], pixel[0], pixel[3]
	default:
		return 0, 0, 0, 0
	}
}

// SetRGBA sets the color at (x, y) from (r, g, b, a) in 0-255 range.
// For grayscale formats, uses standard luminance weights.
// Returns ErrOutOfBounds if coordinates are outside bounds.
func (f *Frame) SetRGBA(x, y int, r, g, b, a uint8) error {
	offset := f.PixelOffset(x, y)
	if offset < 0 {
		return ErrOutOfBounds
	}

	switch f.format {
	case FormatGray8:
		// Standard luminance: 0.299*R + 0.587*G + 0.114*B
		gray := (int(r)*299 + int(g)*587 + int(b)*114) / 1000
		f.data[offset] = byte(gray)
	case FormatRGB8:
		f.data[offset] = r
		f.data[offset+1] = g
		f.data[offset+2] = b
	case FormatRGBA8:
		f.data[offset] = r
		f.data[offset+1] = g
		f.data[offset+2] = b
		f.data[offset+3] = a
	case FormatBGRA8:
		f.data[offset] = b
		f.data[offset+1] = g
		f.data[offset+2] = r
		f.data[offset+3] = a
	}
	return nil
}

// Clear sets all pixels to zero.
func (f *Frame) Clear() {
	clear(f.data)
}

// Fill sets all pixels to the given RGBA color.
func (f *Frame) Fill(r, g, b, a uint8) {
	for y := range f.height {
		for x := range f.width {
			_ = f.SetRGBA(x, y, r, g, b, a)
		}
	}
}

// Convert returns a packed copy of f in the given format. The color space
// is preserved. Converting to the frame's own format still copies.
func (f *Frame) Convert(format Format) (*Frame, error) {
	out, err := New(f.width, f.height, format)
	if err != nil {
		return nil, err
	}
	out.colorSpace = f.colorSpace

	if format == f.format {
		for y := range f.height {
			copy(out.RowBytes(y), f.RowBytes(y))
		}
		return out, nil
	}

	for y := range f.height {
		for x := range f.width {
			r, g, b, a := f.GetRGBA(x, y)
			_ = out.SetRGBA(x, y, r, g, b, a)
		}
	}
	return out, nil
}

// ByteSize returns the total size of the pixel data in bytes.
func (f *Frame) ByteSize() int {
	return len(f.data)
}
