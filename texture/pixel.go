package texture

import (
	"fmt"
	"time"

	"github.com/gogpu/filterchain/frame"
	"github.com/gogpu/filterchain/gpucore"
)

// PixelFormat identifies the memory layout of a PixelBuffer.
type PixelFormat uint32

// Pixel formats delivered by capture sources.
const (
	PixelFormatInvalid PixelFormat = iota

	// PixelFormatBGRA32 is 8-bit B, G, R, A. The usual camera output.
	PixelFormatBGRA32

	// PixelFormatRGBA32 is 8-bit R, G, B, A.
	PixelFormatRGBA32

	// PixelFormatYCbCr420VideoRange is biplanar 4:2:0 YCbCr, video range.
	PixelFormatYCbCr420VideoRange

	// PixelFormatYCbCr420FullRange is biplanar 4:2:0 YCbCr, full range.
	PixelFormatYCbCr420FullRange
)

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatBGRA32:
		return "BGRA32"
	case PixelFormatRGBA32:
		return "RGBA32"
	case PixelFormatYCbCr420VideoRange:
		return "420v"
	case PixelFormatYCbCr420FullRange:
		return "420f"
	default:
		return "invalid"
	}
}

// TextureFormat returns the texture format f maps to, and false when f
// cannot be wrapped as a single texture.
func (f PixelFormat) TextureFormat() (gpucore.TextureFormat, bool) {
	switch f {
	case PixelFormatBGRA32:
		return gpucore.TextureFormatBGRA8Unorm, true
	case PixelFormatRGBA32:
		return gpucore.TextureFormatRGBA8Unorm, true
	default:
		return gpucore.TextureFormatInvalid, false
	}
}

// PixelBuffer is one captured image in host memory.
type PixelBuffer struct {
	Width  int
	Height int

	// Stride is the number of bytes per row, at least Width*4.
	Stride int
	Format PixelFormat
	Data   []byte

	// Timestamp is the presentation time reported by the source.
	Timestamp time.Duration
}

// validate checks that pb describes a readable single-plane image.
func (pb *PixelBuffer) validate() (gpucore.TextureFormat, error) {
	if pb == nil {
		return gpucore.TextureFormatInvalid, fmt.Errorf("%w: nil pixel buffer", gpucore.ErrTextureWrapFailed)
	}
	tf, ok := pb.Format.TextureFormat()
	if !ok {
		return gpucore.TextureFormatInvalid, fmt.Errorf("%w: unsupported pixel format %v", gpucore.ErrTextureWrapFailed, pb.Format)
	}
	if pb.Width <= 0 || pb.Height <= 0 {
		return tf, fmt.Errorf("%w: %dx%d", gpucore.ErrTextureWrapFailed, pb.Width, pb.Height)
	}
	rowBytes := pb.Width * tf.BytesPerPixel()
	if pb.Stride < rowBytes {
		return tf, fmt.Errorf("%w: stride %d below %d", gpucore.ErrTextureWrapFailed, pb.Stride, rowBytes)
	}
	if need := pb.Stride*(pb.Height-1) + rowBytes; len(pb.Data) < need {
		return tf, fmt.Errorf("%w: %d bytes, need %d", gpucore.ErrTextureWrapFailed, len(pb.Data), need)
	}
	return tf, nil
}

// isPacked reports whether rows are stored without padding.
func (pb *PixelBuffer) isPacked() bool {
	return pb.Stride == pb.Width*4
}

// packInto copies the rows of pb into dst without padding.
func (pb *PixelBuffer) packInto(dst []byte) {
	rowBytes := pb.Width * 4
	for y := range pb.Height {
		copy(dst[y*rowBytes:(y+1)*rowBytes], pb.Data[y*pb.Stride:])
	}
}

// FromFrame describes f as a pixel buffer sharing its memory. Only frames
// in a 4-byte RGBA or BGRA layout can be described.
func FromFrame(f *frame.Frame) (*PixelBuffer, error) {
	var pf PixelFormat
	switch f.Format() {
	case frame.FormatBGRA8:
		pf = PixelFormatBGRA32
	case frame.FormatRGBA8:
		pf = PixelFormatRGBA32
	default:
		return nil, fmt.Errorf("%w: frame format %v", gpucore.ErrTextureWrapFailed, f.Format())
	}
	return &PixelBuffer{
		Width:  f.Width(),
		Height: f.Height(),
		Stride: f.Stride(),
		Format: pf,
		Data:   f.Data(),
	}, nil
}
