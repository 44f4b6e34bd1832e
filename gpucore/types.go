package gpucore

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// TextureFormat specifies the byte order of texture pixels.
type TextureFormat uint32

// Texture formats.
const (
	// TextureFormatInvalid is the zero value.
	TextureFormatInvalid TextureFormat = iota

	// TextureFormatRGBA8Unorm is 8-bit RGBA, normalized unsigned integer.
	TextureFormatRGBA8Unorm

	// TextureFormatBGRA8Unorm is 8-bit BGRA, normalized unsigned integer.
	// This is the usual layout of captured camera frames.
	TextureFormatBGRA8Unorm
)

// BytesPerPixel returns the storage size of one pixel.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case TextureFormatRGBA8Unorm, TextureFormatBGRA8Unorm:
		return 4
	default:
		return 0
	}
}

// IsValid reports whether f is a known format.
func (f TextureFormat) IsValid() bool {
	return f == TextureFormatRGBA8Unorm || f == TextureFormatBGRA8Unorm
}

// IsBGRA reports whether red and blue are swapped in memory.
func (f TextureFormat) IsBGRA() bool {
	return f == TextureFormatBGRA8Unorm
}

func (f TextureFormat) String() string {
	switch f {
	case TextureFormatRGBA8Unorm:
		return "RGBA8Unorm"
	case TextureFormatBGRA8Unorm:
		return "BGRA8Unorm"
	default:
		return "Invalid"
	}
}

// TextureUsage is a bitmask specifying how a texture will be used.
type TextureUsage uint32

// Texture usage flags.
const (
	// TextureUsageShaderRead allows the texture to be sampled by a kernel.
	TextureUsageShaderRead TextureUsage = 1 << 0

	// TextureUsageShaderWrite allows a kernel to write the texture.
	TextureUsageShaderWrite TextureUsage = 1 << 1

	// TextureUsageCopySrc allows reading the texture back to host memory.
	TextureUsageCopySrc TextureUsage = 1 << 2

	// TextureUsageCopyDst allows uploading host memory into the texture.
	TextureUsageCopyDst TextureUsage = 1 << 3
)

// DefaultIntermediateUsage is the usage of pass output textures.
const DefaultIntermediateUsage = TextureUsageShaderRead | TextureUsageShaderWrite | TextureUsageCopySrc

// TextureDescriptor describes a texture.
type TextureDescriptor struct {
	// Label is an optional debug label.
	Label string

	Width  int
	Height int
	Format TextureFormat
	Usage  TextureUsage
}

// Validate checks the descriptor for obvious mistakes.
func (d TextureDescriptor) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, d.Width, d.Height)
	}
	if !d.Format.IsValid() {
		return fmt.Errorf("gpucore: unsupported texture format %v", d.Format)
	}
	return nil
}

// ByteSize returns the tightly packed size of the texture contents.
func (d TextureDescriptor) ByteSize() int {
	return d.Width * d.Height * d.Format.BytesPerPixel()
}

// MaxParams is the maximum number of float kernel arguments per dispatch.
// It matches the params uniform block of the bundled WGSL kernels.
const MaxParams = 24

// Constants are compile-time specialization values baked into a pipeline.
type Constants map[string]float64

// Canonical returns a stable textual encoding of c, sorted by key.
// Two Constants with equal contents always encode identically.
func (c Constants) Canonical() string {
	if len(c) == 0 {
		return ""
	}
	keys := slices.Sorted(maps.Keys(c))
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(strconv.FormatFloat(c[k], 'g', -1, 64))
	}
	return sb.String()
}

// ParseConstants decodes the output of Constants.Canonical.
func ParseConstants(s string) (Constants, error) {
	if s == "" {
		return nil, nil
	}
	c := make(Constants)
	for _, kv := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("gpucore: malformed constant %q", kv)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("gpucore: constant %q: %w", k, err)
		}
		c[k] = f
	}
	return c, nil
}

// DeviceType classifies the device behind an adapter.
type DeviceType uint8

// Device types.
const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeDiscreteGPU
	DeviceTypeIntegratedGPU
	DeviceTypeCPU
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeDiscreteGPU:
		return "discrete"
	case DeviceTypeIntegratedGPU:
		return "integrated"
	case DeviceTypeCPU:
		return "cpu"
	default:
		return "other"
	}
}

// AdapterInfo describes an opened device.
type AdapterInfo struct {
	Name    string
	Backend string
	Type    DeviceType

	// ThreadgroupSize is the preferred 2D threadgroup size of kernels.
	ThreadgroupSize [2]uint32

	// FloatWorkingFormat reports whether intermediate color math may exceed
	// [0, 1] without clipping (extended range working space).
	FloatWorkingFormat bool
}
