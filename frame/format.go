// Package frame provides the image buffers that flow through a filter chain:
// input stills, captured frames, intermediate results and outputs.
package frame

// Format represents a pixel storage format.
type Format uint8

const (
	// FormatInvalid is the zero value. In a chain descriptor it means
	// "same as the pass input".
	FormatInvalid Format = iota

	// FormatGray8 is 8-bit grayscale (1 byte per pixel).
	FormatGray8

	// FormatRGB8 is 24-bit RGB (3 bytes per pixel, no alpha).
	FormatRGB8

	// FormatRGBA8 is 32-bit RGBA, non-premultiplied (4 bytes per pixel).
	// This is the standard format for still images.
	FormatRGBA8

	// FormatBGRA8 is 32-bit BGRA, non-premultiplied (4 bytes per pixel).
	// Camera capture sessions usually negotiate this layout.
	FormatBGRA8

	// formatCount is the number of formats (for internal use).
	formatCount
)

// FormatInfo contains metadata about a pixel format.
type FormatInfo struct {
	// BytesPerPixel is the number of bytes per pixel.
	BytesPerPixel int

	// Channels is the number of color channels.
	Channels int

	// HasAlpha indicates if the format has an alpha channel.
	HasAlpha bool

	// IsGrayscale indicates if this is a grayscale format.
	IsGrayscale bool

	// GPUCompatible indicates the format can back a texture directly.
	GPUCompatible bool
}

// formatInfoTable contains metadata for each format.
var formatInfoTable = [formatCount]FormatInfo{
	FormatGray8: {
		BytesPerPixel: 1,
		Channels:      1,
		IsGrayscale:   true,
	},
	FormatRGB8: {
		BytesPerPixel: 3,
		Channels:      3,
	},
	FormatRGBA8: {
		BytesPerPixel: 4,
		Channels:      4,
		HasAlpha:      true,
		GPUCompatible: true,
	},
	FormatBGRA8: {
		BytesPerPixel: 4,
		Channels:      4,
		HasAlpha:      true,
		GPUCompatible: true,
	},
}

// Info returns the FormatInfo for this format.
func (f Format) Info() FormatInfo {
	if f >= formatCount {
		return FormatInfo{}
	}
	return formatInfoTable[f]
}

// BytesPerPixel returns the number of bytes per pixel for this format.
func (f Format) BytesPerPixel() int {
	return f.Info().BytesPerPixel
}

// HasAlpha returns true if this format has an alpha channel.
func (f Format) HasAlpha() bool {
	return f.Info().HasAlpha
}

// GPUCompatible reports whether textures can use this layout as is.
func (f Format) GPUCompatible() bool {
	return f.Info().GPUCompatible
}

// String returns a string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatGray8:
		return "Gray8"
	case FormatRGB8:
		return "RGB8"
	case FormatRGBA8:
		return "RGBA8"
	case FormatBGRA8:
		return "BGRA8"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the format is a valid known format.
func (f Format) IsValid() bool {
	return f > FormatInvalid && f < formatCount
}

// RowBytes calculates the number of bytes needed for a row of the given width.
func (f Format) RowBytes(width int) int {
	return width * f.BytesPerPixel()
}

// ImageBytes calculates the total number of bytes needed for an image.
func (f Format) ImageBytes(width, height int) int {
	return f.RowBytes(width) * height
}
