package frame

// ColorSpace identifies the color profile attached to a frame.
type ColorSpace uint8

const (
	// ColorSpaceNone means the frame carries no embedded profile.
	// Consumers treat such frames as sRGB.
	ColorSpaceNone ColorSpace = iota

	// ColorSpaceSRGB is the standard sRGB space.
	ColorSpaceSRGB

	// ColorSpaceDisplayP3 is Display P3 (P3 primaries, sRGB transfer).
	ColorSpaceDisplayP3

	// ColorSpaceLinearSRGB is sRGB primaries with a linear transfer, clamped.
	ColorSpaceLinearSRGB

	// ColorSpaceExtendedLinearSRGB is linear sRGB without clamping, able to
	// represent wide-gamut colors as values outside [0, 1].
	ColorSpaceExtendedLinearSRGB

	colorSpaceCount
)

// OrDefault returns cs, or ColorSpaceSRGB when no profile is present.
func (cs ColorSpace) OrDefault() ColorSpace {
	if cs == ColorSpaceNone || cs >= colorSpaceCount {
		return ColorSpaceSRGB
	}
	return cs
}

// IsLinear reports whether the transfer function is linear.
func (cs ColorSpace) IsLinear() bool {
	return cs == ColorSpaceLinearSRGB || cs == ColorSpaceExtendedLinearSRGB
}

// IsExtended reports whether values outside [0, 1] are meaningful.
func (cs ColorSpace) IsExtended() bool {
	return cs == ColorSpaceExtendedLinearSRGB
}

func (cs ColorSpace) String() string {
	switch cs {
	case ColorSpaceNone:
		return "none"
	case ColorSpaceSRGB:
		return "sRGB"
	case ColorSpaceDisplayP3:
		return "DisplayP3"
	case ColorSpaceLinearSRGB:
		return "linearSRGB"
	case ColorSpaceExtendedLinearSRGB:
		return "extendedLinearSRGB"
	default:
		return "unknown"
	}
}
