package colorctx

import (
	"github.com/gogpu/filterchain/frame"
	"github.com/gogpu/filterchain/internal/color"
)

func describe(cs frame.ColorSpace) (color.Transfer, color.Primaries) {
	switch cs {
	case frame.ColorSpaceDisplayP3:
		return color.TransferSRGB, color.PrimariesP3
	case frame.ColorSpaceLinearSRGB, frame.ColorSpaceExtendedLinearSRGB:
		return color.TransferLinear, color.PrimariesSRGB
	default:
		return color.TransferSRGB, color.PrimariesSRGB
	}
}

// convertParams returns the color_convert kernel arguments mapping src to
// dst through working. Both working spaces use sRGB primaries, so the gamut
// step is the product of the two conversions.
func convertParams(src, dst, working frame.ColorSpace) []float32 {
	srcT, srcP := describe(src)
	dstT, dstP := describe(dst)
	m := color.ConversionMatrix(color.PrimariesSRGB, dstP).
		Mul(color.ConversionMatrix(srcP, color.PrimariesSRGB))

	var clamp float32 = 1
	if working.IsExtended() && dst != frame.ColorSpaceLinearSRGB {
		clamp = 0
	}
	params := []float32{float32(srcT), float32(dstT), clamp}
	return append(params, m[:]...)
}
