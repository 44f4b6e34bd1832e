package color

import "math"

// SRGBToLinear converts an sRGB component to linear (EOTF).
// Formula: if s <= 0.04045: s/12.92; else: pow((s+0.055)/1.055, 2.4)
// Negative inputs are mirrored so extended-range values survive a round trip.
func SRGBToLinear(s float32) float32 {
	if s < 0 {
		return -SRGBToLinear(-s)
	}
	if s <= 0.04045 {
		return s / 12.92
	}
	return float32(math.Pow(float64((s+0.055)/1.055), 2.4))
}

// LinearToSRGB converts a linear component to sRGB (OETF).
// Formula: if l <= 0.0031308: l*12.92; else: 1.055*pow(l, 1/2.4)-0.055
// Negative inputs are mirrored like SRGBToLinear.
func LinearToSRGB(l float32) float32 {
	if l < 0 {
		return -LinearToSRGB(-l)
	}
	if l <= 0.0031308 {
		return l * 12.92
	}
	return 1.055*float32(math.Pow(float64(l), 1.0/2.4)) - 0.055
}

// Decode applies the inverse of transfer t, producing linear light.
func Decode(t Transfer, v float32) float32 {
	if t == TransferSRGB {
		return SRGBToLinear(v)
	}
	return v
}

// Encode applies transfer t to linear light.
func Encode(t Transfer, v float32) float32 {
	if t == TransferSRGB {
		return LinearToSRGB(v)
	}
	return v
}

// U8ToF32 converts ColorU8 to ColorF32.
// Each uint8 component [0,255] is mapped to float32 [0,1].
func U8ToF32(c ColorU8) ColorF32 {
	return ColorF32{
		R: float32(c.R) / 255.0,
		G: float32(c.G) / 255.0,
		B: float32(c.B) / 255.0,
		A: float32(c.A) / 255.0,
	}
}

// F32ToU8 converts ColorF32 to ColorU8.
// Each float32 component [0,1] is mapped to uint8 [0,255] with rounding.
func F32ToU8(c ColorF32) ColorU8 {
	return ColorU8{
		R: Quantize(c.R),
		G: Quantize(c.G),
		B: Quantize(c.B),
		A: Quantize(c.A),
	}
}

// Quantize clamps a float32 to [0,1] and converts to uint8 with rounding.
// NaN maps to 0.
func Quantize(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255.0 + 0.5)
}

// Convert decodes c with src, maps it through the linear-light matrix m and
// encodes the result with dst. Alpha passes through. When clampOut is set the
// color channels are clipped to [0, 1], otherwise extended values are kept.
func Convert(c ColorF32, src Transfer, m Mat3, dst Transfer, clampOut bool) ColorF32 {
	r, g, b := m.Apply(Decode(src, c.R), Decode(src, c.G), Decode(src, c.B))
	out := ColorF32{R: Encode(dst, r), G: Encode(dst, g), B: Encode(dst, b), A: c.A}
	if clampOut {
		out.R, out.G, out.B = clamp01(out.R), clamp01(out.G), clamp01(out.B)
	}
	return out
}

func clamp01(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
