package filter

import "github.com/gogpu/filterchain/gpucore"

// Luminance weights (Rec. 709).
const (
	lumR = 0.2126
	lumG = 0.7152
	lumB = 0.0722
)

// Matrix is a 4x5 color transformation matrix in row-major order:
//
//	[R']   [a00 a01 a02 a03 a04]   [R]
//	[G'] = [a10 a11 a12 a13 a14] * [G]
//	[B']   [a20 a21 a22 a23 a24]   [B]
//	[A']   [a30 a31 a32 a33 a34]   [A]
//	                               [1]
//
// The fifth column is a bias in normalized [0, 1] units.
type Matrix [20]float32

// IdentityMatrix passes colors through unchanged.
var IdentityMatrix = Matrix{
	1, 0, 0, 0, 0,
	0, 1, 0, 0, 0,
	0, 0, 1, 0, 0,
	0, 0, 0, 1, 0,
}

// BrightnessMatrix scales RGB by factor.
// factor: 0.0 = black, 1.0 = unchanged, 2.0 = twice as bright
func BrightnessMatrix(factor float32) Matrix {
	return Matrix{
		factor, 0, 0, 0, 0,
		0, factor, 0, 0, 0,
		0, 0, factor, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// ContrastMatrix computes (color - 0.5) * factor + 0.5.
// factor: 0.0 = gray, 1.0 = unchanged, 2.0 = high contrast
func ContrastMatrix(factor float32) Matrix {
	offset := 0.5 * (1 - factor)
	return Matrix{
		factor, 0, 0, 0, offset,
		0, factor, 0, 0, offset,
		0, 0, factor, 0, offset,
		0, 0, 0, 1, 0,
	}
}

// SaturationMatrix interpolates between luminance and the original color.
// factor: 0.0 = grayscale, 1.0 = unchanged, 2.0 = oversaturated
func SaturationMatrix(factor float32) Matrix {
	sr := (1 - factor) * lumR
	sg := (1 - factor) * lumG
	sb := (1 - factor) * lumB
	return Matrix{
		sr + factor, sg, sb, 0, 0,
		sr, sg + factor, sb, 0, 0,
		sr, sg, sb + factor, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// InvertMatrix inverts RGB.
var InvertMatrix = Matrix{
	-1, 0, 0, 0, 1,
	0, -1, 0, 0, 1,
	0, 0, -1, 0, 1,
	0, 0, 0, 1, 0,
}

// Transform applies m to c.
func (m *Matrix) Transform(c [4]float32) [4]float32 {
	var out [4]float32
	for row := range 4 {
		o := row * 5
		out[row] = m[o]*c[0] + m[o+1]*c[1] + m[o+2]*c[2] + m[o+3]*c[3] + m[o+4]
	}
	return out
}

// MatrixFromParams builds a matrix from the first 20 params. Missing entries
// are taken from the identity matrix.
func MatrixFromParams(a *gpucore.KernelArgs) Matrix {
	m := IdentityMatrix
	for i := range m {
		m[i] = a.Param(i, m[i])
	}
	return m
}

// ColorMatrix applies the 4x5 matrix carried in params 0..19.
func ColorMatrix(a *gpucore.KernelArgs, x, y int) [4]float32 {
	m := MatrixFromParams(a)
	return m.Transform(a.Src.Load(x, y))
}

// Brightness scales RGB by param 0 (default 1).
func Brightness(a *gpucore.KernelArgs, x, y int) [4]float32 {
	m := BrightnessMatrix(a.Param(0, 1))
	return m.Transform(a.Src.Load(x, y))
}

// Contrast stretches RGB around mid gray by param 0 (default 1).
func Contrast(a *gpucore.KernelArgs, x, y int) [4]float32 {
	m := ContrastMatrix(a.Param(0, 1))
	return m.Transform(a.Src.Load(x, y))
}

// Saturation scales chroma by param 0 (default 1).
func Saturation(a *gpucore.KernelArgs, x, y int) [4]float32 {
	m := SaturationMatrix(a.Param(0, 1))
	return m.Transform(a.Src.Load(x, y))
}

// Grayscale replaces RGB with Rec. 709 luminance.
func Grayscale(a *gpucore.KernelArgs, x, y int) [4]float32 {
	c := a.Src.Load(x, y)
	l := luminance(c)
	return [4]float32{l, l, l, c[3]}
}

// Invert inverts RGB.
func Invert(a *gpucore.KernelArgs, x, y int) [4]float32 {
	c := a.Src.Load(x, y)
	return [4]float32{1 - c[0], 1 - c[1], 1 - c[2], c[3]}
}

func luminance(c [4]float32) float32 {
	return lumR*c[0] + lumG*c[1] + lumB*c[2]
}
