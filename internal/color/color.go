// Package color provides the color math shared by the CPU kernels and the
// color context cache: transfer functions, primaries conversion matrices and
// 8-bit quantization.
package color

// ColorF32 represents a color with float32 components, nominally in [0,1].
// Alpha is always linear (never gamma-encoded).
type ColorF32 struct {
	R, G, B, A float32
}

// ColorU8 represents a color with uint8 components in [0,255].
type ColorU8 struct {
	R, G, B, A uint8
}

// Transfer identifies a transfer function.
type Transfer uint8

const (
	// TransferLinear is the identity transfer.
	TransferLinear Transfer = iota
	// TransferSRGB is the piecewise sRGB curve (also used by Display P3).
	TransferSRGB
)

// Mat3 is a row-major 3x3 matrix acting on linear RGB column vectors.
type Mat3 [9]float32

// Identity3 is the identity matrix.
var Identity3 = Mat3{
	1, 0, 0,
	0, 1, 0,
	0, 0, 1,
}

// Linear P3 -> linear sRGB (D65).
var p3ToSRGB = Mat3{
	1.2249401, -0.2249404, 0.0000000,
	-0.0420569, 1.0420571, 0.0000000,
	-0.0196376, -0.0786361, 1.0982735,
}

// Linear sRGB -> linear P3 (D65).
var sRGBToP3 = Mat3{
	0.8224621, 0.1775380, 0.0000000,
	0.0331941, 0.9668058, 0.0000000,
	0.0170827, 0.0723974, 0.9105199,
}

// Primaries identifies an RGB gamut.
type Primaries uint8

const (
	// PrimariesSRGB are the Rec. 709 / sRGB primaries.
	PrimariesSRGB Primaries = iota
	// PrimariesP3 are the DCI-P3 primaries with a D65 white point.
	PrimariesP3
)

// ConversionMatrix returns the linear-light matrix mapping from one gamut to
// another.
func ConversionMatrix(from, to Primaries) Mat3 {
	switch {
	case from == to:
		return Identity3
	case from == PrimariesP3 && to == PrimariesSRGB:
		return p3ToSRGB
	default:
		return sRGBToP3
	}
}

// Apply multiplies the matrix with (r, g, b).
func (m Mat3) Apply(r, g, b float32) (float32, float32, float32) {
	return m[0]*r + m[1]*g + m[2]*b,
		m[3]*r + m[4]*g + m[5]*b,
		m[6]*r + m[7]*g + m[8]*b
}

// Mul returns m*n, the matrix applying n first and m second.
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for r := range 3 {
		for c := range 3 {
			out[r*3+c] = m[r*3]*n[c] + m[r*3+1]*n[3+c] + m[r*3+2]*n[6+c]
		}
	}
	return out
}
