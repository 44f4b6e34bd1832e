package filter

import (
	"math"

	"github.com/gogpu/filterchain/gpucore"
	"github.com/gogpu/filterchain/internal/color"
)

// DefaultPosterizeLevels is used when the pipeline has no levels constant.
const DefaultPosterizeLevels = 4

// Copy returns the source pixel. A format change between source and
// destination turns it into a swizzle.
func Copy(a *gpucore.KernelArgs, x, y int) [4]float32 {
	return a.Src.Load(x, y)
}

// Threshold maps pixels whose luminance is at least param 0 (default 0.5)
// to white and the rest to black.
func Threshold(a *gpucore.KernelArgs, x, y int) [4]float32 {
	c := a.Src.Load(x, y)
	if luminance(c) >= a.Param(0, 0.5) {
		return [4]float32{1, 1, 1, c[3]}
	}
	return [4]float32{0, 0, 0, c[3]}
}

// Posterize quantizes RGB to the number of levels given by the "levels"
// specialization constant. Fewer than two levels behaves like two.
func Posterize(a *gpucore.KernelArgs, x, y int) [4]float32 {
	steps := float32(max(a.Constant("levels", DefaultPosterizeLevels), 2) - 1)
	c := a.Src.Load(x, y)
	for i := range 3 {
		c[i] = float32(math.Floor(float64(c[i]*steps+0.5))) / steps
	}
	return c
}

// Resize samples the source bilinearly at the destination size, aligning
// pixel centers.
func Resize(a *gpucore.KernelArgs, x, y int) [4]float32 {
	sx := (float32(x)+0.5)*float32(a.Src.Width())/float32(a.DstWidth) - 0.5
	sy := (float32(y)+0.5)*float32(a.Src.Height())/float32(a.DstHeight) - 0.5
	x0 := float32(math.Floor(float64(sx)))
	y0 := float32(math.Floor(float64(sy)))
	fx, fy := sx-x0, sy-y0
	ix, iy := int(x0), int(y0)

	c00 := a.Src.Load(ix, iy)
	c10 := a.Src.Load(ix+1, iy)
	c01 := a.Src.Load(ix, iy+1)
	c11 := a.Src.Load(ix+1, iy+1)

	var out [4]float32
	for i := range 4 {
		top := c00[i] + (c10[i]-c00[i])*fx
		bottom := c01[i] + (c11[i]-c01[i])*fx
		out[i] = top + (bottom-top)*fy
	}
	return out
}

// Color convert params.
const (
	ParamSrcTransfer = 0
	ParamDstTransfer = 1
	ParamClamp       = 2
	ParamMatrix      = 3 // 9 values, row-major
)

// ColorConvert decodes with the source transfer, applies the linear 3x3
// gamut matrix and encodes with the destination transfer. Param 2 set to 1
// clips to [0, 1]. Missing matrix entries default to the identity.
func ColorConvert(a *gpucore.KernelArgs, x, y int) [4]float32 {
	m := color.Identity3
	for i := range m {
		m[i] = a.Param(ParamMatrix+i, m[i])
	}
	c := a.Src.Load(x, y)
	out := color.Convert(
		color.ColorF32{R: c[0], G: c[1], B: c[2], A: c[3]},
		color.Transfer(a.Param(ParamSrcTransfer, 0)),
		m,
		color.Transfer(a.Param(ParamDstTransfer, 0)),
		a.Param(ParamClamp, 1) != 0,
	)
	return [4]float32{out.R, out.G, out.B, out.A}
}
