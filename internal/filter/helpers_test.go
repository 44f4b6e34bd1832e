package filter

import (
	"math"
	"testing"

	"github.com/gogpu/filterchain/gpucore"
)

// gridSampler is an in-memory sampler for kernel tests.
type gridSampler struct {
	w, h int
	px   [][4]float32
}

func newGrid(w, h int, fill func(x, y int) [4]float32) *gridSampler {
	g := &gridSampler{w: w, h: h, px: make([][4]float32, w*h)}
	for y := range h {
		for x := range w {
			g.px[y*w+x] = fill(x, y)
		}
	}
	return g
}

func solid(w, h int, c [4]float32) *gridSampler {
	return newGrid(w, h, func(int, int) [4]float32 { return c })
}

func (g *gridSampler) Width() int  { return g.w }
func (g *gridSampler) Height() int { return g.h }

func (g *gridSampler) Load(x, y int) [4]float32 {
	x = min(max(x, 0), g.w-1)
	y = min(max(y, 0), g.h-1)
	return g.px[y*g.w+x]
}

func args(src gpucore.Sampler, params ...float32) *gpucore.KernelArgs {
	return &gpucore.KernelArgs{
		Src:       src,
		DstWidth:  src.Width(),
		DstHeight: src.Height(),
		Params:    params,
	}
}

func assertColor(t *testing.T, got, want [4]float32, eps float32) {
	t.Helper()
	for i := range 4 {
		if math.Abs(float64(got[i]-want[i])) > float64(eps) {
			t.Fatalf("color = %v, want %v", got, want)
		}
	}
}
