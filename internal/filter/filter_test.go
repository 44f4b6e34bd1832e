package filter

import (
	"testing"

	"github.com/gogpu/filterchain/gpucore"
	"github.com/gogpu/filterchain/internal/color"
)

func TestPointKernels(t *testing.T) {
	in := [4]float32{0.2, 0.4, 0.6, 0.8}
	src := solid(2, 2, in)

	tests := []struct {
		name   string
		fn     gpucore.KernelFunc
		params []float32
		want   [4]float32
	}{
		{"copy", Copy, nil, in},
		{"brightness default", Brightness, nil, in},
		{"brightness double", Brightness, []float32{2}, [4]float32{0.4, 0.8, 1.2, 0.8}},
		{"brightness zero", Brightness, []float32{0}, [4]float32{0, 0, 0, 0.8}},
		{"contrast zero", Contrast, []float32{0}, [4]float32{0.5, 0.5, 0.5, 0.8}},
		{"contrast one", Contrast, []float32{1}, in},
		{"saturation one", Saturation, []float32{1}, in},
		{"invert", Invert, nil, [4]float32{0.8, 0.6, 0.4, 0.8}},
		{"threshold low", Threshold, []float32{0.1}, [4]float32{1, 1, 1, 0.8}},
		{"threshold high", Threshold, []float32{0.9}, [4]float32{0, 0, 0, 0.8}},
		{"color matrix identity", ColorMatrix, nil, in},
		{"color matrix invert", ColorMatrix, InvertMatrix[:], [4]float32{0.8, 0.6, 0.4, 0.8}},
		{"box blur solid", BoxBlur, nil, in},
		{"sharpen solid", Sharpen, []float32{2}, in},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn(args(src, tt.params...), 0, 0)
			assertColor(t, got, tt.want, 1e-5)
		})
	}
}

func TestSaturationZeroMatchesGrayscale(t *testing.T) {
	src := solid(1, 1, [4]float32{0.9, 0.1, 0.3, 1})
	gray := Grayscale(args(src), 0, 0)
	desat := Saturation(args(src, 0), 0, 0)
	assertColor(t, desat, gray, 1e-5)
	if gray[0] != gray[1] || gray[1] != gray[2] {
		t.Errorf("grayscale not neutral: %v", gray)
	}
}

func TestBoxBlurAveragesNeighbourhood(t *testing.T) {
	// Single white pixel in the middle of a black 3x3 image.
	src := newGrid(3, 3, func(x, y int) [4]float32 {
		if x == 1 && y == 1 {
			return [4]float32{1, 1, 1, 1}
		}
		return [4]float32{0, 0, 0, 1}
	})
	got := BoxBlur(args(src), 1, 1)
	assertColor(t, got, [4]float32{1.0 / 9, 1.0 / 9, 1.0 / 9, 1}, 1e-5)
}

func TestSharpenKeepsAlpha(t *testing.T) {
	src := newGrid(3, 1, func(x, _ int) [4]float32 {
		return [4]float32{float32(x) / 2, 0, 0, 0.5}
	})
	got := Sharpen(args(src, 1), 1, 0)
	if got[3] != 0.5 {
		t.Errorf("alpha = %v, want 0.5", got[3])
	}
}

func TestPosterize(t *testing.T) {
	src := solid(1, 1, [4]float32{0.1, 0.4, 0.9, 0.3})

	a := args(src)
	a.Constants = gpucore.Constants{"levels": 2}
	assertColor(t, Posterize(a, 0, 0), [4]float32{0, 0, 1, 0.3}, 1e-6)

	a.Constants = gpucore.Constants{"levels": 3}
	assertColor(t, Posterize(a, 0, 0), [4]float32{0, 0.5, 1, 0.3}, 1e-6)

	// Default levels.
	a.Constants = nil
	assertColor(t, Posterize(a, 0, 0), [4]float32{0, 1.0 / 3, 1, 0.3}, 1e-6)
}

func TestResize(t *testing.T) {
	src := newGrid(2, 2, func(x, y int) [4]float32 {
		return [4]float32{float32(x), float32(y), 0, 1}
	})

	t.Run("same size is identity", func(t *testing.T) {
		a := args(src)
		for y := range 2 {
			for x := range 2 {
				assertColor(t, Resize(a, x, y), src.Load(x, y), 1e-6)
			}
		}
	})

	t.Run("downscale averages", func(t *testing.T) {
		a := args(src)
		a.DstWidth, a.DstHeight = 1, 1
		assertColor(t, Resize(a, 0, 0), [4]float32{0.5, 0.5, 0, 1}, 1e-6)
	})
}

func TestColorConvert(t *testing.T) {
	in := [4]float32{0.5, 0.25, 0.75, 1}
	src := solid(1, 1, in)

	t.Run("identity without params", func(t *testing.T) {
		assertColor(t, ColorConvert(args(src), 0, 0), in, 1e-6)
	})

	t.Run("srgb to linear", func(t *testing.T) {
		got := ColorConvert(args(src, float32(color.TransferSRGB), float32(color.TransferLinear), 1), 0, 0)
		want := [4]float32{color.SRGBToLinear(0.5), color.SRGBToLinear(0.25), color.SRGBToLinear(0.75), 1}
		assertColor(t, got, want, 1e-6)
	})

	t.Run("gamut matrix", func(t *testing.T) {
		m := color.ConversionMatrix(color.PrimariesP3, color.PrimariesSRGB)
		params := append([]float32{0, 0, 0}, m[:]...)
		got := ColorConvert(args(solid(1, 1, [4]float32{1, 0, 0, 1}), params...), 0, 0)
		if got[0] <= 1 || got[1] >= 0 {
			t.Errorf("extended result = %v, want R > 1 and G < 0", got)
		}
	})
}

func TestMatrixTransformBias(t *testing.T) {
	m := ContrastMatrix(2)
	got := m.Transform([4]float32{0.75, 0.5, 0.25, 1})
	assertColor(t, got, [4]float32{1, 0.5, 0, 1}, 1e-6)
}
