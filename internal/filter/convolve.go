package filter

import "github.com/gogpu/filterchain/gpucore"

// Kernel3 is a 3x3 convolution kernel in row-major order.
type Kernel3 [9]float32

// BoxKernel3 averages the 3x3 neighbourhood.
var BoxKernel3 = Kernel3{
	1.0 / 9, 1.0 / 9, 1.0 / 9,
	1.0 / 9, 1.0 / 9, 1.0 / 9,
	1.0 / 9, 1.0 / 9, 1.0 / 9,
}

// SharpenKernel3 returns the 5-point Laplacian sharpen kernel for amount.
// amount 0 is the identity.
func SharpenKernel3(amount float32) Kernel3 {
	return Kernel3{
		0, -amount, 0,
		-amount, 1 + 4*amount, -amount,
		0, -amount, 0,
	}
}

// Convolve applies k around (x, y). Edge pixels are clamped by the sampler.
// All four channels are convolved.
func Convolve(src gpucore.Sampler, x, y int, k *Kernel3) [4]float32 {
	var out [4]float32
	i := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			w := k[i]
			i++
			if w == 0 {
				continue
			}
			c := src.Load(x+dx, y+dy)
			out[0] += w * c[0]
			out[1] += w * c[1]
			out[2] += w * c[2]
			out[3] += w * c[3]
		}
	}
	return out
}

// BoxBlur averages the 3x3 neighbourhood of each pixel.
func BoxBlur(a *gpucore.KernelArgs, x, y int) [4]float32 {
	return Convolve(a.Src, x, y, &BoxKernel3)
}

// Sharpen applies SharpenKernel3 with amount param 0 (default 1). Alpha is
// left untouched.
func Sharpen(a *gpucore.KernelArgs, x, y int) [4]float32 {
	k := SharpenKernel3(a.Param(0, 1))
	out := Convolve(a.Src, x, y, &k)
	out[3] = a.Src.Load(x, y)[3]
	return out
}
