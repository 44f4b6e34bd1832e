package gpucore

// KernelFunc is the CPU reference form of a kernel. It computes the output
// pixel at (x, y) in RGBA order with components nominally in [0, 1]. Values
// outside that range are clamped when stored.
//
// A KernelFunc must be a pure function of its arguments so that results are
// reproducible regardless of how a dispatch is split across workers.
type KernelFunc func(a *KernelArgs, x, y int) [4]float32

// KernelArgs carries everything a CPU kernel can observe.
type KernelArgs struct {
	Src Sampler

	DstWidth  int
	DstHeight int

	// Params are the runtime kernel arguments of the dispatch.
	Params []float32

	// Constants are the specialization values of the pipeline.
	Constants Constants
}

// Param returns Params[i], or def if the dispatch carries fewer arguments.
func (a *KernelArgs) Param(i int, def float32) float32 {
	if i < len(a.Params) {
		return a.Params[i]
	}
	return def
}

// Constant returns the named specialization value or def.
func (a *KernelArgs) Constant(name string, def float64) float64 {
	if v, ok := a.Constants[name]; ok {
		return v
	}
	return def
}

// Sampler reads source pixels in RGBA order.
type Sampler interface {
	Width() int
	Height() int

	// Load returns the pixel at (x, y), clamping coordinates to the edge.
	Load(x, y int) [4]float32
}
