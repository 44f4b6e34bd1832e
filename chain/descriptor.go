package chain

import (
	"github.com/gogpu/filterchain/gpucore"
	"github.com/gogpu/filterchain/kernel"
)

// OutputSpec declares the output texture of a pass. Zero fields inherit
// from the pass input.
type OutputSpec struct {
	Width  int
	Height int
	Format gpucore.TextureFormat
	Usage  gpucore.TextureUsage
}

// resolve fills zero fields from the input texture descriptor.
func (s OutputSpec) resolve(in gpucore.TextureDescriptor) gpucore.TextureDescriptor {
	out := gpucore.TextureDescriptor{
		Width:  s.Width,
		Height: s.Height,
		Format: s.Format,
		Usage:  s.Usage,
	}
	if out.Width == 0 {
		out.Width = in.Width
	}
	if out.Height == 0 {
		out.Height = in.Height
	}
	if out.Format == gpucore.TextureFormatInvalid {
		out.Format = in.Format
	}
	if out.Usage == 0 {
		out.Usage = gpucore.DefaultIntermediateUsage
	}
	return out
}

// Descriptor describes one pass of a chain.
type Descriptor struct {
	// Kernel selects the pipeline state.
	Kernel kernel.Identity

	// Params are the runtime kernel arguments, at most gpucore.MaxParams.
	Params []float32

	// Input optionally declares the texture format the pass expects. A
	// mismatch with the previous pass output fails the chain.
	Input gpucore.TextureFormat

	// Output declares the pass output texture.
	Output OutputSpec
}

// Pass returns a descriptor running the unspecialized kernel name with
// params and an output matching its input.
func Pass(name kernel.Name, params ...float32) Descriptor {
	return Descriptor{Kernel: kernel.Of(name), Params: params}
}
