package colorctx

import (
	"github.com/gogpu/filterchain/frame"
	"github.com/gogpu/filterchain/gpucore"
)

// Policy configures a Context.
type Policy struct {
	// CacheIntermediates memoizes render results per source frame.
	CacheIntermediates bool

	// LowPriority makes rendering wait until the device queue is idle.
	LowPriority bool

	// SoftwareFallback allows contexts on a CPU device. Without it a
	// context refuses to render anywhere but on a GPU.
	SoftwareFallback bool

	// WorkingSpace is the linear space conversions pass through.
	WorkingSpace frame.ColorSpace
}

// DefaultPolicy returns the fixed context policy for a device: cached
// intermediates, normal priority, GPU only, and an extended
// linear working space when the device keeps float precision between
// passes.
func DefaultPolicy(info gpucore.AdapterInfo) Policy {
	p := Policy{
		CacheIntermediates: true,
		LowPriority:        false,
		SoftwareFallback:   false,
		WorkingSpace:       frame.ColorSpaceLinearSRGB,
	}
	if info.FloatWorkingFormat {
		p.WorkingSpace = frame.ColorSpaceExtendedLinearSRGB
	}
	return p
}
