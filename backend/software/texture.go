package software

import (
	"sync/atomic"

	"github.com/gogpu/filterchain/gpucore"
	"github.com/gogpu/filterchain/internal/color"
)

type texture struct {
	desc      gpucore.TextureDescriptor
	data      []byte
	pooled    bool
	destroyed atomic.Bool
}

func (t *texture) Descriptor() gpucore.TextureDescriptor { return t.desc }

// sampler reads a texture in RGBA order with edge clamping.
type sampler struct {
	t *texture
}

func (s sampler) Width() int  { return s.t.desc.Width }
func (s sampler) Height() int { return s.t.desc.Height }

func (s sampler) Load(x, y int) [4]float32 {
	w, h := s.t.desc.Width, s.t.desc.Height
	x = min(max(x, 0), w-1)
	y = min(max(y, 0), h-1)
	p := s.t.data[(y*w+x)*4:]
	c := color.U8ToF32(color.ColorU8{R: p[0], G: p[1], B: p[2], A: p[3]})
	if s.t.desc.Format.IsBGRA() {
		c.R, c.B = c.B, c.R
	}
	return [4]float32{c.R, c.G, c.B, c.A}
}

func storePixel(dst []byte, c [4]float32, bgra bool) {
	q := color.F32ToU8(color.ColorF32{R: c[0], G: c[1], B: c[2], A: c[3]})
	if bgra {
		q.R, q.B = q.B, q.R
	}
	dst[0], dst[1], dst[2], dst[3] = q.R, q.G, q.B, q.A
}
