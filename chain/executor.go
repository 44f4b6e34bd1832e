package chain

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gogpu/filterchain/frame"
	"github.com/gogpu/filterchain/gpucore"
	"github.com/gogpu/filterchain/internal/logging"
	"github.com/gogpu/filterchain/registry"
)

// Stats counts executed chains.
type Stats struct {
	Chains   uint64
	Passes   uint64
	Failures uint64
}

// Executor runs filter chains on the device of a registry.
//
// Executor is safe for concurrent use. Intermediate textures belong to one
// execution and are never shared between concurrent chains.
type Executor struct {
	reg *registry.Registry
	log *slog.Logger

	chains   atomic.Uint64
	passes   atomic.Uint64
	failures atomic.Uint64
}

// New creates an executor. reg must be acquired before the first run.
func New(reg *registry.Registry, logger *slog.Logger) *Executor {
	return &Executor{reg: reg, log: logging.OrNop(logger)}
}

// Stats returns the executor counters.
func (e *Executor) Stats() Stats {
	return Stats{
		Chains:   e.chains.Load(),
		Passes:   e.passes.Load(),
		Failures: e.failures.Load(),
	}
}

// plan is an encoded chain waiting for submission.
type plan struct {
	dev   gpucore.Device
	queue *registry.Queue
	cb    gpucore.CommandBuffer

	// owned are textures released when the chain completes; out is the
	// last one.
	owned  []gpucore.Texture
	out    gpucore.Texture
	passes int
}

func (p *plan) release(keepOut bool) {
	for _, t := range p.owned {
		if keepOut && t == p.out {
			continue
		}
		p.dev.DestroyTexture(t)
	}
	p.owned = nil
}

// encode resolves every pass and records the dispatches. On failure every
// texture in owned is released.
func (e *Executor) encode(dev gpucore.Device, src gpucore.Texture, owned []gpucore.Texture, filters []Descriptor) (*plan, error) {
	p := &plan{dev: dev, owned: owned, passes: len(filters)}

	var err error
	if p.queue, err = e.reg.Queue(); err != nil {
		return nil, e.fail(p, 0, err)
	}
	enc, err := p.dev.NewCommandEncoder("filterchain")
	if err != nil {
		return nil, e.fail(p, 0, err)
	}

	cur := src
	for i, d := range filters {
		in := cur.Descriptor()
		if d.Input != gpucore.TextureFormatInvalid && d.Input != in.Format {
			return nil, e.fail(p, i, fmt.Errorf("%w: declares %v, previous output is %v", ErrFormatMismatch, d.Input, in.Format))
		}
		pipe, err := e.reg.PipelineState(d.Kernel)
		if err != nil {
			return nil, e.fail(p, i, err)
		}
		desc := d.Output.resolve(in)
		desc.Label = d.Kernel.String()
		out, err := p.dev.NewTexture(desc)
		if err != nil {
			return nil, e.fail(p, i, fmt.Errorf("allocate output: %w", err))
		}
		p.owned = append(p.owned, out)

		if err := enc.Dispatch(gpucore.Dispatch{
			Pipeline: pipe,
			Src:      cur,
			Dst:      out,
			Params:   d.Params,
			Groups:   gpucore.GroupsFor(desc.Width, desc.Height, pipe.ThreadgroupSize()),
		}); err != nil {
			return nil, e.fail(p, i, err)
		}
		cur = out
	}

	if p.cb, err = enc.Finish(); err != nil {
		return nil, e.fail(p, -1, err)
	}
	p.out = cur
	return p, nil
}

func (e *Executor) fail(p *plan, index int, err error) error {
	p.release(false)
	e.failures.Add(1)
	return &ChainError{Index: index, Err: err}
}

func (e *Executor) succeed(passes int) {
	e.chains.Add(1)
	e.passes.Add(uint64(passes)) //nolint:gosec // non-negative
}

// RunTexture runs filters over tex and returns the output texture, which
// the caller must destroy on the registry device. An empty chain returns
// tex itself.
func (e *Executor) RunTexture(ctx context.Context, tex gpucore.Texture, filters []Descriptor) (gpucore.Texture, error) {
	if len(filters) == 0 {
		return tex, nil
	}
	dev, err := e.reg.Device()
	if err != nil {
		e.failures.Add(1)
		return nil, &ChainError{Index: 0, Err: err}
	}
	p, err := e.encode(dev, tex, nil, filters)
	if err != nil {
		return nil, err
	}
	if err := p.queue.SubmitAndWait(ctx, p.cb); err != nil {
		return nil, e.fail(p, -1, err)
	}
	p.release(true)
	e.succeed(p.passes)
	return p.out, nil
}

// Run runs filters over input and blocks until the result is read back.
// An empty chain returns input itself. input is never modified.
func (e *Executor) Run(ctx context.Context, input *frame.Frame, filters []Descriptor) (*frame.Frame, error) {
	if len(filters) == 0 {
		return input, nil
	}
	start := time.Now()
	p, err := e.prepare(input, filters)
	if err != nil {
		return nil, err
	}
	if err := p.queue.SubmitAndWait(ctx, p.cb); err != nil {
		return nil, e.fail(p, -1, err)
	}
	out, err := e.finish(p, input)
	if err != nil {
		return nil, err
	}
	e.log.Debug("chain: executed", "frame", input.ID(), "passes", len(filters), "elapsed", time.Since(start))
	return out, nil
}

// RunAsync runs filters over input and calls done with the result once
// the GPU finished. done is called exactly once; failures detected before
// submission are reported on the calling goroutine.
func (e *Executor) RunAsync(ctx context.Context, input *frame.Frame, filters []Descriptor, done func(*frame.Frame, error)) {
	if len(filters) == 0 {
		done(input, nil)
		return
	}
	p, err := e.prepare(input, filters)
	if err != nil {
		done(nil, err)
		return
	}
	err = p.queue.Submit(ctx, p.cb, func(err error) {
		if err != nil {
			done(nil, e.fail(p, -1, err))
			return
		}
		done(e.finish(p, input))
	})
	if err != nil {
		done(nil, e.fail(p, -1, err))
	}
}

// prepare uploads input and encodes the chain.
func (e *Executor) prepare(input *frame.Frame, filters []Descriptor) (*plan, error) {
	dev, err := e.reg.Device()
	if err != nil {
		e.failures.Add(1)
		return nil, &ChainError{Index: 0, Err: err}
	}
	src, err := upload(dev, input)
	if err != nil {
		e.failures.Add(1)
		return nil, &ChainError{Index: 0, Err: err}
	}
	return e.encode(dev, src, []gpucore.Texture{src}, filters)
}

// finish reads the chain output back into a new frame and releases every
// texture of the plan.
func (e *Executor) finish(p *plan, input *frame.Frame) (*frame.Frame, error) {
	desc := p.out.Descriptor()
	f, err := frame.New(desc.Width, desc.Height, frameFormat(desc.Format))
	if err != nil {
		return nil, e.fail(p, -1, err)
	}
	if err := p.dev.ReadTexture(p.out, f.Data()); err != nil {
		return nil, e.fail(p, -1, fmt.Errorf("readback: %w", err))
	}
	f.SetColorSpace(input.ColorSpace())
	p.release(false)
	e.succeed(p.passes)
	return f, nil
}

// upload exposes a frame as a texture. RGBA and BGRA frames are wrapped
// directly; other layouts are widened to RGBA first.
func upload(dev gpucore.Device, f *frame.Frame) (gpucore.Texture, error) {
	src := f
	tf, ok := textureFormat(f.Format())
	if !ok {
		var err error
		if src, err = f.Convert(frame.FormatRGBA8); err != nil {
			return nil, err
		}
		tf = gpucore.TextureFormatRGBA8Unorm
	}
	desc := gpucore.TextureDescriptor{
		Label:  "chain_input",
		Width:  src.Width(),
		Height: src.Height(),
		Format: tf,
		Usage:  gpucore.TextureUsageShaderRead | gpucore.TextureUsageCopyDst,
	}
	tex, err := dev.WrapTexture(desc, src.Packed())
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	return tex, nil
}

func textureFormat(f frame.Format) (gpucore.TextureFormat, bool) {
	switch f {
	case frame.FormatRGBA8:
		return gpucore.TextureFormatRGBA8Unorm, true
	case frame.FormatBGRA8:
		return gpucore.TextureFormatBGRA8Unorm, true
	default:
		return gpucore.TextureFormatInvalid, false
	}
}

func frameFormat(f gpucore.TextureFormat) frame.Format {
	if f == gpucore.TextureFormatBGRA8Unorm {
		return frame.FormatBGRA8
	}
	return frame.FormatRGBA8
}
