package filterchain

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/gogpu/filterchain/chain"
	"github.com/gogpu/filterchain/collector"
	"github.com/gogpu/filterchain/colorctx"
	"github.com/gogpu/filterchain/frame"
	"github.com/gogpu/filterchain/gpucore"
	"github.com/gogpu/filterchain/internal/logging"
	"github.com/gogpu/filterchain/registry"
)

// Pipeline bundles a registry, a chain executor and a color context cache
// sharing one device.
//
// Pipeline is safe for concurrent use.
type Pipeline struct {
	reg    *registry.Registry
	exec   *chain.Executor
	colors *colorctx.Cache
	log    *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// New opens a device, compiles the kernel libraries and returns a ready
// pipeline. Without WithBackend or WithDevice only GPU devices are
// considered, and New fails with gpucore.ErrDeviceUnavailable when none can
// be opened.
func New(ctx context.Context, opts ...Option) (*Pipeline, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := logging.OrNop(o.logger)

	reg := registry.New(registry.Config{
		Open:             o.open,
		Libraries:        o.libraries,
		TextureCacheSize: o.textureCacheSize,
		Logger:           log,
	})
	if err := reg.Acquire(ctx); err != nil {
		_ = reg.Close()
		return nil, fmt.Errorf("filterchain: %w", err)
	}

	// A device chosen explicitly may be a CPU device; color contexts
	// accept it then.
	policy := colorctx.DefaultPolicy
	if o.open != nil {
		policy = func(info gpucore.AdapterInfo) colorctx.Policy {
			p := colorctx.DefaultPolicy(info)
			p.SoftwareFallback = true
			return p
		}
	}

	exec := chain.New(reg, log)
	return &Pipeline{
		reg:    reg,
		exec:   exec,
		colors: colorctx.New(reg, exec, colorctx.Config{Policy: policy, Logger: log}),
		log:    log,
	}, nil
}

// Registry returns the pipeline's registry.
func (p *Pipeline) Registry() *registry.Registry { return p.reg }

// Executor returns the pipeline's chain executor.
func (p *Pipeline) Executor() *chain.Executor { return p.exec }

// Colors returns the pipeline's color context cache.
func (p *Pipeline) Colors() *colorctx.Cache { return p.colors }

// Run filters f synchronously. See chain.Executor.Run.
func (p *Pipeline) Run(ctx context.Context, f *frame.Frame, filters []chain.Descriptor) (*frame.Frame, error) {
	return p.exec.Run(ctx, f, filters)
}

// Render converts f into the given color space.
func (p *Pipeline) Render(ctx context.Context, f *frame.Frame, space frame.ColorSpace) (*frame.Frame, error) {
	cc, err := p.colors.Context(space)
	if err != nil {
		return nil, err
	}
	return cc.Render(ctx, f)
}

// Apply filters img for display. Any failure is logged and the unfiltered
// image is returned, so a view always has something to show.
func (p *Pipeline) Apply(ctx context.Context, img image.Image, filters []chain.Descriptor) image.Image {
	if img == nil || len(filters) == 0 {
		return img
	}
	out, err := p.exec.Run(ctx, frame.FromImage(img), filters)
	if err != nil {
		p.log.Warn("filterchain: showing unfiltered image", "err", err)
		return img
	}
	return out.Image()
}

// NewCollector creates a frame collector on the pipeline's device.
// main runs the callback; nil runs it on the processing goroutine.
func (p *Pipeline) NewCollector(callback func(*frame.Frame), main collector.Dispatcher, filters ...chain.Descriptor) (*collector.Collector, error) {
	textures, err := p.reg.TextureCache()
	if err != nil {
		return nil, err
	}
	return collector.New(collector.Config{
		Executor: p.exec,
		Textures: textures,
		Main:     main,
		Filters:  filters,
		Logger:   p.log,
	}, callback)
}

// Stats is a snapshot of pipeline counters.
type Stats struct {
	Registry registry.Stats
	Chains   chain.Stats
	Contexts int
}

// Stats returns the pipeline counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Registry: p.reg.Stats(),
		Chains:   p.exec.Stats(),
		Contexts: p.colors.Len(),
	}
}

// Close waits for in-flight work and releases the device.
func (p *Pipeline) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.reg.Close()
	})
	return p.closeErr
}
