package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/filterchain/backend"
	"github.com/gogpu/filterchain/gpucore"
	"github.com/gogpu/filterchain/internal/logging"
	"github.com/gogpu/filterchain/kernel"
	"github.com/gogpu/filterchain/texture"
)

var (
	// ErrClosed is returned by a registry after Close.
	ErrClosed = errors.New("registry: closed")

	// ErrNotAcquired is returned when resources are requested before a
	// successful Acquire.
	ErrNotAcquired = errors.New("registry: not acquired")
)

// Config configures a Registry.
type Config struct {
	// Open opens the device. Nil selects the best registered GPU backend;
	// CPU backends are only used through an explicit Open.
	Open func() (gpucore.Device, error)

	// Libraries are application kernel libraries, searched in order before
	// the bundled library.
	Libraries []*gpucore.LibrarySource

	// TextureCacheSize bounds the texture cache (0 = texture.DefaultCacheSize).
	TextureCacheSize int

	// Logger receives device and cache events. Nil disables logging.
	Logger *slog.Logger
}

// Stats is a snapshot of registry counters.
type Stats struct {
	Backend        string
	PipelineHits   uint64
	PipelineMisses uint64
	Pipelines      int
	Kernels        int
	Libraries      []string
	Submissions    uint64
	FailedSubmits  uint64
}

// Registry owns the device and the caches built on it.
//
// Registry is safe for concurrent use.
type Registry struct {
	cfg Config
	log *slog.Logger

	// mu guards initialization and teardown.
	mu     sync.Mutex
	done   bool
	err    error
	closed bool

	dev       gpucore.Device
	queue     *Queue
	libraries []gpucore.Library
	kernels   map[kernel.Name]gpucore.Function
	pipelines *PipelineCache
	textures  *texture.Cache
}

// New creates a registry. No device work happens until Acquire.
func New(cfg Config) *Registry {
	return &Registry{cfg: cfg, log: logging.OrNop(cfg.Logger)}
}

// Acquire opens the device, compiles the kernel libraries and builds the
// kernel table. It runs once; concurrent and later calls return the
// result of the first.
func (r *Registry) Acquire(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if r.done {
		return r.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.err = r.acquire()
	r.done = true
	if r.err != nil {
		r.log.Warn("registry: acquisition failed", "err", r.err)
		if debugBuild {
			panic(r.err)
		}
	}
	return r.err
}

// acquire must be called with r.mu held.
func (r *Registry) acquire() error {
	open := r.cfg.Open
	if open == nil {
		open = func() (gpucore.Device, error) {
			dev, _, err := backend.OpenDefault()
			return dev, err
		}
	}
	dev, err := open()
	if err != nil {
		return fmt.Errorf("%w: %w", gpucore.ErrDeviceUnavailable, err)
	}
	if dev == nil {
		return gpucore.ErrDeviceUnavailable
	}

	sources := append(append([]*gpucore.LibrarySource{}, r.cfg.Libraries...), kernel.Bundled())
	libs := make([]gpucore.Library, 0, len(sources))
	for _, src := range sources {
		lib, err := dev.NewLibrary(src)
		if err != nil {
			dev.Destroy()
			return fmt.Errorf("registry: library %s: %w", src.Name, err)
		}
		libs = append(libs, lib)
	}

	// First library defining a name wins.
	kernels := make(map[kernel.Name]gpucore.Function)
	for _, lib := range libs {
		for _, name := range lib.FunctionNames() {
			if _, ok := kernels[kernel.Name(name)]; ok {
				continue
			}
			fn, _ := lib.Function(name)
			kernels[kernel.Name(name)] = fn
		}
	}

	r.dev = dev
	r.queue = newQueue(dev, r.log)
	r.libraries = libs
	r.kernels = kernels
	r.pipelines = newPipelineCache(dev, r.lookup)
	r.textures = texture.NewCache(dev, r.cfg.TextureCacheSize, r.log)

	info := dev.Info()
	r.log.Info("registry: device acquired",
		"backend", info.Backend, "adapter", info.Name, "type", info.Type,
		"libraries", len(libs), "kernels", len(kernels))
	return nil
}

// ready returns the registry state after a successful Acquire.
func (r *Registry) ready() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.closed:
		return ErrClosed
	case !r.done:
		return ErrNotAcquired
	default:
		return r.err
	}
}

// Device returns the acquired device.
func (r *Registry) Device() (gpucore.Device, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	return r.dev, nil
}

// Queue returns the submission queue of the acquired device.
func (r *Registry) Queue() (*Queue, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	return r.queue, nil
}

// TextureCache returns the texture cache bound to the acquired device.
func (r *Registry) TextureCache() (*texture.Cache, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	return r.textures, nil
}

// LookupKernel resolves name against the application libraries, then the
// bundled library. Unknown names fail with a *gpucore.KernelError.
func (r *Registry) LookupKernel(name kernel.Name) (gpucore.Function, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	return r.lookup(name)
}

func (r *Registry) lookup(name kernel.Name) (gpucore.Function, error) {
	fn, ok := r.kernels[name]
	if !ok {
		err := &gpucore.KernelError{Name: string(name)}
		if debugBuild {
			panic(err)
		}
		return nil, err
	}
	return fn, nil
}

// PipelineState returns the compiled pipeline for id, compiling it once on
// first use. Compilation failures return a *gpucore.PipelineError.
func (r *Registry) PipelineState(id kernel.Identity) (gpucore.ComputePipeline, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	p, err := r.pipelines.GetOrCreate(id)
	if err != nil {
		r.log.Debug("registry: pipeline unavailable", "kernel", id.String(), "err", err)
		return nil, err
	}
	return p, nil
}

// Stats returns a snapshot of the registry counters. It is zero before
// Acquire.
func (r *Registry) Stats() Stats {
	if r.ready() != nil {
		return Stats{}
	}
	hits, misses := r.pipelines.Stats()
	names := make([]string, len(r.libraries))
	for i, lib := range r.libraries {
		names[i] = lib.Name()
	}
	return Stats{
		Backend:        r.dev.Info().Backend,
		PipelineHits:   hits,
		PipelineMisses: misses,
		Pipelines:      r.pipelines.Len(),
		Kernels:        len(r.kernels),
		Libraries:      names,
		Submissions:    r.queue.submitted.Load(),
		FailedSubmits:  r.queue.failed.Load(),
	}
}

// Close waits for in-flight work, releases cached textures and pipelines
// and destroys the device. Closing twice is a no-op.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.dev == nil {
		return nil
	}

	err := r.queue.WaitIdle(context.Background())
	r.textures.Flush()
	r.pipelines.release()
	r.dev.Destroy()
	r.log.Debug("registry: closed")
	return err
}
