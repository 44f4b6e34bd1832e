package software

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gogpu/filterchain/backend"
	"github.com/gogpu/filterchain/frame"
	"github.com/gogpu/filterchain/gpucore"
	"github.com/gogpu/filterchain/internal/logging"
	"github.com/gogpu/filterchain/internal/parallel"
)

// Errors specific to the software device.
var (
	// ErrForeignResource is returned when a resource created by another
	// device is passed in.
	ErrForeignResource = errors.New("software: resource belongs to another device")

	// ErrEncoderFinished is returned when an encoder is used after Finish.
	ErrEncoderFinished = errors.New("software: command encoder already finished")
)

// DefaultThreadgroupSize is the threadgroup extent reported to callers.
var DefaultThreadgroupSize = [2]uint32{8, 8}

// submissionQueueSize bounds the number of command buffers waiting for the
// submission goroutine before Submit blocks.
const submissionQueueSize = 64

func init() {
	backend.Register(backend.BackendSoftware, func() (gpucore.Device, error) {
		return New(Config{}), nil
	})
}

// Config configures a software device.
type Config struct {
	// Workers is the worker pool size (0 = GOMAXPROCS).
	Workers int

	// FloatWorkingFormat makes the device report float working formats,
	// which switches color contexts to an extended-range working space.
	FloatWorkingFormat bool

	// Logger receives debug output. Nil disables logging.
	Logger *slog.Logger
}

// Device is a CPU implementation of gpucore.Device.
type Device struct {
	info    gpucore.AdapterInfo
	log     *slog.Logger
	pool    *parallel.WorkerPool
	buffers *frame.Pool

	// mu guards closing of submits against concurrent Submit calls.
	mu        sync.RWMutex
	submits   chan submission
	worker    sync.WaitGroup
	destroyed atomic.Bool
}

type submission struct {
	cb   *commandBuffer
	done func(error)
}

// New creates a software device and starts its submission goroutine.
func New(cfg Config) *Device {
	d := &Device{
		info: gpucore.AdapterInfo{
			Name:               "cpu",
			Backend:            backend.BackendSoftware,
			Type:               gpucore.DeviceTypeCPU,
			ThreadgroupSize:    DefaultThreadgroupSize,
			FloatWorkingFormat: cfg.FloatWorkingFormat,
		},
		log:     logging.OrNop(cfg.Logger),
		pool:    parallel.NewWorkerPool(cfg.Workers),
		buffers: frame.NewPool(8),
		submits: make(chan submission, submissionQueueSize),
	}
	d.worker.Add(1)
	go d.run()
	return d
}

// Info describes the device.
func (d *Device) Info() gpucore.AdapterInfo {
	return d.info
}

// NewLibrary exposes every entry that has a CPU function.
func (d *Device) NewLibrary(src *gpucore.LibrarySource) (gpucore.Library, error) {
	if src == nil {
		return nil, errors.New("software: nil library source")
	}
	lib := &library{name: src.Name, funcs: make(map[string]*function, len(src.Entries))}
	for _, e := range src.Entries {
		if e.Name == "" {
			return nil, fmt.Errorf("software: library %q: unnamed entry", src.Name)
		}
		if _, dup := lib.funcs[e.Name]; dup {
			return nil, fmt.Errorf("software: library %q: duplicate entry %q", src.Name, e.Name)
		}
		if e.CPU == nil {
			continue
		}
		lib.funcs[e.Name] = &function{name: e.Name, library: src.Name, cpu: e.CPU}
	}
	return lib, nil
}

// NewComputePipeline binds a function and its specialization.
func (d *Device) NewComputePipeline(fn gpucore.Function, constants gpucore.Constants) (gpucore.ComputePipeline, error) {
	if d.destroyed.Load() {
		return nil, gpucore.ErrDeviceDestroyed
	}
	f, ok := fn.(*function)
	if !ok || f == nil {
		return nil, fmt.Errorf("%w: function", ErrForeignResource)
	}
	label := f.name
	if c := constants.Canonical(); c != "" {
		label += "[" + c + "]"
	}
	return &pipeline{
		label:     label,
		fn:        f.cpu,
		constants: maps.Clone(constants),
		size:      d.info.ThreadgroupSize,
	}, nil
}

// DestroyComputePipeline is a no-op; pipelines hold no device memory.
func (d *Device) DestroyComputePipeline(gpucore.ComputePipeline) {}

// NewTexture allocates a zeroed texture from the buffer pool.
func (d *Device) NewTexture(desc gpucore.TextureDescriptor) (gpucore.Texture, error) {
	if d.destroyed.Load() {
		return nil, gpucore.ErrDeviceDestroyed
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &texture{desc: desc, data: d.buffers.Get(desc.ByteSize()), pooled: true}, nil
}

// WrapTexture shares data with the texture. data must be tightly packed.
func (d *Device) WrapTexture(desc gpucore.TextureDescriptor, data []byte) (gpucore.Texture, error) {
	if d.destroyed.Load() {
		return nil, gpucore.ErrDeviceDestroyed
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	size := desc.ByteSize()
	if len(data) < size {
		return nil, fmt.Errorf("software: wrap %dx%d %v: %d bytes, need %d",
			desc.Width, desc.Height, desc.Format, len(data), size)
	}
	return &texture{desc: desc, data: data[:size]}, nil
}

// UpdateTexture copies data into t unless t already shares it.
func (d *Device) UpdateTexture(t gpucore.Texture, data []byte) error {
	tex, err := d.texture(t)
	if err != nil {
		return err
	}
	if len(data) < len(tex.data) {
		return fmt.Errorf("software: update: %d bytes, need %d", len(data), len(tex.data))
	}
	if len(tex.data) > 0 && &data[0] == &tex.data[0] {
		return nil
	}
	copy(tex.data, data)
	return nil
}

// ReadTexture copies the texture contents into dst.
func (d *Device) ReadTexture(t gpucore.Texture, dst []byte) error {
	tex, err := d.texture(t)
	if err != nil {
		return err
	}
	if len(dst) < len(tex.data) {
		return fmt.Errorf("software: read: %d bytes, need %d", len(dst), len(tex.data))
	}
	copy(dst, tex.data)
	return nil
}

// DestroyTexture releases t. Pooled storage is recycled; wrapped storage is
// left to its owner. Destroying twice is a no-op.
func (d *Device) DestroyTexture(t gpucore.Texture) {
	tex, ok := t.(*texture)
	if !ok || tex == nil || !tex.destroyed.CompareAndSwap(false, true) {
		return
	}
	if tex.pooled {
		d.buffers.Put(tex.data)
	}
	tex.data = nil
}

// NewCommandEncoder starts recording.
func (d *Device) NewCommandEncoder(label string) (gpucore.CommandEncoder, error) {
	if d.destroyed.Load() {
		return nil, gpucore.ErrDeviceDestroyed
	}
	return &encoder{dev: d, label: label}, nil
}

// Submit queues cb for the submission goroutine.
func (d *Device) Submit(cb gpucore.CommandBuffer, done func(error)) error {
	buf, ok := cb.(*commandBuffer)
	if !ok || buf == nil || buf.dev != d {
		return fmt.Errorf("%w: command buffer", ErrForeignResource)
	}
	if done == nil {
		done = func(error) {}
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.destroyed.Load() {
		return gpucore.ErrDeviceDestroyed
	}
	d.submits <- submission{cb: buf, done: done}
	return nil
}

// Destroy waits for submitted work and stops the device.
func (d *Device) Destroy() {
	d.mu.Lock()
	if !d.destroyed.CompareAndSwap(false, true) {
		d.mu.Unlock()
		return
	}
	close(d.submits)
	d.mu.Unlock()

	d.worker.Wait()
	d.pool.Close()
}

func (d *Device) run() {
	defer d.worker.Done()
	for s := range d.submits {
		err := d.execute(s.cb)
		if err != nil {
			d.log.Debug("software: command buffer failed", "label", s.cb.label, "err", err)
		}
		s.done(err)
	}
}

func (d *Device) execute(cb *commandBuffer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("software: %s: kernel panic: %v", cb.label, r)
		}
	}()
	for i := range cb.passes {
		if err := d.dispatch(&cb.passes[i]); err != nil {
			return fmt.Errorf("software: %s: pass %d: %w", cb.label, i, err)
		}
	}
	return nil
}

func (d *Device) dispatch(p *pass) error {
	if p.src.destroyed.Load() || p.dst.destroyed.Load() {
		return gpucore.ErrInvalidTexture
	}

	dst := p.dst.desc
	width := min(dst.Width, int(p.groups[0]*p.pipeline.size[0]))
	height := min(dst.Height, int(p.groups[1]*p.pipeline.size[1]))

	args := &gpucore.KernelArgs{
		Src:       sampler{p.src},
		DstWidth:  dst.Width,
		DstHeight: dst.Height,
		Params:    p.params,
		Constants: p.pipeline.constants,
	}
	fn := p.pipeline.fn
	out := p.dst.data
	bgra := dst.Format.IsBGRA()

	d.pool.ForRows(height, func(b parallel.Band) {
		for y := b.Y0; y < b.Y1; y++ {
			row := out[y*dst.Width*4:]
			for x := range width {
				storePixel(row[x*4:x*4+4], fn(args, x, y), bgra)
			}
		}
	})
	return nil
}

func (d *Device) texture(t gpucore.Texture) (*texture, error) {
	tex, ok := t.(*texture)
	if !ok || tex == nil {
		return nil, fmt.Errorf("%w: texture", ErrForeignResource)
	}
	if tex.destroyed.Load() {
		return nil, gpucore.ErrInvalidTexture
	}
	return tex, nil
}

type library struct {
	name  string
	funcs map[string]*function
}

func (l *library) Name() string { return l.name }

func (l *library) Function(name string) (gpucore.Function, bool) {
	f, ok := l.funcs[name]
	if !ok {
		return nil, false
	}
	return f, true
}

func (l *library) FunctionNames() []string {
	names := make([]string, 0, len(l.funcs))
	for name := range l.funcs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

type function struct {
	name    string
	library string
	cpu     gpucore.KernelFunc
}

func (f *function) Name() string    { return f.name }
func (f *function) Library() string { return f.library }

type pipeline struct {
	label     string
	fn        gpucore.KernelFunc
	constants gpucore.Constants
	size      [2]uint32
}

func (p *pipeline) Label() string              { return p.label }
func (p *pipeline) ThreadgroupSize() [2]uint32 { return p.size }
