package native

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Vulkan HAL registration.
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/filterchain/backend"
	"github.com/gogpu/filterchain/gpucore"
	"github.com/gogpu/filterchain/internal/logging"
)

// DefaultThreadgroupSize matches @workgroup_size(8, 8, 1) of the kernels.
var DefaultThreadgroupSize = [2]uint32{8, 8}

// DefaultTimeout bounds how long a submission may run on the GPU.
const DefaultTimeout = 5 * time.Second

func init() {
	backend.Register(backend.BackendNative, func() (gpucore.Device, error) {
		return Open(Config{})
	})
}

// Config configures a native device.
type Config struct {
	// Timeout bounds GPU execution of one submission (0 = DefaultTimeout).
	Timeout time.Duration

	// Logger receives device selection and debug output. Nil disables
	// logging.
	Logger *slog.Logger
}

// Device is a gpucore.Device on a wgpu HAL device.
type Device struct {
	info    gpucore.AdapterInfo
	log     *slog.Logger
	timeout time.Duration

	instance hal.Instance // nil for borrowed devices
	device   hal.Device
	queue    hal.Queue
	borrowed bool

	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout

	// mu serializes HAL encoding and queue access.
	mu        sync.Mutex
	modules   []hal.ShaderModule // library modules, destroyed with the device
	inflight  sync.WaitGroup
	destroyed atomic.Bool
}

// Open selects a Vulkan adapter, preferring discrete and integrated GPUs,
// and opens a device on it.
func Open(cfg Config) (*Device, error) {
	log := logging.OrNop(cfg.Logger)

	vk, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, ErrBackendMissing
	}
	instance, err := vk.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("native: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}

	selected := &adapters[0]
	for i := range adapters {
		t := adapters[i].Info.DeviceType
		if t == gputypes.DeviceTypeDiscreteGPU || t == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open device: %w", err)
	}

	d, err := newDevice(openDev.Device, openDev.Queue, selected.Info, cfg)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	d.instance = instance
	log.Info("native: device opened", "adapter", selected.Info.Name, "type", d.info.Type)
	return d, nil
}

// New wraps an already opened HAL device. The device stays owned by the
// caller; Destroy releases only resources created by this package.
func New(device hal.Device, queue hal.Queue, info gputypes.AdapterInfo, cfg Config) (*Device, error) {
	if device == nil || queue == nil {
		return nil, errors.New("native: nil HAL device or queue")
	}
	d, err := newDevice(device, queue, info, cfg)
	if err != nil {
		return nil, err
	}
	d.borrowed = true
	return d, nil
}

// FromProvider borrows the device of a host application. The provider must
// implement HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue.
func FromProvider(provider gpucontext.DeviceProvider, cfg Config) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrProvider)
	}

	ai := provider.AdapterInfo()
	info := gputypes.AdapterInfo{Name: ai.Name, DeviceType: deviceTypeFromProvider(ai.Type)}
	return New(device, queue, info, cfg)
}

func deviceTypeFromProvider(t gpucontext.AdapterType) gputypes.DeviceType {
	switch t {
	case gpucontext.AdapterTypeDiscrete:
		return gputypes.DeviceTypeDiscreteGPU
	case gpucontext.AdapterTypeIntegrated:
		return gputypes.DeviceTypeIntegratedGPU
	case gpucontext.AdapterTypeSoftware:
		return gputypes.DeviceTypeCPU
	default:
		return gputypes.DeviceTypeOther
	}
}

func newDevice(device hal.Device, queue hal.Queue, info gputypes.AdapterInfo, cfg Config) (*Device, error) {
	d := &Device{
		info: gpucore.AdapterInfo{
			Name:            info.Name,
			Backend:         backend.BackendNative,
			Type:            deviceType(info.DeviceType),
			ThreadgroupSize: DefaultThreadgroupSize,
		},
		log:     logging.OrNop(cfg.Logger),
		timeout: cfg.Timeout,
		device:  device,
		queue:   queue,
	}
	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}

	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "filterchain_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("native: create bind group layout: %w", err)
	}
	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "filterchain_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		device.DestroyBindGroupLayout(bindLayout)
		return nil, fmt.Errorf("native: create pipeline layout: %w", err)
	}
	d.bindLayout = bindLayout
	d.pipeLayout = pipeLayout
	return d, nil
}

func deviceType(t gputypes.DeviceType) gpucore.DeviceType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucore.DeviceTypeDiscreteGPU
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucore.DeviceTypeIntegratedGPU
	case gputypes.DeviceTypeCPU:
		return gpucore.DeviceTypeCPU
	default:
		return gpucore.DeviceTypeOther
	}
}

// Info describes the device.
func (d *Device) Info() gpucore.AdapterInfo {
	return d.info
}

// NewLibrary compiles src.WGSL with default override values. Entries whose
// name is not a compute entry point of the source are not exposed.
func (d *Device) NewLibrary(src *gpucore.LibrarySource) (gpucore.Library, error) {
	if src == nil {
		return nil, errors.New("native: nil library source")
	}
	if d.destroyed.Load() {
		return nil, gpucore.ErrDeviceDestroyed
	}
	lib := &library{name: src.Name, source: src.WGSL, funcs: make(map[string]*function)}
	if src.WGSL == "" {
		return lib, nil
	}

	module, err := d.compileModule(src.Name, src.WGSL, nil)
	if err != nil {
		return nil, err
	}
	lib.module = module
	d.mu.Lock()
	d.modules = append(d.modules, module)
	d.mu.Unlock()

	entries := entryPoints(src.WGSL)
	for _, e := range src.Entries {
		if _, found := slices.BinarySearch(entries, e.Name); found {
			lib.funcs[e.Name] = &function{name: e.Name, lib: lib}
		}
	}
	return lib, nil
}

func (d *Device) compileModule(label, wgsl string, constants gpucore.Constants) (hal.ShaderModule, error) {
	src, err := specialize(wgsl, constants)
	if err != nil {
		return nil, err
	}
	words, err := compileSPIRV(src)
	if err != nil {
		return nil, fmt.Errorf("library %s: %w", label, err)
	}
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: words},
	})
	if err != nil {
		return nil, fmt.Errorf("native: create shader module %s: %w", label, err)
	}
	return module, nil
}

// NewComputePipeline creates the pipeline for fn. Specialized pipelines get
// their own shader module with the constants baked in.
func (d *Device) NewComputePipeline(fn gpucore.Function, constants gpucore.Constants) (gpucore.ComputePipeline, error) {
	if d.destroyed.Load() {
		return nil, gpucore.ErrDeviceDestroyed
	}
	f, ok := fn.(*function)
	if !ok || f == nil {
		return nil, fmt.Errorf("%w: function", ErrForeignResource)
	}

	label := f.name
	module := f.lib.module
	var owned hal.ShaderModule
	if c := constants.Canonical(); c != "" {
		label += "[" + c + "]"
		m, err := d.compileModule(label, f.lib.source, constants)
		if err != nil {
			return nil, err
		}
		module, owned = m, m
	}

	pipe, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   label,
		Layout:  d.pipeLayout,
		Compute: hal.ComputeState{Module: module, EntryPoint: f.name},
	})
	if err != nil {
		if owned != nil {
			d.device.DestroyShaderModule(owned)
		}
		return nil, fmt.Errorf("native: create compute pipeline %s: %w", label, err)
	}
	return &pipeline{
		label:     label,
		pipe:      pipe,
		module:    owned,
		constants: maps.Clone(constants),
		size:      d.info.ThreadgroupSize,
	}, nil
}

// DestroyComputePipeline releases the pipeline and its specialized module.
func (d *Device) DestroyComputePipeline(p gpucore.ComputePipeline) {
	pl, ok := p.(*pipeline)
	if !ok || pl == nil || !pl.destroyed.CompareAndSwap(false, true) {
		return
	}
	d.device.DestroyComputePipeline(pl.pipe)
	if pl.module != nil {
		d.device.DestroyShaderModule(pl.module)
	}
}

// Destroy waits for in-flight submissions and releases every resource
// created by the device. Owned HAL devices are destroyed as well.
func (d *Device) Destroy() {
	if !d.destroyed.CompareAndSwap(false, true) {
		return
	}
	d.inflight.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, m := range d.modules {
		d.device.DestroyShaderModule(m)
	}
	d.modules = nil
	d.device.DestroyPipelineLayout(d.pipeLayout)
	d.device.DestroyBindGroupLayout(d.bindLayout)
	if d.borrowed {
		return
	}
	d.device.Destroy()
	if d.instance != nil {
		d.instance.Destroy()
	}
}

type library struct {
	name   string
	source string
	module hal.ShaderModule
	funcs  map[string]*function
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
	return slices.Sorted(maps.Keys(l.funcs))
}

type function struct {
	name string
	lib  *library
}

func (f *function) Name() string    { return f.name }
func (f *function) Library() string { return f.lib.name }

type pipeline struct {
	label     string
	pipe      hal.ComputePipeline
	module    hal.ShaderModule
	constants gpucore.Constants
	size      [2]uint32
	destroyed atomic.Bool
}

func (p *pipeline) Label() string              { return p.label }
func (p *pipeline) ThreadgroupSize() [2]uint32 { return p.size }
