package gpucore

// Device abstracts over GPU backend implementations.
//
// Implementations must be safe for concurrent use. Submit may be called from
// any goroutine; callers that need a strict submission order (the registry
// queue does) serialize on their side.
//
// Resource lifecycle:
//   - Resources are created via New*/Wrap* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - Destroying a resource while in use is undefined behavior
type Device interface {
	// Info describes the device and its preferred dispatch shape.
	Info() AdapterInfo

	// NewLibrary compiles a kernel library. Entries that the backend cannot
	// execute (no WGSL for native, no CPU function for software) are not
	// exposed by the returned Library.
	NewLibrary(src *LibrarySource) (Library, error)

	// NewComputePipeline creates a pipeline state from one kernel function,
	// with the given specialization constants baked in.
	NewComputePipeline(fn Function, constants Constants) (ComputePipeline, error)

	// DestroyComputePipeline releases a pipeline state.
	DestroyComputePipeline(p ComputePipeline)

	// NewTexture allocates an uninitialized texture.
	NewTexture(desc TextureDescriptor) (Texture, error)

	// WrapTexture exposes host pixel memory as a texture. Backends that can
	// share host memory do not copy; data must stay alive and unmodified
	// until the texture is destroyed.
	WrapTexture(desc TextureDescriptor, data []byte) (Texture, error)

	// UpdateTexture refreshes a wrapped texture from host memory. It is a
	// no-op for zero-copy backends when data is the wrapped slice.
	UpdateTexture(t Texture, data []byte) error

	// ReadTexture copies texture contents into dst, which must hold
	// desc.ByteSize() bytes. This may cause a GPU-CPU synchronization stall.
	ReadTexture(t Texture, dst []byte) error

	// DestroyTexture releases a texture.
	DestroyTexture(t Texture)

	// NewCommandEncoder starts recording compute passes.
	NewCommandEncoder(label string) (CommandEncoder, error)

	// Submit schedules a finished command buffer. done is called exactly
	// once, from an arbitrary goroutine, after the GPU work completed or
	// failed. A non-nil return means the buffer was not scheduled and done
	// will not be called.
	Submit(cb CommandBuffer, done func(error)) error

	// Destroy releases the device. The device must not be used afterwards.
	Destroy()
}

// LibraryEntry is one kernel function of a library.
type LibraryEntry struct {
	// Name is the kernel entry point name.
	Name string

	// CPU is the reference implementation used by CPU backends.
	CPU KernelFunc
}

// LibrarySource is an uncompiled kernel library.
type LibrarySource struct {
	// Name identifies the library in logs and errors.
	Name string

	// WGSL is the shader source containing one compute entry point per
	// entry. Required by GPU backends.
	WGSL string

	// Entries lists the kernels of the library.
	Entries []LibraryEntry
}

// Library is a compiled kernel library.
type Library interface {
	// Name returns the library name.
	Name() string

	// Function returns the named kernel function.
	Function(name string) (Function, bool)

	// FunctionNames lists the kernels exposed by the library, sorted.
	FunctionNames() []string
}

// Function is a compiled, invocable kernel reference.
type Function interface {
	Name() string
	Library() string
}

// ComputePipeline is a compiled, ready-to-dispatch kernel. It is safe to
// reuse across any number of dispatches with different textures.
type ComputePipeline interface {
	// Label identifies the pipeline (kernel name plus specialization).
	Label() string

	// ThreadgroupSize is the preferred threadgroup extent in pixels.
	ThreadgroupSize() [2]uint32
}

// Texture is a GPU-resident pixel image.
type Texture interface {
	Descriptor() TextureDescriptor
}

// Dispatch describes one compute pass: one kernel invocation per output
// pixel, reading Src and writing Dst.
type Dispatch struct {
	Pipeline ComputePipeline
	Src      Texture
	Dst      Texture
	Params   []float32

	// Groups is the number of threadgroups in x and y.
	Groups [2]uint32
}

// CommandEncoder records compute passes.
//
// The encoder is single-use and cannot be reused after Finish.
type CommandEncoder interface {
	// Dispatch records one compute pass. Passes execute in record order and
	// each pass observes every write of the passes before it.
	Dispatch(d Dispatch) error

	// Finish ends recording.
	Finish() (CommandBuffer, error)
}

// CommandBuffer is a finished, submittable list of passes.
type CommandBuffer interface {
	Label() string

	// Passes returns the number of recorded compute passes.
	Passes() int
}

// GroupsFor returns the threadgroup count covering width x height pixels
// with one thread per pixel.
func GroupsFor(width, height int, size [2]uint32) [2]uint32 {
	tx, ty := max(size[0], 1), max(size[1], 1)
	return [2]uint32{
		(uint32(width) + tx - 1) / tx,  //nolint:gosec // width is positive
		(uint32(height) + ty - 1) / ty, //nolint:gosec // height is positive
	}
}
