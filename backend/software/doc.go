// Package software implements gpucore.Device on the CPU.
//
// Kernels run as their CPU reference functions (gpucore.KernelFunc). A single
// submission goroutine executes command buffers in submission order, and each
// compute pass is split into row bands on a work-stealing worker pool, so
// passes are sequential while the pixels of one pass are computed in
// parallel.
//
// Textures are plain byte slices. Wrapped textures share host memory with
// the caller (zero copy); intermediate textures are drawn from a frame.Pool
// and returned to it on destroy.
//
// Importing the package registers it with the backend registry:
//
//	import _ "github.com/gogpu/filterchain/backend/software"
package software
