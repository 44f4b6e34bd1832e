// Package filter provides the CPU reference implementations of the bundled
// kernels.
//
// Every function here has the gpucore.KernelFunc signature and mirrors one
// entry point of the bundled WGSL library, so the software backend and the
// native backend agree on results up to 8-bit rounding.
//
// Conventions shared with the WGSL kernels:
//   - colors are straight (not premultiplied) RGBA in [0, 1]
//   - alpha passes through unless a kernel documents otherwise
//   - results are clamped to [0, 1] when stored, never here
//   - missing params take the documented default
package filter
