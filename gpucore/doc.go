// Package gpucore defines the device abstraction shared by every filterchain
// component.
//
// The [Device] interface hides the concrete GPU API behind a small surface
// tailored to image filtering: compiled kernel libraries, compute pipeline
// states, pixel textures, command encoders and an asynchronous submit with a
// completion callback. Two implementations ship with the module:
//
//	               +------------------+
//	               |     gpucore      |
//	               |  (Device, Texture|
//	               |   Library, ...)  |
//	               +--------+---------+
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	| backend/native  |          | backend/software|
//	|  (wgpu HAL)     |          |   (CPU kernels) |
//	+-----------------+          +-----------------+
//
// # Resource Ownership
//
// A Device is owned by exactly one registry.Registry. Everything created from
// it (pipelines, textures, command buffers) must be destroyed through the
// same Device. Destroying a resource while it is referenced by an in-flight
// command buffer is undefined behavior.
//
// # Texture Layout
//
// Textures hold 8-bit four channel pixels. Kernels always observe channels in
// RGBA order; the [TextureFormat] of the source and destination decides how
// the bytes are swizzled on load and store, so a pass whose output format
// differs from its input converts between channel orders for free.
//
// # Errors
//
// The sentinel errors in this package form the error taxonomy of the whole
// module. Components wrap them with context; callers test with errors.Is.
package gpucore
