// Package native implements gpucore.Device on a GPU through gogpu/wgpu.
//
// Kernels are WGSL compute shaders compiled to SPIR-V with gogpu/naga.
// Textures are storage buffers of packed 8-bit RGBA words; each dispatch is
// one compute pass with a params uniform (binding 0), the source buffer
// (binding 1) and the destination buffer (binding 2):
//
//	struct Params {
//	    out_size: vec2<u32>,
//	    in_size:  vec2<u32>,
//	    flags:    u32,   // bit 0: source is BGRA, bit 1: destination is BGRA
//	    count:    u32,   // number of valid values
//	    _pad:     vec2<u32>,
//	    values:   array<vec4<f32>, 6>,
//	}
//
// Specialization constants are declared with `override` and baked in as
// `const` before compilation.
//
// Importing the package registers it with the backend registry. Opening a
// device requires a Vulkan adapter:
//
//	import _ "github.com/gogpu/filterchain/backend/native"
//
// An application that already owns a device (for example a gogpu window)
// shares it through FromProvider.
package native
