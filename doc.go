// Package filterchain runs chains of GPU compute filters over still images
// and captured video frames.
//
// # Quick Start
//
//	p, err := filterchain.New(ctx)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	out, err := p.Run(ctx, img, []chain.Descriptor{
//	    chain.Pass(kernel.Brightness, 0.1),
//	    chain.Pass(kernel.Saturation, 1.4),
//	})
//
// # Architecture
//
// A Pipeline wires the components sharing one device:
//   - registry: the device, its submission queue and the kernel and
//     pipeline-state caches
//   - chain: encodes a filter list into one command buffer per frame
//   - colorctx: one color context per output color space
//   - texture: wraps captured pixel buffers as textures
//   - collector: filters a stream of captured frames for a consumer
//
// Kernels are looked up by name in the application libraries first and in
// the bundled library second. See package kernel for the bundled names.
//
// # Backends
//
// The native backend runs WGSL kernels through gogpu/wgpu. Without a GPU,
// New fails with gpucore.ErrDeviceUnavailable. The software backend runs the
// same kernels on the CPU; it is never picked automatically, only with
// WithBackend("software") or WithDevice.
//
// # Logging
//
// filterchain is silent by default. See SetLogger and WithLogger.
package filterchain
