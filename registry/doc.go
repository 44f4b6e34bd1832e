// Package registry owns the GPU resources shared by every filter component:
// one device, its submission queue, the kernel function table, the
// pipeline-state cache and the texture cache.
//
// A Registry is constructed explicitly and handed to the components that
// need it. Nothing happens on the device until Acquire, which runs exactly
// once:
//
//	reg := registry.New(registry.Config{})
//	if err := reg.Acquire(ctx); err != nil {
//	    return err // wraps gpucore.ErrDeviceUnavailable
//	}
//	defer reg.Close()
//
// Kernel names are resolved against the application libraries first and
// the bundled library second, so an application can replace any bundled
// kernel by defining an entry point of the same name.
//
// Builds with the filterdebug tag panic on acquisition failures and unknown
// kernels instead of returning errors.
package registry
