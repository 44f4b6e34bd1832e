// Package chain runs ordered sequences of filter kernels over frames and
// textures.
//
// Each Descriptor is one compute pass. Pass i reads the output of pass i-1
// and writes a fresh texture sized and typed by its OutputSpec; the thread
// grid covers the output with one invocation per pixel. All passes of a
// chain are encoded into one command buffer and submitted through the
// registry queue, so chains from different goroutines never overlap on the
// device.
//
// A chain either completes every pass or fails with a *ChainError naming
// the failing pass; intermediate textures are always released and no
// partial image is returned. Running an empty chain returns the input
// itself without touching the device.
package chain
