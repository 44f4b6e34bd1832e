// Package backend selects the device implementation behind a registry.
//
// Backends register a device opener from an init() function and are picked
// at runtime:
//
//	import (
//		_ "github.com/gogpu/filterchain/backend/native"
//		_ "github.com/gogpu/filterchain/backend/software"
//	)
//
//	dev, name, err := backend.OpenDefault()
//
// # Available Backends
//
//   - native: compute shaders on a GPU through gogpu/wgpu (Vulkan)
//   - software: CPU reference kernels split across a worker pool
//
// OpenDefault only selects GPU devices. When no GPU adapter can be opened
// it fails with ErrBackendNotAvailable; the software backend has to be
// opened by name.
package backend
