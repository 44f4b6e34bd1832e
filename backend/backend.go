package backend

import (
	"errors"

	"github.com/gogpu/filterchain/gpucore"
)

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU reference backend.
	BackendSoftware = "software"
	// BackendNative is the name of the Pure Go GPU backend (gogpu/wgpu).
	BackendNative = "native"
)

// ErrBackendNotAvailable is returned when a requested backend is not
// registered or no registered backend could open a device.
var ErrBackendNotAvailable = errors.New("backend: not available")

// ErrCPUDevice is reported by OpenDefault for backends that opened a CPU
// device instead of a GPU.
var ErrCPUDevice = errors.New("backend: not a GPU device")

// Opener opens a new device. Each call returns an independent device owned
// by the caller.
type Opener func() (gpucore.Device, error)
