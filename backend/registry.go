package backend

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/filterchain/gpucore"
)

var (
	registryMu sync.RWMutex
	openers    = make(map[string]Opener)

	// Priority order for backend selection (first device that opens wins).
	backendPriority = []string{BackendNative, BackendSoftware}
)

// Register registers a device opener with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it is replaced.
func Register(name string, open Opener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	openers[name] = open
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(openers, name)
}

// Available returns the registered backend names, highest priority first.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return orderedNames()
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := openers[name]
	return ok
}

// Open opens a device on the named backend.
func Open(name string) (gpucore.Device, error) {
	registryMu.RLock()
	open, ok := openers[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	dev, err := open()
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", name, err)
	}
	return dev, nil
}

// OpenDefault opens a GPU device on the best available backend. Backends
// are tried in priority order (native, then the rest by name); the first one
// that opens a GPU device wins. CPU devices are never selected here: a CPU
// backend is only used when asked for by name.
func OpenDefault() (gpucore.Device, string, error) {
	registryMu.RLock()
	names := orderedNames()
	registryMu.RUnlock()

	if len(names) == 0 {
		return nil, "", ErrBackendNotAvailable
	}

	var errs []error
	for _, name := range names {
		if name == BackendSoftware {
			continue
		}
		dev, err := Open(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if info := dev.Info(); info.Type == gpucore.DeviceTypeCPU {
			dev.Destroy()
			errs = append(errs, fmt.Errorf("backend %s: %w", name, ErrCPUDevice))
			continue
		}
		return dev, name, nil
	}
	return nil, "", fmt.Errorf("%w: %w", ErrBackendNotAvailable, errors.Join(errs...))
}

// orderedNames must be called with registryMu held.
func orderedNames() []string {
	names := make([]string, 0, len(openers))
	for _, name := range backendPriority {
		if _, ok := openers[name]; ok {
			names = append(names, name)
		}
	}
	var rest []string
	for name := range openers {
		if !slices.Contains(backendPriority, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(names, rest...)
}
