package gpucore

import (
	"errors"
	"fmt"
)

// Error taxonomy.
var (
	// ErrDeviceUnavailable is returned when no GPU device could be opened.
	// There is no functional fallback without a device.
	ErrDeviceUnavailable = errors.New("gpucore: device unavailable")

	// ErrKernelNotFound is returned when a kernel name is present in none of
	// the searched libraries.
	ErrKernelNotFound = errors.New("gpucore: kernel not found")

	// ErrPipelineCompilationFailed is returned when a compute pipeline state
	// could not be created from a kernel function.
	ErrPipelineCompilationFailed = errors.New("gpucore: pipeline compilation failed")

	// ErrTextureWrapFailed is returned when a pixel buffer cannot be exposed
	// as a texture, typically because of an unsupported pixel format.
	ErrTextureWrapFailed = errors.New("gpucore: texture wrap failed")

	// ErrDeviceDestroyed is returned by operations on a destroyed device.
	ErrDeviceDestroyed = errors.New("gpucore: device destroyed")

	// ErrInvalidTexture is returned when a texture does not belong to the
	// device it is used with, or has been destroyed.
	ErrInvalidTexture = errors.New("gpucore: invalid texture")

	// ErrInvalidDimensions is returned for non-positive texture sizes.
	ErrInvalidDimensions = errors.New("gpucore: invalid dimensions")

	// ErrTooManyParams is returned when a dispatch carries more than
	// MaxParams kernel arguments.
	ErrTooManyParams = errors.New("gpucore: too many kernel params")
)

// KernelError reports a failed kernel lookup.
type KernelError struct {
	Name string
}

func (e *KernelError) Error() string {
	return fmt.Sprintf("gpucore: kernel %q not found in any library", e.Name)
}

// Unwrap returns ErrKernelNotFound.
func (e *KernelError) Unwrap() error { return ErrKernelNotFound }

// PipelineError reports a failed compute pipeline compilation.
type PipelineError struct {
	// Identity is the canonical kernel identity that failed to compile.
	Identity string
	Err      error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("gpucore: compile pipeline %s: %v", e.Identity, e.Err)
}

// Unwrap returns both ErrPipelineCompilationFailed and the cause.
func (e *PipelineError) Unwrap() []error {
	return []error{ErrPipelineCompilationFailed, e.Err}
}
