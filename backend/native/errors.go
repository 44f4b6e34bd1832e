package native

import "errors"

// Errors specific to the native device.
var (
	// ErrNoAdapter is returned when no GPU adapter is exposed.
	ErrNoAdapter = errors.New("native: no GPU adapters found")

	// ErrBackendMissing is returned when the Vulkan HAL is not linked in.
	ErrBackendMissing = errors.New("native: vulkan backend not available")

	// ErrForeignResource is returned when a resource created by another
	// device is passed in.
	ErrForeignResource = errors.New("native: resource belongs to another device")

	// ErrEncoderFinished is returned when an encoder is used after Finish.
	ErrEncoderFinished = errors.New("native: command encoder already finished")

	// ErrTimeout is returned when the GPU does not finish a submission in
	// time.
	ErrTimeout = errors.New("native: timed out waiting for GPU")

	// ErrProvider is returned when a device provider does not expose HAL
	// handles.
	ErrProvider = errors.New("native: provider does not expose HAL types")
)
