package filterchain

import (
	"log/slog"

	"github.com/gogpu/filterchain/backend"
	"github.com/gogpu/filterchain/gpucore"
)

// Option configures a Pipeline during creation.
//
// Example:
//
//	// Best available backend, bundled kernels only
//	p, err := filterchain.New(ctx)
//
//	// CPU backend plus an application kernel library
//	p, err := filterchain.New(ctx,
//	    filterchain.WithBackend("software"),
//	    filterchain.WithLibrary(myKernels),
//	)
type Option func(*options)

type options struct {
	open             func() (gpucore.Device, error)
	libraries        []*gpucore.LibrarySource
	logger           *slog.Logger
	textureCacheSize int
}

func defaultOptions() options {
	return options{logger: globalLogger}
}

// WithBackend opens the device on the named backend instead of the best
// available GPU. The "software" CPU backend is only used when named here.
// See backend.Available for registered names.
func WithBackend(name string) Option {
	return func(o *options) {
		o.open = func() (gpucore.Device, error) {
			return backend.Open(name)
		}
	}
}

// WithDevice uses an already opened device. The pipeline takes ownership:
// Close destroys the device.
func WithDevice(dev gpucore.Device) Option {
	return func(o *options) {
		o.open = func() (gpucore.Device, error) {
			return dev, nil
		}
	}
}

// WithLibrary adds an application kernel library. Application libraries
// are searched in the order given, before the bundled library, so they may
// replace bundled kernels.
func WithLibrary(src *gpucore.LibrarySource) Option {
	return func(o *options) {
		if src != nil {
			o.libraries = append(o.libraries, src)
		}
	}
}

// WithLogger sets the logger of this pipeline and its components.
// Nil disables logging for the pipeline.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTextureCacheSize bounds the number of captured buffers kept wrapped
// as textures. Zero selects texture.DefaultCacheSize.
func WithTextureCacheSize(n int) Option {
	return func(o *options) {
		o.textureCacheSize = n
	}
}
