package kernel

import (
	_ "embed"

	"github.com/gogpu/filterchain/gpucore"
	"github.com/gogpu/filterchain/internal/filter"
)

// BundledLibrary is the name of the framework kernel library.
const BundledLibrary = "bundled"

//go:embed shaders/bundled.wgsl
var bundledWGSL string

var bundledFuncs = []struct {
	name Name
	fn   gpucore.KernelFunc
}{
	{Copy, filter.Copy},
	{Brightness, filter.Brightness},
	{Contrast, filter.Contrast},
	{Saturation, filter.Saturation},
	{ColorMatrix, filter.ColorMatrix},
	{Invert, filter.Invert},
	{Grayscale, filter.Grayscale},
	{Threshold, filter.Threshold},
	{BoxBlur, filter.BoxBlur},
	{Sharpen, filter.Sharpen},
	{Resize, filter.Resize},
	{Posterize, filter.Posterize},
	{ColorConvert, filter.ColorConvert},
}

// Bundled returns the source of the framework kernel library. Each call
// returns a fresh value the caller may modify.
func Bundled() *gpucore.LibrarySource {
	src := &gpucore.LibrarySource{
		Name:    BundledLibrary,
		WGSL:    bundledWGSL,
		Entries: make([]gpucore.LibraryEntry, 0, len(bundledFuncs)),
	}
	for _, b := range bundledFuncs {
		src.Entries = append(src.Entries, gpucore.LibraryEntry{Name: string(b.name), CPU: b.fn})
	}
	return src
}

// BundledNames lists the kernels of the bundled library in declaration
// order.
func BundledNames() []Name {
	names := make([]Name, len(bundledFuncs))
	for i, b := range bundledFuncs {
		names[i] = b.name
	}
	return names
}
