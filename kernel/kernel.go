// Package kernel names the filter kernels and their specializations.
//
// A Name refers to a kernel entry point looked up in the registered
// libraries (application libraries first, then the bundled one). An
// Identity additionally carries the specialization constants, and is the
// key of the pipeline-state cache.
package kernel

import (
	"github.com/gogpu/filterchain/gpucore"
)

// Name is a kernel entry point name.
//
// The constants below are provided by the bundled library. Application
// libraries may define further names, or replace bundled ones.
type Name string

// Bundled kernel names.
const (
	Copy         Name = "copy"
	Brightness   Name = "brightness"
	Contrast     Name = "contrast"
	Saturation   Name = "saturation"
	ColorMatrix  Name = "color_matrix"
	Invert       Name = "invert"
	Grayscale    Name = "grayscale"
	Threshold    Name = "threshold"
	BoxBlur      Name = "box_blur"
	Sharpen      Name = "sharpen"
	Resize       Name = "resize"
	Posterize    Name = "posterize"
	ColorConvert Name = "color_convert"
)

// Levels is the specialization constant of Posterize.
const Levels = "levels"

func (n Name) String() string {
	return string(n)
}

// Identity is a kernel name plus its specialization. Identities are
// comparable; equal identities always map to the same pipeline state.
type Identity struct {
	Name Name

	// constants is the canonical encoding of the specialization.
	constants string
}

// Of returns the unspecialized identity of name.
func Of(name Name) Identity {
	return Identity{Name: name}
}

// Specialize returns the identity of name with constants baked in.
// Constants are canonicalized, so map order never matters.
func Specialize(name Name, constants gpucore.Constants) Identity {
	return Identity{Name: name, constants: constants.Canonical()}
}

// Constants decodes the specialization. It returns nil for an
// unspecialized identity.
func (id Identity) Constants() gpucore.Constants {
	c, err := gpucore.ParseConstants(id.constants)
	if err != nil {
		// Identities are only built from canonical encodings.
		panic(err)
	}
	return c
}

// IsSpecialized reports whether id carries constants.
func (id Identity) IsSpecialized() bool {
	return id.constants != ""
}

// String returns "name" or "name[k=v,...]".
func (id Identity) String() string {
	if id.constants == "" {
		return string(id.Name)
	}
	return string(id.Name) + "[" + id.constants + "]"
}
