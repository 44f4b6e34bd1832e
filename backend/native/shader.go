package native

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/gogpu/naga"

	"github.com/gogpu/filterchain/gpucore"
)

var (
	overrideDecl = regexp.MustCompile(`(?m)^\s*override\s+(\w+)\s*:\s*(\w+)\s*(?:=\s*([^;]+))?;`)
	computeEntry = regexp.MustCompile(`@compute[^{]*?\bfn\s+(\w+)\s*\(`)
)

// specialize rewrites every `override` declaration of src into a `const`
// with the value from constants, or the declared default. Overrides without
// a default must be given a value.
func specialize(src string, constants gpucore.Constants) (string, error) {
	var missing []string
	out := overrideDecl.ReplaceAllStringFunc(src, func(decl string) string {
		m := overrideDecl.FindStringSubmatch(decl)
		name, typ, def := m[1], m[2], strings.TrimSpace(m[3])

		value := def
		if v, ok := constants[name]; ok {
			value = formatConstant(v, typ)
		}
		if value == "" {
			missing = append(missing, name)
			return decl
		}
		return fmt.Sprintf("const %s: %s = %s;", name, typ, value)
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("native: no value for override %s", strings.Join(missing, ", "))
	}
	return out, nil
}

func formatConstant(v float64, typ string) string {
	switch typ {
	case "u32":
		return strconv.FormatUint(uint64(max(v, 0)), 10) + "u"
	case "i32":
		return strconv.FormatInt(int64(v), 10) + "i"
	case "bool":
		return strconv.FormatBool(v != 0)
	default:
		s := strconv.FormatFloat(v, 'g', -1, 32)
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		return s
	}
}

// entryPoints lists the compute entry points declared in src, sorted.
func entryPoints(src string) []string {
	var names []string
	for _, m := range computeEntry.FindAllStringSubmatch(src, -1) {
		names = append(names, m[1])
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// compileSPIRV compiles WGSL source to SPIR-V words.
func compileSPIRV(src string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("native: compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
