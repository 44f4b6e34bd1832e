package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/filterchain/chain"
	"github.com/gogpu/filterchain/frame"
	"github.com/gogpu/filterchain/gpucore"
	"github.com/gogpu/filterchain/kernel"
)

// parseChain parses 'name[k=v,...]:p1:p2,...' into descriptors.
func parseChain(s string) ([]chain.Descriptor, error) {
	var filters []chain.Descriptor
	for _, pass := range splitPasses(s) {
		d, err := parsePass(pass)
		if err != nil {
			return nil, err
		}
		filters = append(filters, d)
	}
	return filters, nil
}

// splitPasses splits on commas outside brackets.
func splitPasses(s string) []string {
	var (
		passes []string
		depth  int
		start  int
	)
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				passes = append(passes, s[start:i])
				start = i + 1
			}
		}
	}
	passes = append(passes, s[start:])

	out := passes[:0]
	for _, p := range passes {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parsePass(s string) (chain.Descriptor, error) {
	var name, constants, args string
	if i := strings.IndexByte(s, '['); i >= 0 {
		j := strings.IndexByte(s, ']')
		if j < i {
			return chain.Descriptor{}, fmt.Errorf("pass %q: unterminated [", s)
		}
		name, constants = s[:i], s[i+1:j]
		rest := s[j+1:]
		if rest != "" && rest[0] != ':' {
			return chain.Descriptor{}, fmt.Errorf("pass %q: text after ]", s)
		}
		args = strings.TrimPrefix(rest, ":")
	} else {
		name, args, _ = strings.Cut(s, ":")
	}
	if name == "" || strings.ContainsAny(name, ":]") {
		return chain.Descriptor{}, fmt.Errorf("pass %q: bad kernel name", s)
	}

	c, err := gpucore.ParseConstants(constants)
	if err != nil {
		return chain.Descriptor{}, fmt.Errorf("pass %q: %w", s, err)
	}

	var params []float32
	if args != "" {
		for _, a := range strings.Split(args, ":") {
			v, err := strconv.ParseFloat(a, 32)
			if err != nil {
				return chain.Descriptor{}, fmt.Errorf("pass %q: argument %q: %w", s, a, err)
			}
			params = append(params, float32(v))
		}
	}

	return chain.Descriptor{Kernel: kernel.Specialize(kernel.Name(name), c), Params: params}, nil
}

func parseColorSpace(s string) (frame.ColorSpace, error) {
	switch strings.ToLower(s) {
	case "":
		return frame.ColorSpaceNone, nil
	case "srgb":
		return frame.ColorSpaceSRGB, nil
	case "p3", "displayp3":
		return frame.ColorSpaceDisplayP3, nil
	case "linear", "linearsrgb":
		return frame.ColorSpaceLinearSRGB, nil
	case "extended", "extendedlinearsrgb":
		return frame.ColorSpaceExtendedLinearSRGB, nil
	default:
		return frame.ColorSpaceNone, fmt.Errorf("unknown color space %q", s)
	}
}
