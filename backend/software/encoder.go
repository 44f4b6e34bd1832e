package software

import (
	"fmt"

	"github.com/gogpu/filterchain/gpucore"
)

type pass struct {
	pipeline *pipeline
	src, dst *texture
	params   []float32
	groups   [2]uint32
}

type encoder struct {
	dev      *Device
	label    string
	passes   []pass
	finished bool
}

func (e *encoder) Dispatch(d gpucore.Dispatch) error {
	if e.finished {
		return ErrEncoderFinished
	}
	p, ok := d.Pipeline.(*pipeline)
	if !ok || p == nil {
		return fmt.Errorf("%w: pipeline", ErrForeignResource)
	}
	src, err := e.dev.texture(d.Src)
	if err != nil {
		return fmt.Errorf("software: dispatch source: %w", err)
	}
	dst, err := e.dev.texture(d.Dst)
	if err != nil {
		return fmt.Errorf("software: dispatch destination: %w", err)
	}
	if src == dst {
		return fmt.Errorf("software: dispatch %s: source and destination alias", p.label)
	}
	if len(d.Params) > gpucore.MaxParams {
		return fmt.Errorf("%w: %d", gpucore.ErrTooManyParams, len(d.Params))
	}

	e.passes = append(e.passes, pass{
		pipeline: p,
		src:      src,
		dst:      dst,
		params:   append([]float32(nil), d.Params...),
		groups:   d.Groups,
	})
	return nil
}

func (e *encoder) Finish() (gpucore.CommandBuffer, error) {
	if e.finished {
		return nil, ErrEncoderFinished
	}
	e.finished = true
	return &commandBuffer{dev: e.dev, label: e.label, passes: e.passes}, nil
}

type commandBuffer struct {
	dev    *Device
	label  string
	passes []pass
}

func (c *commandBuffer) Label() string { return c.label }
func (c *commandBuffer) Passes() int   { return len(c.passes) }
