package native

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/filterchain/gpucore"
)

// paramsSize is the byte size of the Params uniform block.
const paramsSize = 32 + gpucore.MaxParams*4

// Params flag bits.
const (
	flagSrcBGRA = 1 << 0
	flagDstBGRA = 1 << 1
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

// NewCommandEncoder starts recording. HAL encoding happens at Submit.
func (d *Device) NewCommandEncoder(label string) (gpucore.CommandEncoder, error) {
	if d.destroyed.Load() {
		return nil, gpucore.ErrDeviceDestroyed
	}
	return &encoder{dev: d, label: label}, nil
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
		return fmt.Errorf("native: dispatch source: %w", err)
	}
	dst, err := e.dev.texture(d.Dst)
	if err != nil {
		return fmt.Errorf("native: dispatch destination: %w", err)
	}
	if src == dst {
		return fmt.Errorf("native: dispatch %s: source and destination alias", p.label)
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

// encodeParams lays out the Params uniform block.
func encodeParams(p *pass) []byte {
	buf := make([]byte, paramsSize)
	le := binary.LittleEndian
	le.PutUint32(buf[0:], uint32(p.dst.desc.Width))  //nolint:gosec // validated positive
	le.PutUint32(buf[4:], uint32(p.dst.desc.Height)) //nolint:gosec // validated positive
	le.PutUint32(buf[8:], uint32(p.src.desc.Width))  //nolint:gosec // validated positive
	le.PutUint32(buf[12:], uint32(p.src.desc.Height)) //nolint:gosec // validated positive

	var flags uint32
	if p.src.desc.Format.IsBGRA() {
		flags |= flagSrcBGRA
	}
	if p.dst.desc.Format.IsBGRA() {
		flags |= flagDstBGRA
	}
	le.PutUint32(buf[16:], flags)
	le.PutUint32(buf[20:], uint32(len(p.params))) //nolint:gosec // at most MaxParams
	for i, v := range p.params {
		le.PutUint32(buf[32+i*4:], math.Float32bits(v))
	}
	return buf
}

// Submit encodes cb into one HAL command buffer, one compute pass per
// dispatch, and submits it. done runs once the GPU finished.
func (d *Device) Submit(cb gpucore.CommandBuffer, done func(error)) error {
	buf, ok := cb.(*commandBuffer)
	if !ok || buf == nil || buf.dev != d {
		return fmt.Errorf("%w: command buffer", ErrForeignResource)
	}
	if done == nil {
		done = func(error) {}
	}
	if d.destroyed.Load() {
		return gpucore.ErrDeviceDestroyed
	}

	var (
		uniforms   []hal.Buffer
		bindGroups []hal.BindGroup
	)
	cleanup := func() {
		for _, bg := range bindGroups {
			d.device.DestroyBindGroup(bg)
		}
		for _, ub := range uniforms {
			d.device.DestroyBuffer(ub)
		}
	}

	for i := range buf.passes {
		p := &buf.passes[i]
		ub, err := d.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "filterchain_params",
			Size:  paramsSize,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			cleanup()
			return fmt.Errorf("native: create params buffer: %w", err)
		}
		uniforms = append(uniforms, ub)
		if err := d.queue.WriteBuffer(ub, 0, encodeParams(p)); err != nil {
			cleanup()
			return fmt.Errorf("native: write params: %w", err)
		}

		bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  "filterchain_bind_group",
			Layout: d.bindLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{Buffer: ub.NativeHandle(), Offset: 0, Size: paramsSize}},
				{Binding: 1, Resource: gputypes.BufferBinding{Buffer: p.src.buf.NativeHandle(), Offset: 0, Size: p.src.size}},
				{Binding: 2, Resource: gputypes.BufferBinding{Buffer: p.dst.buf.NativeHandle(), Offset: 0, Size: p.dst.size}},
			},
		})
		if err != nil {
			cleanup()
			return fmt.Errorf("native: create bind group: %w", err)
		}
		bindGroups = append(bindGroups, bg)
	}

	index, release, err := d.encodeAndSubmit(buf.label, func(enc hal.CommandEncoder) error {
		for i := range buf.passes {
			p := &buf.passes[i]
			cp := enc.BeginComputePass(&hal.ComputePassDescriptor{Label: p.pipeline.label})
			cp.SetPipeline(p.pipeline.pipe)
			cp.SetBindGroup(0, bindGroups[i], nil)
			cp.Dispatch(p.groups[0], p.groups[1], 1)
			cp.End()
		}
		return nil
	})
	if err != nil {
		cleanup()
		return err
	}

	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		err := d.waitFor(index)
		release()
		cleanup()
		if err != nil {
			d.log.Debug("native: command buffer failed", "label", buf.label, "err", err)
		}
		done(err)
	}()
	return nil
}

// encodeAndSubmit records one HAL command buffer with record and submits
// it. release frees the HAL command buffer and must be called after the
// submission completed.
func (d *Device) encodeAndSubmit(label string, record func(hal.CommandEncoder) error) (uint64, func(), error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	enc, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return 0, nil, fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		enc.Destroy()
		return 0, nil, fmt.Errorf("native: begin encoding: %w", err)
	}
	if err := record(enc); err != nil {
		enc.DiscardEncoding()
		enc.Destroy()
		return 0, nil, err
	}
	cmdBuf, err := enc.EndEncoding()
	if err != nil {
		enc.Destroy()
		return 0, nil, fmt.Errorf("native: end encoding: %w", err)
	}
	release := func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.device.FreeCommandBuffer(cmdBuf)
		enc.Destroy()
	}

	index, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		d.device.FreeCommandBuffer(cmdBuf)
		enc.Destroy()
		return 0, nil, fmt.Errorf("native: submit: %w", err)
	}
	return index, release, nil
}

// waitFor polls the queue until submission index completed or the device
// timeout expires.
func (d *Device) waitFor(index uint64) error {
	deadline := time.Now().Add(d.timeout)
	backoff := 50 * time.Microsecond
	for d.queue.PollCompleted() < index {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w (submission %d)", ErrTimeout, index)
		}
		time.Sleep(backoff)
		backoff = min(backoff*2, 2*time.Millisecond)
	}
	return nil
}
