package native

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/filterchain/gpucore"
)

type texture struct {
	desc      gpucore.TextureDescriptor
	buf       hal.Buffer
	size      uint64
	destroyed atomic.Bool
}

func (t *texture) Descriptor() gpucore.TextureDescriptor { return t.desc }

// NewTexture allocates a storage buffer holding the texture.
func (d *Device) NewTexture(desc gpucore.TextureDescriptor) (gpucore.Texture, error) {
	if d.destroyed.Load() {
		return nil, gpucore.ErrDeviceDestroyed
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	size := uint64(desc.ByteSize()) //nolint:gosec // validated positive
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create texture buffer: %w", err)
	}
	return &texture{desc: desc, buf: buf, size: size}, nil
}

// WrapTexture uploads data into a new device buffer. GPU memory is not
// shared with the host, so later host writes need UpdateTexture.
func (d *Device) WrapTexture(desc gpucore.TextureDescriptor, data []byte) (gpucore.Texture, error) {
	t, err := d.NewTexture(desc)
	if err != nil {
		return nil, err
	}
	if err := d.UpdateTexture(t, data); err != nil {
		d.DestroyTexture(t)
		return nil, err
	}
	return t, nil
}

// UpdateTexture uploads data into t.
func (d *Device) UpdateTexture(t gpucore.Texture, data []byte) error {
	tex, err := d.texture(t)
	if err != nil {
		return err
	}
	if uint64(len(data)) < tex.size {
		return fmt.Errorf("native: upload: %d bytes, need %d", len(data), tex.size)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.queue.WriteBuffer(tex.buf, 0, data[:tex.size]); err != nil {
		return fmt.Errorf("native: upload: %w", err)
	}
	return nil
}

// ReadTexture copies t into a staging buffer and reads it back. This stalls
// until the GPU finished all prior work on t.
func (d *Device) ReadTexture(t gpucore.Texture, dst []byte) error {
	tex, err := d.texture(t)
	if err != nil {
		return err
	}
	if uint64(len(dst)) < tex.size {
		return fmt.Errorf("native: readback: %d bytes, need %d", len(dst), tex.size)
	}

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "filterchain_staging",
		Size:  tex.size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("native: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	index, release, err := d.encodeAndSubmit("readback", func(enc hal.CommandEncoder) error {
		enc.CopyBufferToBuffer(tex.buf, staging, []hal.BufferCopy{
			{SrcOffset: 0, DstOffset: 0, Size: tex.size},
		})
		return nil
	})
	if err != nil {
		return err
	}
	defer release()
	if err := d.waitFor(index); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	mapping, err := d.device.MapBuffer(staging, 0, tex.size)
	if err != nil {
		return fmt.Errorf("native: map staging buffer: %w", err)
	}
	copy(dst, unsafe.Slice((*byte)(mapping.Ptr), tex.size))
	if err := d.device.UnmapBuffer(staging); err != nil {
		return fmt.Errorf("native: unmap staging buffer: %w", err)
	}
	return nil
}

// DestroyTexture releases t. Destroying twice is a no-op.
func (d *Device) DestroyTexture(t gpucore.Texture) {
	tex, ok := t.(*texture)
	if !ok || tex == nil || !tex.destroyed.CompareAndSwap(false, true) {
		return
	}
	d.device.DestroyBuffer(tex.buf)
}

func (d *Device) texture(t gpucore.Texture) (*texture, error) {
	tex, ok := t.(*texture)
	if !ok || tex == nil {
		return nil, fmt.Errorf("%w: texture", ErrForeignResource)
	}
	if tex.destroyed.Load() {
		return nil, gpucore.ErrInvalidTexture
	}
	return tex, nil
}
