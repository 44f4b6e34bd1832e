package chain

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gogpu/filterchain/backend/software"
	"github.com/gogpu/filterchain/frame"
	"github.com/gogpu/filterchain/gpucore"
	"github.com/gogpu/filterchain/registry"
)

// recordingDevice tracks live textures and the kernels of every dispatch.
type recordingDevice struct {
	gpucore.Device

	live atomic.Int32

	mu         sync.Mutex
	dispatched []string
}

func (d *recordingDevice) NewTexture(desc gpucore.TextureDescriptor) (gpucore.Texture, error) {
	t, err := d.Device.NewTexture(desc)
	if err == nil {
		d.live.Add(1)
	}
	return t, err
}

func (d *recordingDevice) WrapTexture(desc gpucore.TextureDescriptor, data []byte) (gpucore.Texture, error) {
	t, err := d.Device.WrapTexture(desc, data)
	if err == nil {
		d.live.Add(1)
	}
	return t, err
}

func (d *recordingDevice) DestroyTexture(t gpucore.Texture) {
	d.live.Add(-1)
	d.Device.DestroyTexture(t)
}

func (d *recordingDevice) NewCommandEncoder(label string) (gpucore.CommandEncoder, error) {
	enc, err := d.Device.NewCommandEncoder(label)
	if err != nil {
		return nil, err
	}
	return &recordingEncoder{CommandEncoder: enc, dev: d}, nil
}

func (d *recordingDevice) kernels() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.dispatched...)
}

type recordingEncoder struct {
	gpucore.CommandEncoder
	dev *recordingDevice
}

func (e *recordingEncoder) Dispatch(d gpucore.Dispatch) error {
	if err := e.CommandEncoder.Dispatch(d); err != nil {
		return err
	}
	e.dev.mu.Lock()
	e.dev.dispatched = append(e.dev.dispatched, d.Pipeline.Label())
	e.dev.mu.Unlock()
	return nil
}

func newExecutor(t *testing.T) (*Executor, *recordingDevice) {
	t.Helper()
	dev := &recordingDevice{Device: software.New(software.Config{Workers: 2})}
	reg := registry.New(registry.Config{Open: func() (gpucore.Device, error) { return dev, nil }})
	if err := reg.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	t.Cleanup(func() { _ = reg.Close() })
	return New(reg, nil), dev
}

func solidFrame(t *testing.T, w, h int, format frame.Format, r, g, b, a uint8) *frame.Frame {
	t.Helper()
	f, err := frame.New(w, h, format)
	if err != nil {
		t.Fatal(err)
	}
	f.Fill(r, g, b, a)
	return f
}

func gradientFrame(t *testing.T, w, h int) *frame.Frame {
	t.Helper()
	f, err := frame.New(w, h, frame.FormatRGBA8)
	if err != nil {
		t.Fatal(err)
	}
	for y := range h {
		for x := range w {
			_ = f.SetRGBA(x, y, uint8(x*255/w), uint8(y*255/h), uint8((x+y)*7), 255)
		}
	}
	return f
}

func assertPixel(t *testing.T, f *frame.Frame, x, y int, want [4]uint8) {
	t.Helper()
	r, g, b, a := f.GetRGBA(x, y)
	if got := [4]uint8{r, g, b, a}; got != want {
		t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
	}
}
