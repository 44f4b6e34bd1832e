package software

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/gogpu/filterchain/gpucore"
	"github.com/gogpu/filterchain/kernel"
)

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	d := New(Config{Workers: 2})
	t.Cleanup(d.Destroy)
	return d
}

func pipelineFor(t *testing.T, d *Device, name kernel.Name, constants gpucore.Constants) gpucore.ComputePipeline {
	t.Helper()
	lib, err := d.NewLibrary(kernel.Bundled())
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}
	fn, ok := lib.Function(string(name))
	if !ok {
		t.Fatalf("Function(%s) not found", name)
	}
	p, err := d.NewComputePipeline(fn, constants)
	if err != nil {
		t.Fatalf("NewComputePipeline() error = %v", err)
	}
	return p
}

func submitAndWait(t *testing.T, d *Device, cb gpucore.CommandBuffer) error {
	t.Helper()
	done := make(chan error, 1)
	if err := d.Submit(cb, func(err error) { done <- err }); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("submission did not complete")
		return nil
	}
}

func desc(w, h int, f gpucore.TextureFormat) gpucore.TextureDescriptor {
	return gpucore.TextureDescriptor{Width: w, Height: h, Format: f, Usage: gpucore.DefaultIntermediateUsage}
}

func TestLibraryExposesCPUEntries(t *testing.T) {
	d := newTestDevice(t)
	lib, err := d.NewLibrary(&gpucore.LibrarySource{
		Name: "app",
		Entries: []gpucore.LibraryEntry{
			{Name: "b", CPU: func(a *gpucore.KernelArgs, x, y int) [4]float32 { return a.Src.Load(x, y) }},
			{Name: "gpu_only"},
			{Name: "a", CPU: func(*gpucore.KernelArgs, int, int) [4]float32 { return [4]float32{} }},
		},
	})
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}
	if got := lib.FunctionNames(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("FunctionNames() = %v", got)
	}
	if _, ok := lib.Function("gpu_only"); ok {
		t.Error("entry without CPU function exposed")
	}
	fn, _ := lib.Function("a")
	if fn.Library() != "app" {
		t.Errorf("Library() = %q", fn.Library())
	}
}

func TestLibraryDuplicateEntry(t *testing.T) {
	d := newTestDevice(t)
	k := func(*gpucore.KernelArgs, int, int) [4]float32 { return [4]float32{} }
	_, err := d.NewLibrary(&gpucore.LibrarySource{
		Name:    "dup",
		Entries: []gpucore.LibraryEntry{{Name: "x", CPU: k}, {Name: "x", CPU: k}},
	})
	if err == nil {
		t.Fatal("duplicate entry accepted")
	}
}

func TestCopySwizzlesBGRA(t *testing.T) {
	d := newTestDevice(t)
	p := pipelineFor(t, d, kernel.Copy, nil)

	// One BGRA pixel: blue=10 green=20 red=30 alpha=40.
	src, err := d.WrapTexture(desc(1, 1, gpucore.TextureFormatBGRA8Unorm), []byte{10, 20, 30, 40})
	if err != nil {
		t.Fatal(err)
	}
	dst, err := d.NewTexture(desc(1, 1, gpucore.TextureFormatRGBA8Unorm))
	if err != nil {
		t.Fatal(err)
	}

	enc, _ := d.NewCommandEncoder("swizzle")
	if err := enc.Dispatch(gpucore.Dispatch{Pipeline: p, Src: src, Dst: dst, Groups: [2]uint32{1, 1}}); err != nil {
		t.Fatal(err)
	}
	cb, _ := enc.Finish()
	if err := submitAndWait(t, d, cb); err != nil {
		t.Fatalf("execution error = %v", err)
	}

	out := make([]byte, 4)
	if err := d.ReadTexture(dst, out); err != nil {
		t.Fatal(err)
	}
	if want := []byte{30, 20, 10, 40}; !slices.Equal(out, want) {
		t.Errorf("pixel = %v, want %v", out, want)
	}
}

func TestPassesRunInOrder(t *testing.T) {
	d := newTestDevice(t)
	zero := pipelineFor(t, d, kernel.Brightness, nil)
	inv := pipelineFor(t, d, kernel.Invert, nil)

	const w, h = 40, 37
	data := make([]byte, w*h*4)
	for i := range data {
		data[i] = byte(i)
	}
	src, _ := d.WrapTexture(desc(w, h, gpucore.TextureFormatRGBA8Unorm), data)
	mid, _ := d.NewTexture(desc(w, h, gpucore.TextureFormatRGBA8Unorm))
	dst, _ := d.NewTexture(desc(w, h, gpucore.TextureFormatRGBA8Unorm))
	groups := gpucore.GroupsFor(w, h, zero.ThreadgroupSize())

	enc, _ := d.NewCommandEncoder("order")
	_ = enc.Dispatch(gpucore.Dispatch{Pipeline: zero, Src: src, Dst: mid, Params: []float32{0}, Groups: groups})
	_ = enc.Dispatch(gpucore.Dispatch{Pipeline: inv, Src: mid, Dst: dst, Groups: groups})
	cb, _ := enc.Finish()
	if cb.Passes() != 2 {
		t.Fatalf("Passes() = %d, want 2", cb.Passes())
	}
	if err := submitAndWait(t, d, cb); err != nil {
		t.Fatal(err)
	}

	out := make([]byte, w*h*4)
	_ = d.ReadTexture(dst, out)
	for i := 0; i < len(out); i += 4 {
		if out[i] != 255 || out[i+1] != 255 || out[i+2] != 255 || out[i+3] != data[i+3] {
			t.Fatalf("pixel %d = %v, want white with alpha %d", i/4, out[i:i+4], data[i+3])
		}
	}
}

func TestKernelPanicBecomesError(t *testing.T) {
	d := newTestDevice(t)
	lib, _ := d.NewLibrary(&gpucore.LibrarySource{
		Name: "bad",
		Entries: []gpucore.LibraryEntry{{Name: "boom", CPU: func(*gpucore.KernelArgs, int, int) [4]float32 {
			panic("boom")
		}}},
	})
	fn, _ := lib.Function("boom")
	p, _ := d.NewComputePipeline(fn, nil)
	src, _ := d.NewTexture(desc(2, 2, gpucore.TextureFormatRGBA8Unorm))
	dst, _ := d.NewTexture(desc(2, 2, gpucore.TextureFormatRGBA8Unorm))

	enc, _ := d.NewCommandEncoder("panic")
	_ = enc.Dispatch(gpucore.Dispatch{Pipeline: p, Src: src, Dst: dst, Groups: [2]uint32{1, 1}})
	cb, _ := enc.Finish()
	if err := submitAndWait(t, d, cb); err == nil {
		t.Fatal("expected error from panicking kernel")
	}
}

func TestEncoderValidation(t *testing.T) {
	d := newTestDevice(t)
	p := pipelineFor(t, d, kernel.Copy, nil)
	tex, _ := d.NewTexture(desc(2, 2, gpucore.TextureFormatRGBA8Unorm))
	other, _ := d.NewTexture(desc(2, 2, gpucore.TextureFormatRGBA8Unorm))

	enc, _ := d.NewCommandEncoder("validate")
	if err := enc.Dispatch(gpucore.Dispatch{Pipeline: p, Src: tex, Dst: tex}); err == nil {
		t.Error("aliasing dispatch accepted")
	}
	params := make([]float32, gpucore.MaxParams+1)
	err := enc.Dispatch(gpucore.Dispatch{Pipeline: p, Src: tex, Dst: other, Params: params})
	if !errors.Is(err, gpucore.ErrTooManyParams) {
		t.Errorf("too many params error = %v", err)
	}
	d.DestroyTexture(other)
	if err := enc.Dispatch(gpucore.Dispatch{Pipeline: p, Src: tex, Dst: other}); !errors.Is(err, gpucore.ErrInvalidTexture) {
		t.Errorf("destroyed texture error = %v", err)
	}
	if _, err := enc.Finish(); err != nil {
		t.Fatal(err)
	}
	if _, err := enc.Finish(); !errors.Is(err, ErrEncoderFinished) {
		t.Errorf("second Finish error = %v", err)
	}
}

func TestWrapTextureSharesMemory(t *testing.T) {
	d := newTestDevice(t)
	data := []byte{1, 2, 3, 4}
	tex, err := d.WrapTexture(desc(1, 1, gpucore.TextureFormatRGBA8Unorm), data)
	if err != nil {
		t.Fatal(err)
	}
	data[0] = 99
	if err := d.UpdateTexture(tex, data); err != nil {
		t.Fatal(err)
	}
	out := make([]byte, 4)
	_ = d.ReadTexture(tex, out)
	if out[0] != 99 {
		t.Errorf("wrapped texture did not observe host write: %v", out)
	}

	if _, err := d.WrapTexture(desc(2, 2, gpucore.TextureFormatRGBA8Unorm), data); err == nil {
		t.Error("short buffer accepted")
	}
}

func TestDestroyedDevice(t *testing.T) {
	d := New(Config{Workers: 1})
	enc, _ := d.NewCommandEncoder("late")
	cb, _ := enc.Finish()
	d.Destroy()
	d.Destroy()

	if err := d.Submit(cb, nil); !errors.Is(err, gpucore.ErrDeviceDestroyed) {
		t.Errorf("Submit after Destroy error = %v", err)
	}
	if _, err := d.NewTexture(desc(1, 1, gpucore.TextureFormatRGBA8Unorm)); !errors.Is(err, gpucore.ErrDeviceDestroyed) {
		t.Errorf("NewTexture after Destroy error = %v", err)
	}
}

func TestPipelineLabelIncludesConstants(t *testing.T) {
	d := newTestDevice(t)
	p := pipelineFor(t, d, kernel.Posterize, gpucore.Constants{kernel.Levels: 3})
	if got, want := p.Label(), "posterize[levels=3]"; got != want {
		t.Errorf("Label() = %q, want %q", got, want)
	}
	if p.ThreadgroupSize() != DefaultThreadgroupSize {
		t.Errorf("ThreadgroupSize() = %v", p.ThreadgroupSize())
	}
}
