package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/filterchain/backend/software"
	"github.com/gogpu/filterchain/gpucore"
	"github.com/gogpu/filterchain/kernel"
)

// recordingDevice counts compilations and tracks in-flight submissions.
type recordingDevice struct {
	gpucore.Device

	compiles    atomic.Int32
	failCompile bool
	delay       time.Duration

	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func (d *recordingDevice) NewComputePipeline(fn gpucore.Function, c gpucore.Constants) (gpucore.ComputePipeline, error) {
	d.compiles.Add(1)
	time.Sleep(d.delay)
	if d.failCompile {
		return nil, errors.New("shader rejected")
	}
	return d.Device.NewComputePipeline(fn, c)
}

func (d *recordingDevice) Submit(cb gpucore.CommandBuffer, done func(error)) error {
	n := d.inflight.Add(1)
	for {
		m := d.maxInflight.Load()
		if n <= m || d.maxInflight.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(d.delay)
	return d.Device.Submit(cb, func(err error) {
		d.inflight.Add(-1)
		done(err)
	})
}

func newRecording(t *testing.T) *recordingDevice {
	t.Helper()
	return &recordingDevice{Device: software.New(software.Config{Workers: 2})}
}

func acquired(t *testing.T, cfg Config) *Registry {
	t.Helper()
	r := New(cfg)
	if err := r.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func opener(dev gpucore.Device) func() (gpucore.Device, error) {
	return func() (gpucore.Device, error) { return dev, nil }
}

func TestAcquireOnce(t *testing.T) {
	var opens atomic.Int32
	dev := newRecording(t)
	r := New(Config{Open: func() (gpucore.Device, error) {
		opens.Add(1)
		return dev, nil
	}})
	defer r.Close()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := opens.Load(); got != 1 {
		t.Errorf("device opened %d times, want 1", got)
	}
}

func TestAcquireFailureIsSticky(t *testing.T) {
	var opens atomic.Int32
	r := New(Config{Open: func() (gpucore.Device, error) {
		opens.Add(1)
		return nil, errors.New("no adapter")
	}})

	err := r.Acquire(context.Background())
	if !errors.Is(err, gpucore.ErrDeviceUnavailable) {
		t.Fatalf("err = %v, want ErrDeviceUnavailable", err)
	}
	if again := r.Acquire(context.Background()); again != err {
		t.Errorf("second Acquire = %v, want the first error", again)
	}
	if opens.Load() != 1 {
		t.Errorf("opens = %d, want 1", opens.Load())
	}
	if _, err := r.Device(); !errors.Is(err, gpucore.ErrDeviceUnavailable) {
		t.Errorf("Device() err = %v", err)
	}
}

func TestNotAcquired(t *testing.T) {
	r := New(Config{})
	if _, err := r.LookupKernel(kernel.Copy); !errors.Is(err, ErrNotAcquired) {
		t.Errorf("LookupKernel err = %v, want ErrNotAcquired", err)
	}
	if _, err := r.PipelineState(kernel.Of(kernel.Copy)); !errors.Is(err, ErrNotAcquired) {
		t.Errorf("PipelineState err = %v, want ErrNotAcquired", err)
	}
	if st := r.Stats(); st.Kernels != 0 {
		t.Errorf("Stats before Acquire = %+v", st)
	}
}

func TestAcquireCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := New(Config{Open: opener(newRecording(t))})
	if err := r.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestLookupPrecedence(t *testing.T) {
	red := func(*gpucore.KernelArgs, int, int) [4]float32 { return [4]float32{1, 0, 0, 1} }
	app := &gpucore.LibrarySource{
		Name: "app",
		Entries: []gpucore.LibraryEntry{
			{Name: string(kernel.Invert), CPU: red},
			{Name: "vignette", CPU: red},
		},
	}
	r := acquired(t, Config{Open: opener(newRecording(t)), Libraries: []*gpucore.LibrarySource{app}})

	tests := []struct {
		name    kernel.Name
		library string
	}{
		{kernel.Invert, "app"},
		{"vignette", "app"},
		{kernel.Brightness, kernel.BundledLibrary},
		{kernel.Posterize, kernel.BundledLibrary},
	}
	for _, tt := range tests {
		fn, err := r.LookupKernel(tt.name)
		if err != nil {
			t.Errorf("LookupKernel(%s): %v", tt.name, err)
			continue
		}
		if fn.Library() != tt.library {
			t.Errorf("LookupKernel(%s) from %q, want %q", tt.name, fn.Library(), tt.library)
		}
	}

	_, err := r.LookupKernel("missing")
	var kerr *gpucore.KernelError
	if !errors.As(err, &kerr) || kerr.Name != "missing" || !errors.Is(err, gpucore.ErrKernelNotFound) {
		t.Errorf("LookupKernel(missing) err = %v", err)
	}

	st := r.Stats()
	if len(st.Libraries) != 2 || st.Libraries[0] != "app" || st.Libraries[1] != kernel.BundledLibrary {
		t.Errorf("Libraries = %v", st.Libraries)
	}
	if st.Kernels != len(kernel.BundledNames())+1 {
		t.Errorf("Kernels = %d, want %d", st.Kernels, len(kernel.BundledNames())+1)
	}
}

func TestPipelineStateCompilesOnce(t *testing.T) {
	dev := newRecording(t)
	dev.delay = 5 * time.Millisecond
	r := acquired(t, Config{Open: opener(dev)})

	const n = 16
	results := make([]gpucore.ComputePipeline, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := r.PipelineState(kernel.Of(kernel.Copy))
			if err != nil {
				t.Errorf("PipelineState: %v", err)
			}
			results[i] = p
		}()
	}
	wg.Wait()

	if got := dev.compiles.Load(); got != 1 {
		t.Errorf("compiles = %d, want 1", got)
	}
	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatalf("caller %d got a different pipeline", i)
		}
	}
	st := r.Stats()
	if st.PipelineMisses != 1 || st.PipelineHits != n-1 || st.Pipelines != 1 {
		t.Errorf("Stats = %+v", st)
	}
}

func TestPipelineStateSpecialization(t *testing.T) {
	dev := newRecording(t)
	r := acquired(t, Config{Open: opener(dev)})

	ids := []kernel.Identity{
		kernel.Specialize(kernel.Posterize, gpucore.Constants{kernel.Levels: 3}),
		kernel.Specialize(kernel.Posterize, gpucore.Constants{kernel.Levels: 5}),
		kernel.Specialize(kernel.Posterize, gpucore.Constants{kernel.Levels: 3}),
		kernel.Of(kernel.Posterize),
	}
	for _, id := range ids {
		if _, err := r.PipelineState(id); err != nil {
			t.Fatalf("PipelineState(%s): %v", id, err)
		}
	}
	if got := dev.compiles.Load(); got != 3 {
		t.Errorf("compiles = %d, want 3", got)
	}
}

func TestPipelineStateFailure(t *testing.T) {
	dev := newRecording(t)
	dev.failCompile = true
	r := acquired(t, Config{Open: opener(dev)})

	for range 2 {
		_, err := r.PipelineState(kernel.Of(kernel.Invert))
		var perr *gpucore.PipelineError
		if !errors.As(err, &perr) || perr.Identity != "invert" {
			t.Fatalf("err = %v, want PipelineError for invert", err)
		}
		if !errors.Is(err, gpucore.ErrPipelineCompilationFailed) {
			t.Errorf("err = %v, want ErrPipelineCompilationFailed", err)
		}
	}
	if got := dev.compiles.Load(); got != 2 {
		t.Errorf("failed compiles must not be cached: compiles = %d, want 2", got)
	}

	if _, err := r.PipelineState(kernel.Of("missing")); !errors.Is(err, gpucore.ErrKernelNotFound) {
		t.Errorf("unknown kernel err = %v, want ErrKernelNotFound", err)
	}
}

func TestQueueSerializes(t *testing.T) {
	dev := newRecording(t)
	dev.delay = time.Millisecond
	r := acquired(t, Config{Open: opener(dev)})
	q, err := r.Queue()
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			enc, err := dev.NewCommandEncoder("empty")
			if err != nil {
				t.Errorf("NewCommandEncoder: %v", err)
				return
			}
			cb, err := enc.Finish()
			if err != nil {
				t.Errorf("Finish: %v", err)
				return
			}
			if err := q.SubmitAndWait(context.Background(), cb); err != nil {
				t.Errorf("SubmitAndWait: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := dev.maxInflight.Load(); got != 1 {
		t.Errorf("max in-flight submissions = %d, want 1", got)
	}
	if err := q.WaitIdle(context.Background()); err != nil {
		t.Errorf("WaitIdle: %v", err)
	}
	if !q.Idle() {
		t.Error("queue should be idle")
	}
	if got := r.Stats().Submissions; got != 8 {
		t.Errorf("Submissions = %d, want 8", got)
	}
}

func TestClose(t *testing.T) {
	r := New(Config{Open: opener(newRecording(t))})
	if err := r.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := r.PipelineState(kernel.Of(kernel.Copy)); err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := r.Acquire(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Acquire after Close = %v, want ErrClosed", err)
	}
	if _, err := r.TextureCache(); !errors.Is(err, ErrClosed) {
		t.Errorf("TextureCache after Close = %v, want ErrClosed", err)
	}
}
