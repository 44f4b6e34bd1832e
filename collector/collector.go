package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/filterchain/chain"
	"github.com/gogpu/filterchain/frame"
	"github.com/gogpu/filterchain/gpucore"
	"github.com/gogpu/filterchain/internal/logging"
	"github.com/gogpu/filterchain/texture"
)

var (
	// ErrNotRunning is returned by Ingest while no Run is active.
	ErrNotRunning = errors.New("collector: not running")

	// ErrRunning is returned by Run when another Run is active.
	ErrRunning = errors.New("collector: already running")

	// ErrStopped is returned by Ingest when processing stopped before the
	// buffer was taken.
	ErrStopped = errors.New("collector: stopped")
)

// Source produces captured frames. Stream calls deliver once per buffer,
// in capture order, and stops when deliver fails or ctx is done. A buffer
// must stay unmodified until deliver returns.
type Source interface {
	Stream(ctx context.Context, deliver func(*texture.PixelBuffer) error) error
}

// Config configures a Collector.
type Config struct {
	// Executor runs the filter chain. Required.
	Executor *chain.Executor

	// Textures wraps captured buffers. Required.
	Textures *texture.Cache

	// Main runs the callback. Nil runs it on the processing goroutine.
	Main Dispatcher

	// Filters is the initial filter chain.
	Filters []chain.Descriptor

	// Logger receives drop events. Nil disables logging.
	Logger *slog.Logger
}

// Stats counts collector activity.
type Stats struct {
	// Processed counts frames that went through the chain.
	Processed uint64

	// Delivered counts callbacks that returned.
	Delivered uint64

	// WrapDrops counts frames dropped because the buffer could not be
	// wrapped as a texture.
	WrapDrops uint64

	// ChainFailures counts frames dropped because the chain failed.
	ChainFailures uint64

	// DispatchDrops counts filtered frames dropped because the consumer's
	// thread was gone.
	DispatchDrops uint64
}

type job struct {
	pb   *texture.PixelBuffer
	done chan struct{}
	err  error
}

// session is the state of one Run.
type session struct {
	jobs    chan *job
	stopped chan struct{}
}

// Collector filters captured frames and delivers them to a callback.
//
// Collector is safe for concurrent use.
type Collector struct {
	exec     *chain.Executor
	textures *texture.Cache
	main     Dispatcher
	callback func(*frame.Frame)
	log      *slog.Logger

	filters atomic.Pointer[[]chain.Descriptor]

	mu      sync.Mutex
	session *session

	processed     atomic.Uint64
	delivered     atomic.Uint64
	wrapDrops     atomic.Uint64
	chainFailures atomic.Uint64
	dispatchDrops atomic.Uint64
}

// New creates a collector delivering filtered frames to callback.
func New(cfg Config, callback func(*frame.Frame)) (*Collector, error) {
	if cfg.Executor == nil || cfg.Textures == nil {
		return nil, errors.New("collector: executor and texture cache are required")
	}
	if callback == nil {
		return nil, errors.New("collector: nil callback")
	}
	c := &Collector{
		exec:     cfg.Executor,
		textures: cfg.Textures,
		main:     cfg.Main,
		callback: callback,
		log:      logging.OrNop(cfg.Logger),
	}
	if c.main == nil {
		c.main = Inline{}
	}
	c.SetFilters(cfg.Filters)
	return c, nil
}

// SetFilters replaces the filter chain. The next frame uses the new chain;
// a frame in progress finishes with the old one.
func (c *Collector) SetFilters(filters []chain.Descriptor) {
	fs := append([]chain.Descriptor(nil), filters...)
	c.filters.Store(&fs)
}

// Filters returns a copy of the current filter chain.
func (c *Collector) Filters() []chain.Descriptor {
	return append([]chain.Descriptor(nil), *c.filters.Load()...)
}

// Stats returns the collector counters.
func (c *Collector) Stats() Stats {
	return Stats{
		Processed:     c.processed.Load(),
		Delivered:     c.delivered.Load(),
		WrapDrops:     c.wrapDrops.Load(),
		ChainFailures: c.chainFailures.Load(),
		DispatchDrops: c.dispatchDrops.Load(),
	}
}

// Run processes frames from src until src ends or ctx is done.
// Cancellation takes effect between frames. Run returns nil when the
// source ended by itself.
func (c *Collector) Run(ctx context.Context, src Source) error {
	s := &session{jobs: make(chan *job, 1), stopped: make(chan struct{})}
	c.mu.Lock()
	if c.session != nil {
		c.mu.Unlock()
		return ErrRunning
	}
	c.session = s
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.session = nil
		c.mu.Unlock()
	}()

	g, gctx := errgroup.WithContext(ctx)
	loopCtx, stopLoop := context.WithCancel(gctx)
	defer stopLoop()

	g.Go(func() error {
		defer close(s.stopped)
		c.loop(loopCtx, s)
		return nil
	})
	g.Go(func() error {
		defer stopLoop()
		return src.Stream(gctx, func(pb *texture.PixelBuffer) error {
			return c.ingest(gctx, s, pb)
		})
	})

	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Ingest hands pb to the running collector and blocks until its frame was
// delivered or dropped. It is the delivery point for sources that push
// buffers themselves instead of implementing Source.
func (c *Collector) Ingest(ctx context.Context, pb *texture.PixelBuffer) error {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil {
		return ErrNotRunning
	}
	return c.ingest(ctx, s, pb)
}

func (c *Collector) ingest(ctx context.Context, s *session, pb *texture.PixelBuffer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j := &job{pb: pb, done: make(chan struct{})}
	select {
	case s.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrStopped
	}

	// Once handed over the frame completes; the buffer stays in use until
	// then.
	select {
	case <-j.done:
		return j.err
	case <-s.stopped:
		select {
		case <-j.done:
			return j.err
		default:
			return ErrStopped
		}
	}
}

func (c *Collector) loop(ctx context.Context, s *session) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.jobs:
			if err := ctx.Err(); err != nil {
				j.err = err
				close(j.done)
				return
			}
			c.handle(context.WithoutCancel(ctx), j.pb)
			close(j.done)
		}
	}
}

// handle runs one frame end to end.
func (c *Collector) handle(ctx context.Context, pb *texture.PixelBuffer) {
	tex, err := texture.ToTexture(pb, c.textures)
	if err != nil {
		c.wrapDrops.Add(1)
		c.log.Debug("collector: frame dropped", "reason", "wrap", "err", err)
		return
	}

	f, err := c.filter(ctx, tex)
	c.textures.Release(tex)
	if err != nil {
		c.chainFailures.Add(1)
		c.log.Warn("collector: frame dropped", "reason", "chain", "err", err)
		return
	}
	c.processed.Add(1)

	if err := c.main.Sync(func() { c.callback(f) }); err != nil {
		c.dispatchDrops.Add(1)
		c.log.Warn("collector: frame dropped", "reason", "dispatch", "err", err)
		return
	}
	c.delivered.Add(1)
}

// filter runs the chain over tex and reads the result back.
func (c *Collector) filter(ctx context.Context, tex gpucore.Texture) (*frame.Frame, error) {
	dev := c.textures.Device()
	out, err := c.exec.RunTexture(ctx, tex, *c.filters.Load())
	if err != nil {
		return nil, err
	}
	if out != tex {
		defer dev.DestroyTexture(out)
	}

	desc := out.Descriptor()
	format := frame.FormatRGBA8
	if desc.Format.IsBGRA() {
		format = frame.FormatBGRA8
	}
	f, err := frame.New(desc.Width, desc.Height, format)
	if err != nil {
		return nil, err
	}
	if err := dev.ReadTexture(out, f.Data()); err != nil {
		return nil, fmt.Errorf("collector: readback: %w", err)
	}
	return f, nil
}
