package colorctx

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gogpu/filterchain/chain"
	"github.com/gogpu/filterchain/frame"
	"github.com/gogpu/filterchain/gpucore"
	"github.com/gogpu/filterchain/internal/logging"
	"github.com/gogpu/filterchain/kernel"
	"github.com/gogpu/filterchain/registry"
)

// DefaultIntermediatesSize bounds the per-context render memo.
const DefaultIntermediatesSize = 16

// Config configures a Cache.
type Config struct {
	// IntermediatesSize bounds the render memo of each context
	// (0 = DefaultIntermediatesSize).
	IntermediatesSize int

	// Policy overrides DefaultPolicy. Nil uses DefaultPolicy.
	Policy func(gpucore.AdapterInfo) Policy

	// Logger receives cache events. Nil disables logging.
	Logger *slog.Logger
}

// Cache maps color spaces to contexts. Contexts are created on first use
// and never evicted.
//
// Cache is safe for concurrent use.
type Cache struct {
	reg  *registry.Registry
	exec *chain.Executor
	cfg  Config
	log  *slog.Logger

	mu       sync.RWMutex
	contexts map[frame.ColorSpace]*Context
}

// New creates a cache rendering through exec on the device of reg.
func New(reg *registry.Registry, exec *chain.Executor, cfg Config) *Cache {
	if cfg.IntermediatesSize <= 0 {
		cfg.IntermediatesSize = DefaultIntermediatesSize
	}
	if cfg.Policy == nil {
		cfg.Policy = DefaultPolicy
	}
	return &Cache{
		reg:      reg,
		exec:     exec,
		cfg:      cfg,
		log:      logging.OrNop(cfg.Logger),
		contexts: make(map[frame.ColorSpace]*Context),
	}
}

// Context returns the context of space. ColorSpaceNone selects sRGB.
func (c *Cache) Context(space frame.ColorSpace) (*Context, error) {
	space = space.OrDefault()

	c.mu.RLock()
	if x, ok := c.contexts[space]; ok {
		c.mu.RUnlock()
		return x, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if x, ok := c.contexts[space]; ok {
		return x, nil
	}
	x, err := c.newContext(space)
	if err != nil {
		return nil, err
	}
	c.contexts[space] = x
	c.log.Debug("colorctx: context created", "space", space, "working", x.policy.WorkingSpace)
	return x, nil
}

// ContextForFrame returns the context of the frame's embedded profile, or
// the sRGB context when the frame carries none.
func (c *Cache) ContextForFrame(f *frame.Frame) (*Context, error) {
	return c.Context(f.ColorSpace())
}

// Len returns the number of contexts created so far.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.contexts)
}

func (c *Cache) newContext(space frame.ColorSpace) (*Context, error) {
	dev, err := c.reg.Device()
	if err != nil {
		return nil, fmt.Errorf("colorctx: context %v: %w", space, err)
	}
	info := dev.Info()
	policy := c.cfg.Policy(info)
	if info.Type == gpucore.DeviceTypeCPU && !policy.SoftwareFallback {
		return nil, fmt.Errorf("colorctx: context %v on CPU device %q: %w", space, info.Name, gpucore.ErrDeviceUnavailable)
	}
	queue, err := c.reg.Queue()
	if err != nil {
		return nil, fmt.Errorf("colorctx: context %v: %w", space, err)
	}
	x := &Context{
		space:  space,
		policy: policy,
		exec:   c.exec,
		queue:  queue,
		log:    c.log,
	}
	if x.policy.CacheIntermediates {
		x.memo, err = lru.New[string, *frame.Frame](c.cfg.IntermediatesSize)
		if err != nil {
			return nil, err
		}
	}
	return x, nil
}

// ContextStats counts renders of one context.
type ContextStats struct {
	Renders  uint64
	MemoHits uint64
}

// Context renders frames into one color space.
type Context struct {
	space  frame.ColorSpace
	policy Policy
	exec   *chain.Executor
	queue  *registry.Queue
	log    *slog.Logger

	// memo maps source frame IDs to render results. Nil without
	// CacheIntermediates.
	memo *lru.Cache[string, *frame.Frame]

	renders  atomic.Uint64
	memoHits atomic.Uint64
}

// Space returns the output color space.
func (x *Context) Space() frame.ColorSpace { return x.space }

// Policy returns the context configuration.
func (x *Context) Policy() Policy { return x.policy }

// Stats returns the render counters.
func (x *Context) Stats() ContextStats {
	return ContextStats{Renders: x.renders.Load(), MemoHits: x.memoHits.Load()}
}

// Render returns f converted into the context's color space. A frame
// already in that space is returned as is. Results are memoized by frame
// ID, so a frame must not be modified after it was rendered. Every call
// returns a frame of its own.
func (x *Context) Render(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	src := f.ColorSpace().OrDefault()
	if src == x.space {
		return f, nil
	}
	if x.memo != nil {
		if out, ok := x.memo.Get(f.ID()); ok {
			x.memoHits.Add(1)
			// The memo keeps its own copy; callers may write theirs.
			return out.Clone(), nil
		}
	}
	if x.policy.LowPriority {
		if err := x.queue.WaitIdle(ctx); err != nil {
			return nil, err
		}
	}

	params := convertParams(src, x.space, x.policy.WorkingSpace)
	out, err := x.exec.Run(ctx, f, []chain.Descriptor{chain.Pass(kernel.ColorConvert, params...)})
	if err != nil {
		return nil, fmt.Errorf("colorctx: render %v to %v: %w", src, x.space, err)
	}
	out.SetColorSpace(x.space)
	x.renders.Add(1)
	x.log.Debug("colorctx: rendered", "frame", f.ID(), "from", src, "to", x.space)
	if x.memo != nil {
		x.memo.Add(f.ID(), out)
		return out.Clone(), nil
	}
	return out, nil
}
