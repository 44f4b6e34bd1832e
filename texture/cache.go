package texture

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"unsafe"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gogpu/filterchain/gpucore"
	"github.com/gogpu/filterchain/internal/logging"
)

// DefaultCacheSize covers a typical capture ring of a few buffers with room
// for still images.
const DefaultCacheSize = 8

// key identifies a pixel buffer by its backing store and geometry.
type key struct {
	addr   uintptr
	width  int
	height int
	stride int
	format PixelFormat
}

func keyOf(pb *PixelBuffer) key {
	return key{
		addr:   uintptr(unsafe.Pointer(unsafe.SliceData(pb.Data))),
		width:  pb.Width,
		height: pb.Height,
		stride: pb.Stride,
		format: pb.Format,
	}
}

type entry struct {
	tex gpucore.Texture

	// refs counts outstanding ToTexture results; guarded by Cache.mu.
	// An entry evicted while leased is destroyed by the last Release.
	refs    int
	evicted bool

	// packed holds the unpadded copy of a strided buffer; nil when the
	// texture wraps the buffer directly.
	packed []byte
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Len       int
}

// Cache reuses texture wrappers of recurring pixel buffers on one device.
// Evicted and flushed wrappers are destroyed on the device once no caller
// holds them.
//
// Cache is safe for concurrent use.
type Cache struct {
	dev gpucore.Device
	log *slog.Logger

	// mu makes lookup and insertion of one buffer atomic, and guards
	// leases.
	mu      sync.Mutex
	entries *lru.Cache[key, *entry]
	leased  map[gpucore.Texture]*entry

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewCache creates a cache of at most size wrappers bound to dev. A size of
// zero or less selects DefaultCacheSize.
func NewCache(dev gpucore.Device, size int, logger *slog.Logger) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c := &Cache{dev: dev, log: logging.OrNop(logger), leased: make(map[gpucore.Texture]*entry)}
	entries, err := lru.NewWithEvict(size, c.onEvict)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	c.entries = entries
	return c
}

// onEvict runs with c.mu held.
func (c *Cache) onEvict(k key, e *entry) {
	c.evictions.Add(1)
	if e.refs > 0 {
		e.evicted = true
		c.log.Debug("texture: wrapper evicted while leased", "width", k.width, "height", k.height, "refs", e.refs)
		return
	}
	c.dev.DestroyTexture(e.tex)
	c.log.Debug("texture: wrapper released", "width", k.width, "height", k.height, "format", k.format)
}

// lease must be called with c.mu held.
func (c *Cache) lease(e *entry) gpucore.Texture {
	e.refs++
	c.leased[e.tex] = e
	return e.tex
}

// Release returns a texture obtained from ToTexture. A wrapper evicted
// while leased is destroyed when its last lease is released. Releasing a
// texture the cache did not hand out is a no-op.
func (c *Cache) Release(tex gpucore.Texture) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.leased[tex]
	if !ok {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	delete(c.leased, tex)
	if e.evicted {
		c.dev.DestroyTexture(e.tex)
		c.log.Debug("texture: evicted wrapper released")
	}
}

// Device returns the device the cache is bound to.
func (c *Cache) Device() gpucore.Device {
	return c.dev
}

// Flush drops every cached wrapper. Leased wrappers are destroyed on their
// last Release.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
}

// Stats returns the cache counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Len:       c.entries.Len(),
	}
}

// ToTexture exposes pb as a texture on the cache's device.
//
// A buffer seen before reuses its wrapper; its contents are refreshed, which
// is free when the device shares host memory. Strided buffers are repacked
// into a copy owned by the wrapper. Unsupported formats, such as biplanar
// YCbCr, fail with gpucore.ErrTextureWrapFailed.
//
// The returned texture belongs to the cache and must not be destroyed by
// the caller. It stays valid until the caller passes it to c.Release, even
// if the wrapper is evicted meanwhile; every successful call must be paired
// with one Release.
func ToTexture(pb *PixelBuffer, c *Cache) (gpucore.Texture, error) {
	tf, err := pb.validate()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	k := keyOf(pb)
	if e, ok := c.entries.Get(k); ok {
		c.hits.Add(1)
		if err := c.dev.UpdateTexture(e.tex, e.contents(pb)); err != nil {
			c.entries.Remove(k)
			return nil, fmt.Errorf("%w: %w", gpucore.ErrTextureWrapFailed, err)
		}
		return c.lease(e), nil
	}
	c.misses.Add(1)

	e := &entry{}
	if !pb.isPacked() {
		e.packed = make([]byte, pb.Width*pb.Height*4)
	}
	desc := gpucore.TextureDescriptor{
		Label:  "pixel_buffer",
		Width:  pb.Width,
		Height: pb.Height,
		Format: tf,
		Usage:  gpucore.TextureUsageShaderRead | gpucore.TextureUsageCopyDst,
	}
	tex, err := c.dev.WrapTexture(desc, e.contents(pb))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gpucore.ErrTextureWrapFailed, err)
	}
	e.tex = tex
	c.entries.Add(k, e)
	c.log.Debug("texture: wrapper created", "width", pb.Width, "height", pb.Height, "format", pb.Format)
	return c.lease(e), nil
}

// contents returns the tightly packed pixels of pb, repacking into the
// entry's own storage when pb is strided.
func (e *entry) contents(pb *PixelBuffer) []byte {
	if e.packed == nil {
		return pb.Data[:pb.Width*pb.Height*4]
	}
	pb.packInto(e.packed)
	return e.packed
}
