package registry

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/filterchain/gpucore"
	"github.com/gogpu/filterchain/kernel"
)

// PipelineCache maps kernel identities to compiled pipeline states.
//
// Entries are never evicted. Concurrent requests for the same identity
// compile once: the fast path looks up under a read lock, the slow path
// re-checks under the write lock before compiling. Failed compilations are
// not cached.
type PipelineCache struct {
	dev    gpucore.Device
	lookup func(kernel.Name) (gpucore.Function, error)

	mu      sync.RWMutex
	entries map[kernel.Identity]gpucore.ComputePipeline

	hits   atomic.Uint64
	misses atomic.Uint64
}

func newPipelineCache(dev gpucore.Device, lookup func(kernel.Name) (gpucore.Function, error)) *PipelineCache {
	return &PipelineCache{
		dev:     dev,
		lookup:  lookup,
		entries: make(map[kernel.Identity]gpucore.ComputePipeline),
	}
}

// GetOrCreate returns the cached pipeline for id, compiling it on the
// first request.
func (c *PipelineCache) GetOrCreate(id kernel.Identity) (gpucore.ComputePipeline, error) {
	c.mu.RLock()
	if p, ok := c.entries[id]; ok {
		c.mu.RUnlock()
		c.hits.Add(1)
		return p, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.entries[id]; ok {
		c.hits.Add(1)
		return p, nil
	}

	fn, err := c.lookup(id.Name)
	if err != nil {
		return nil, err
	}
	p, err := c.dev.NewComputePipeline(fn, id.Constants())
	if err != nil {
		return nil, &gpucore.PipelineError{Identity: id.String(), Err: err}
	}
	c.entries[id] = p
	c.misses.Add(1)
	return p, nil
}

// Len returns the number of cached pipelines.
func (c *PipelineCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns cache hits and misses. A miss is a successful compile.
func (c *PipelineCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// release destroys every cached pipeline.
func (c *PipelineCache) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, p := range c.entries {
		c.dev.DestroyComputePipeline(p)
		delete(c.entries, id)
	}
}
