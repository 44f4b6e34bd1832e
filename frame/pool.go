package frame

import "sync"

// Pool is a thread-safe pool for reusing pixel storage.
//
// Pool groups byte slices by their exact size, allowing reuse of identically
// sized intermediate buffers across chain executions. This keeps a steady
// stream of same-sized camera frames from allocating per pass.
//
// Thread safety: All methods are safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	buckets map[int][][]byte
	maxSize int // max buffers per bucket
}

// NewPool creates a new pool with the given maximum buffers per bucket.
// A maxPerBucket of 0 means unlimited (use with caution).
func NewPool(maxPerBucket int) *Pool {
	return &Pool{
		buckets: make(map[int][][]byte),
		maxSize: maxPerBucket,
	}
}

// Get returns a zeroed byte slice of exactly size bytes, reusing pooled
// storage when available.
func (p *Pool) Get(size int) []byte {
	if size <= 0 {
		return nil
	}

	p.mu.Lock()
	bucket := p.buckets[size]
	if len(bucket) > 0 {
		buf := bucket[len(bucket)-1]
		p.buckets[size] = bucket[:len(bucket)-1]
		p.mu.Unlock()

		clear(buf)
		return buf
	}
	p.mu.Unlock()

	return make([]byte, size)
}

// Put returns storage to the pool. If the bucket is at capacity the slice
// is discarded and left to the GC.
func (p *Pool) Put(buf []byte) {
	if len(buf) == 0 {
		return
	}
	size := len(buf)

	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := p.buckets[size]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		return
	}
	p.buckets[size] = append(bucket, buf)
}

// Len returns the number of pooled buffers of the given size.
func (p *Pool) Len(size int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buckets[size])
}
