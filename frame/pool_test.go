package frame

import (
	"sync"
	"testing"
)

func TestPoolReuse(t *testing.T) {
	p := NewPool(2)
	a := p.Get(64)
	a[0] = 42
	p.Put(a)
	if p.Len(64) != 1 {
		t.Fatalf("Len = %d, want 1", p.Len(64))
	}

	b := p.Get(64)
	if &a[0] != &b[0] {
		t.Error("expected the pooled slice to be reused")
	}
	if b[0] != 0 {
		t.Error("reused slice was not cleared")
	}
}

func TestPoolBucketLimit(t *testing.T) {
	p := NewPool(1)
	p.Put(make([]byte, 8))
	p.Put(make([]byte, 8))
	if p.Len(8) != 1 {
		t.Errorf("Len = %d, want 1", p.Len(8))
	}
	p.Put(nil)
	if got := p.Get(0); got != nil {
		t.Errorf("Get(0) = %v, want nil", got)
	}
}

func TestPoolConcurrent(t *testing.T) {
	p := NewPool(0)
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				buf := p.Get(32)
				if len(buf) != 32 {
					t.Errorf("len = %d", len(buf))
					return
				}
				p.Put(buf)
			}
		}()
	}
	wg.Wait()
}
