package parallel

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestNewWorkerPool(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		wantMin int
	}{
		{"explicit", 3, 3},
		{"zero uses GOMAXPROCS", 0, 1},
		{"negative uses GOMAXPROCS", -2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewWorkerPool(tt.workers)
			defer p.Close()
			if p.Workers() < tt.wantMin {
				t.Errorf("Workers() = %d, want >= %d", p.Workers(), tt.wantMin)
			}
			if !p.IsRunning() {
				t.Error("new pool is not running")
			}
		})
	}
}

func TestExecuteAllRunsEverything(t *testing.T) {
	p := NewWorkerPool(4)
	defer p.Close()

	var count atomic.Int64
	work := make([]func(), 1000)
	for i := range work {
		work[i] = func() { count.Add(1) }
	}
	p.ExecuteAll(work)

	if got := count.Load(); got != 1000 {
		t.Errorf("executed %d items, want 1000", got)
	}
}

func TestExecuteAllAfterClose(t *testing.T) {
	p := NewWorkerPool(2)
	p.Close()
	p.Close()

	ran := 0
	p.ExecuteAll([]func(){func() { ran++ }, func() { ran++ }})
	if ran != 2 {
		t.Errorf("ran = %d, want 2", ran)
	}
}

func TestExecuteAllConcurrentCallers(t *testing.T) {
	p := NewWorkerPool(4)
	defer p.Close()

	var count atomic.Int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			work := make([]func(), 50)
			for i := range work {
				work[i] = func() { count.Add(1) }
			}
			p.ExecuteAll(work)
		}()
	}
	wg.Wait()

	if got := count.Load(); got != 400 {
		t.Errorf("executed %d items, want 400", got)
	}
}

func TestBands(t *testing.T) {
	tests := []struct {
		height, n int
		wantLen   int
	}{
		{0, 4, 0},
		{1, 4, 1},
		{16, 4, 1},
		{17, 4, 2},
		{100, 4, 4},
		{1080, 16, 16},
		{1080, 0, 1},
	}
	for _, tt := range tests {
		bands := Bands(tt.height, tt.n)
		if len(bands) != tt.wantLen {
			t.Errorf("Bands(%d, %d) = %d bands, want %d", tt.height, tt.n, len(bands), tt.wantLen)
			continue
		}
		y := 0
		for _, b := range bands {
			if b.Y0 != y || b.Y1 <= b.Y0 {
				t.Fatalf("Bands(%d, %d): bad band %+v", tt.height, tt.n, b)
			}
			y = b.Y1
		}
		if y != tt.height {
			t.Errorf("Bands(%d, %d) cover %d rows", tt.height, tt.n, y)
		}
	}
}

func TestForRowsVisitsEveryRowOnce(t *testing.T) {
	p := NewWorkerPool(4)
	defer p.Close()

	const height = 333
	hits := make([]int32, height)
	p.ForRows(height, func(b Band) {
		for y := b.Y0; y < b.Y1; y++ {
			atomic.AddInt32(&hits[y], 1)
		}
	})
	for y, h := range hits {
		if h != 1 {
			t.Fatalf("row %d visited %d times", y, h)
		}
	}
}
