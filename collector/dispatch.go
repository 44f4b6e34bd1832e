package collector

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// ErrDispatcherStopped is returned by Sync when the consumer's thread no
// longer runs functions.
var ErrDispatcherStopped = errors.New("collector: dispatcher stopped")

// Dispatcher runs functions on the consumer's thread, typically the UI
// main thread.
type Dispatcher interface {
	// Sync runs fn and returns after fn returned. It returns an error
	// without running fn when the thread is gone.
	Sync(fn func()) error
}

// Inline is a Dispatcher running functions on the calling goroutine.
type Inline struct{}

// Sync runs fn directly.
func (Inline) Sync(fn func()) error {
	fn()
	return nil
}

// MainLoop is a Dispatcher backed by one goroutine locked to its OS thread.
// Call Run from the main goroutine (or any goroutine meant to own the
// thread) before frames are delivered. Once Run returned the loop stays
// stopped.
type MainLoop struct {
	funcs    chan func()
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewMainLoop creates a main loop. It runs nothing until Run.
func NewMainLoop() *MainLoop {
	return &MainLoop{funcs: make(chan func()), stopped: make(chan struct{})}
}

// Run executes submitted functions on the current OS thread until ctx is
// done.
func (m *MainLoop) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer m.stopOnce.Do(func() { close(m.stopped) })

	for {
		select {
		case <-m.stopped:
			return ErrDispatcherStopped
		case fn := <-m.funcs:
			fn()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Sync runs fn on the loop thread and waits for it. It blocks until Run
// picks fn up, and fails with ErrDispatcherStopped once Run returned.
func (m *MainLoop) Sync(fn func()) error {
	done := make(chan struct{})
	select {
	case m.funcs <- func() {
		defer close(done)
		fn()
	}:
	case <-m.stopped:
		return ErrDispatcherStopped
	}
	<-done
	return nil
}
