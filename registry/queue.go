package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/gogpu/filterchain/gpucore"
)

// Queue serializes command buffer submission on one device. At most one
// command buffer is in flight at a time; a submission acquires the slot
// and the device releases it on completion.
//
// Queue is safe for concurrent use.
type Queue struct {
	dev  gpucore.Device
	log  *slog.Logger
	slot *semaphore.Weighted

	submitted atomic.Uint64
	failed    atomic.Uint64
}

func newQueue(dev gpucore.Device, log *slog.Logger) *Queue {
	return &Queue{dev: dev, log: log, slot: semaphore.NewWeighted(1)}
}

// Device returns the device the queue submits to.
func (q *Queue) Device() gpucore.Device {
	return q.dev
}

// Submit waits for the queue to be free, then schedules cb. done runs once
// the GPU work completed, after the slot was released, so it may submit
// again. ctx only bounds the wait for the slot.
func (q *Queue) Submit(ctx context.Context, cb gpucore.CommandBuffer, done func(error)) error {
	if err := q.slot.Acquire(ctx, 1); err != nil {
		return err
	}
	err := q.dev.Submit(cb, func(err error) {
		q.slot.Release(1)
		if err != nil {
			q.failed.Add(1)
			q.log.Debug("registry: command buffer failed", "label", cb.Label(), "err", err)
		}
		if done != nil {
			done(err)
		}
	})
	if err != nil {
		q.slot.Release(1)
		return fmt.Errorf("registry: submit %s: %w", cb.Label(), err)
	}
	q.submitted.Add(1)
	return nil
}

// SubmitAndWait submits cb and blocks until the GPU finished it. Once cb is
// scheduled the call waits for completion even if ctx is cancelled, since
// the passes still reference the caller's textures.
func (q *Queue) SubmitAndWait(ctx context.Context, cb gpucore.CommandBuffer) error {
	result := make(chan error, 1)
	if err := q.Submit(ctx, cb, func(err error) { result <- err }); err != nil {
		return err
	}
	return <-result
}

// WaitIdle blocks until no command buffer is in flight.
func (q *Queue) WaitIdle(ctx context.Context) error {
	if err := q.slot.Acquire(ctx, 1); err != nil {
		return err
	}
	q.slot.Release(1)
	return nil
}

// Idle reports whether no command buffer is in flight right now.
func (q *Queue) Idle() bool {
	if !q.slot.TryAcquire(1) {
		return false
	}
	q.slot.Release(1)
	return true
}
