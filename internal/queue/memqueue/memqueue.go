// Package memqueue implements the in-memory queue backend (C4): an
// unbounded FIFO guarded by a mutex, with blocked-receiver wake-ups. The
// mutex-plus-sync.Cond parking shape is carried over directly from the
// teacher's internal/telemetry.BoundedQueue.Dequeue, generalized so a
// park can also be woken by cancellation of the receiver's scope rather
// than only by a new send or a Close.
package memqueue

import (
	"sync"

	"github.com/bc-dunia/archivalog/internal/cancel"
	"github.com/bc-dunia/archivalog/internal/record"
	"github.com/bc-dunia/archivalog/internal/result"
)

// Queue is a FIFO with no persistence and no size bound.
type Queue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	items    []record.Record
	closed   bool
}

// New creates an empty in-memory queue.
func New() *Queue {
	q := &Queue{}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Send appends a record and wakes one waiter. It fails, with
// QueueUnavailable, only after Close; the durable queue can also fail on
// disk I/O.
func (q *Queue) Send(rec record.Record) result.Result[result.Unit] {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return result.Err[result.Unit](result.QueueUnavailable(errClosed))
	}
	q.items = append(q.items, rec)
	q.mu.Unlock()
	q.notEmpty.Signal()
	return result.Ok(result.Unit{})
}

// Receive blocks until a record is available or scope is cancelled. The
// park composes a sync.Cond wait with a callback registered through
// scope.OnCancel that broadcasts on the same condition variable, so a
// cancellation wakes the parked receiver.
func (q *Queue) Receive(scope *cancel.Scope) result.Result[record.Record] {
	if scope.Done() {
		return result.Err[record.Record](result.ScopeCancelled())
	}

	unregister := scope.OnCancel(func() {
		q.mu.Lock()
		q.notEmpty.Broadcast()
		q.mu.Unlock()
	})
	defer unregister()

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		if scope.Done() {
			return result.Err[record.Record](result.ScopeCancelled())
		}
		if q.closed {
			return result.Err[record.Record](result.QueueUnavailable(errClosed))
		}
		q.notEmpty.Wait()
	}

	item := q.items[0]
	q.items = q.items[1:]
	return result.Ok(item)
}

// Close marks the queue closed, waking every blocked receiver. Close is
// not part of the Queue contract (the durable backend has no equivalent
// of an in-process shutdown signal beyond process exit); it exists so a
// producer shutdown path can unstick any in-flight Receive deterministically.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.notEmpty.Broadcast()
}

// Len returns the current number of buffered records.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
