// Package cancel implements the cancellation scope (C2): a tree-structured,
// one-shot, cooperative cancellation signal. It generalizes the
// atomic.Bool-guarded lifecycle flags scattered across the teacher's
// telemetry collector (internal/telemetry.Collector's started/closed
// atomics, internal/worker.TelemetryShipper's context.WithCancel) into a
// single reusable primitive with parent/child propagation.
package cancel

import "sync"

// Scope is a node in a cancellation forest. The zero value is a root
// scope that is not cancelled, the same as New(nil) returns.
type Scope struct {
	mu        sync.Mutex
	cancelled bool
	parent    *Scope
	children  map[*Scope]struct{}
	waiters   map[int]func()
	nextID    int
}

// New creates a scope, optionally as a child of parent. If parent is
// already cancelled, the new scope is born cancelled. Child registration
// races with a concurrent parent.Cancel() are resolved by testing the
// parent's flag while holding the parent's lock, per the teacher's
// registration-under-lock idiom used for BoundedQueue's sync.Cond
// bookkeeping.
func New(parent *Scope) *Scope {
	s := &Scope{}
	if parent == nil {
		return s
	}
	s.parent = parent

	parent.mu.Lock()
	defer parent.mu.Unlock()

	if parent.cancelled {
		s.cancelled = true
		return s
	}
	if parent.children == nil {
		parent.children = make(map[*Scope]struct{})
	}
	parent.children[s] = struct{}{}
	return s
}

// Cancel marks this scope and every transitively reachable descendant
// cancelled. It is idempotent: a second call finds the flag already set
// and returns immediately. Cancellation is observed by all descendants
// atomically from any observer's perspective because Done also consults
// the ancestors' flags: once this scope's flag flips under its lock,
// every descendant reports cancelled, even before the depth-first walk
// below has reached it. OnCancel waiters fire as the walk reaches their
// scope.
func (s *Scope) Cancel() {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return
	}
	s.cancelled = true

	children := make([]*Scope, 0, len(s.children))
	for c := range s.children {
		children = append(children, c)
	}
	s.children = nil

	waiters := make([]func(), 0, len(s.waiters))
	for _, fn := range s.waiters {
		waiters = append(waiters, fn)
	}
	s.waiters = nil
	s.mu.Unlock()

	for _, fn := range waiters {
		fn()
	}
	for _, c := range children {
		c.Cancel()
	}
}

// Done is a non-blocking poll of the cancelled flag of this scope and of
// its ancestors.
func (s *Scope) Done() bool {
	s.mu.Lock()
	cancelled := s.cancelled
	s.mu.Unlock()
	if cancelled {
		return true
	}
	return s.parent != nil && s.parent.Done()
}

// OnCancel registers fn to run when the scope transitions to cancelled.
// If the scope is already cancelled, fn runs synchronously before
// OnCancel returns. The returned unregister function removes the waiter
// if it has not yet fired; it is always safe to call, including after
// fn has already run. This is the "parked receivers register a callback
// on scope" composition strategy from the design notes, used by the
// in-memory and durable queues to wake a blocked receive on cancellation.
func (s *Scope) OnCancel(fn func()) (unregister func()) {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		fn()
		return func() {}
	}
	if s.waiters == nil {
		s.waiters = make(map[int]func())
	}
	id := s.nextID
	s.nextID++
	s.waiters[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.waiters, id)
		s.mu.Unlock()
	}
}
