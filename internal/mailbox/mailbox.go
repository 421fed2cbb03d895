// Package mailbox provides a single-slot buffer where the latest value
// wins. It is what keeps scheduled runs from piling up: a firing that
// arrives while one run is still pending simply replaces it.
package mailbox

import (
	"context"
	"sync"
)

// Mailbox holds at most one pending value. It is NOT a queue: Put
// overwrites whatever is waiting.
type Mailbox[T any] struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending *T
}

// New creates an empty mailbox.
func New[T any]() *Mailbox[T] {
	m := &Mailbox[T]{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Put stores a value, replacing any pending one. It never blocks.
func (m *Mailbox[T]) Put(v T) {
	m.mu.Lock()
	m.pending = &v
	m.mu.Unlock()
	m.cond.Signal()
}

// Take blocks until a value is available or ctx is done. The second
// return is false when it gave up waiting.
func (m *Mailbox[T]) Take(ctx context.Context) (T, bool) {
	stop := context.AfterFunc(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.cond.Broadcast()
	})
	defer stop()

	m.mu.Lock()
	defer m.mu.Unlock()

	for m.pending == nil && ctx.Err() == nil {
		m.cond.Wait()
	}
	if m.pending == nil {
		var zero T
		return zero, false
	}

	v := *m.pending
	m.pending = nil
	return v, true
}

// TryTake returns the pending value without blocking, or nil.
func (m *Mailbox[T]) TryTake() *T {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == nil {
		return nil
	}
	v := m.pending
	m.pending = nil
	return v
}

// Pending reports whether a value is waiting.
func (m *Mailbox[T]) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending != nil
}
