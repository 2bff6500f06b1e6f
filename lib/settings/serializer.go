package settings

import "sync"

// --------------------------------------------------------------------------
// Update Serializer
// --------------------------------------------------------------------------

// updateLock is the single global mutual-exclusion lock shared by every
// read-modify-write operation on the store (typed merge updates, bounded
// collection upserts, stats updates). It prevents two concurrent updates from
// reading the same base value and each writing back a partial result.
//
// Waiters are queued and granted the lock in strict arrival order. The lock
// covers the whole store, not individual keys; for a low-throughput settings
// store this coarseness is a deliberate trade, see the package documentation.
type updateLock struct {
	mu     sync.Mutex
	locked bool
	queue  []chan struct{}
}

// Acquire blocks until the caller holds the lock. Callers are served in FIFO
// arrival order.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (l *updateLock) Acquire() {
	l.mu.Lock()
	if !l.locked {
		l.locked = true
		l.mu.Unlock()
		return
	}

	ready := make(chan struct{})
	l.queue = append(l.queue, ready)
	l.mu.Unlock()

	<-ready
}

// Release hands the lock to the longest-waiting caller, or unlocks if the
// queue is empty. Calling Release without holding the lock is a programming
// error and panics.
func (l *updateLock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.locked {
		panic("settings: Release of unheld update lock")
	}

	if len(l.queue) == 0 {
		l.locked = false
		return
	}

	// hand over directly, the lock stays held by the next waiter
	next := l.queue[0]
	l.queue = l.queue[1:]
	close(next)
}
