// Package ringchan provides a bounded channel with overwrite-oldest
// semantics. Producers on BLE callback paths must never block: if a consumer
// falls behind, stale elements are discarded in favor of fresh ones, which is
// the right trade-off for notification streams where only recent data
// matters.
package ringchan

import "sync"

// RingChannel wraps a buffered channel and guarantees that Send never blocks
// indefinitely: when the buffer is full the oldest element is dropped.
//
// Readers use C() and range over it like a normal channel until Close.
type RingChannel[T any] struct {
	ch        chan T
	closeOnce sync.Once
}

// New creates a RingChannel with the given capacity.
func New[T any](capacity int) *RingChannel[T] {
	if capacity <= 0 {
		panic("ringchan: capacity must be > 0")
	}
	return &RingChannel[T]{ch: make(chan T, capacity)}
}

// C returns the underlying receive-only channel.
func (rc *RingChannel[T]) C() <-chan T {
	return rc.ch
}

// Send inserts an item, discarding the oldest element if the buffer is full.
// It never blocks indefinitely.
func (rc *RingChannel[T]) Send(v T) {
	select {
	case rc.ch <- v:
	default:
		select {
		case <-rc.ch: // drop oldest
		default:
		}
		select {
		case rc.ch <- v:
		default:
		}
	}
}

// TrySend attempts to insert without blocking or dropping.
// Returns false if the buffer is full.
func (rc *RingChannel[T]) TrySend(v T) bool {
	select {
	case rc.ch <- v:
		return true
	default:
		return false
	}
}

// Len returns the number of buffered elements.
func (rc *RingChannel[T]) Len() int {
	return len(rc.ch)
}

// Close closes the channel. Safe to call more than once; Send must not be
// called after Close.
func (rc *RingChannel[T]) Close() {
	rc.closeOnce.Do(func() { close(rc.ch) })
}
