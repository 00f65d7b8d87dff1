// Package eventbus is an in-process, type-safe publish/subscribe bus. Delivery
// never blocks the publisher: a subscriber whose buffer is full misses the
// event and the drop is counted.
package eventbus

import (
	"sync"
	"sync/atomic"
)

const defaultBuffer = 16

// Bus fans events of type T out to every subscriber.
type Bus[T any] struct {
	mu      sync.RWMutex
	subs    []chan T
	closed  bool
	buffer  int
	dropped atomic.Uint64
}

// Option tunes a Bus.
type Option func(*busOptions)

type busOptions struct{ buffer int }

// WithBuffer sets the channel buffer of each subscription.
func WithBuffer(n int) Option {
	return func(o *busOptions) {
		if n >= 0 {
			o.buffer = n
		}
	}
}

// New creates a Bus.
func New[T any](opts ...Option) *Bus[T] {
	o := busOptions{buffer: defaultBuffer}
	for _, opt := range opts {
		opt(&o)
	}
	return &Bus[T]{buffer: o.buffer}
}

// Publish sends e to all subscribers without blocking.
func (b *Bus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribe registers a subscriber and returns its channel. Subscribing to a
// closed bus returns a closed channel.
func (b *Bus[T]) Subscribe() <-chan T {
	ch := make(chan T, b.buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Bus[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped on full buffers.
func (b *Bus[T]) Dropped() uint64 { return b.dropped.Load() }

// Close closes the bus and all subscriber channels.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
