// Package queue provides a channel of parameter events between a single
// producer and a single consumer that never blocks the consumer.
//
// Ring is a fixed-capacity lock-free ring. Every event is packed into a
// single 64-bit word, so slots are read and written atomically and neither
// side allocates. When producer finds the ring full, it evicts the oldest
// event; consumer therefore never has to catch up with a deep backlog.
package queue

import (
	"math"
	"sync/atomic"

	"github.com/dudk/oscfx"
)

// DefaultCapacity of the ring.
const DefaultCapacity = 64

// Ring is a single-producer/single-consumer queue of events.
type Ring struct {
	slots []atomic.Uint64
	mask  uint64

	// head is advanced by consumer on receive and by producer on eviction.
	head atomic.Uint64
	_    [56]byte
	// tail is advanced only by producer.
	tail    atomic.Uint64
	_       [56]byte
	closed  atomic.Bool
	dropped atomic.Uint64
}

// New returns a ring with capacity rounded up to power of two.
func New(capacity int) *Ring {
	size := 1
	for size < capacity {
		size <<= 1
	}
	return &Ring{
		slots: make([]atomic.Uint64, size),
		mask:  uint64(size - 1),
	}
}

// Send puts event into the ring. If ring is full, the oldest event is
// dropped. Must be called from producer goroutine only.
func (r *Ring) Send(e oscfx.Event) error {
	if r.closed.Load() {
		return oscfx.ErrChannelClosed
	}
	t := r.tail.Load()
	for {
		h := r.head.Load()
		if t-h < uint64(len(r.slots)) {
			break
		}
		// consumer might receive the oldest event concurrently, in that
		// case there is free slot now.
		if r.head.CompareAndSwap(h, h+1) {
			r.dropped.Add(1)
			break
		}
	}
	r.slots[t&r.mask].Store(pack(e))
	r.tail.Store(t + 1)
	return nil
}

// TryReceive returns the oldest event if available. It never blocks and
// never allocates. Must be called from consumer goroutine only.
func (r *Ring) TryReceive() (oscfx.Event, bool) {
	for {
		h := r.head.Load()
		if h == r.tail.Load() {
			return oscfx.Event{}, false
		}
		v := r.slots[h&r.mask].Load()
		// fails only if producer evicted this event meanwhile.
		if r.head.CompareAndSwap(h, h+1) {
			return unpack(v), true
		}
	}
}

// Close closes the ring from consumer side. Consequent Send calls return
// oscfx.ErrChannelClosed. Events still in the ring can be received.
func (r *Ring) Close() {
	r.closed.Store(true)
}

// Closed returns true if ring was closed.
func (r *Ring) Closed() bool {
	return r.closed.Load()
}

// Len returns number of pending events.
func (r *Ring) Len() int {
	h := r.head.Load()
	return int(r.tail.Load() - h)
}

// Cap returns capacity of the ring.
func (r *Ring) Cap() int {
	return len(r.slots)
}

// Dropped returns number of events evicted on overflow.
func (r *Ring) Dropped() uint64 {
	return r.dropped.Load()
}

// pack event as target | gesture<<8 | value bits<<32.
func pack(e oscfx.Event) uint64 {
	return uint64(e.Target) | uint64(e.Gesture)<<8 | uint64(math.Float32bits(e.Value))<<32
}

func unpack(v uint64) oscfx.Event {
	return oscfx.Event{
		Target:  oscfx.Target(v & 0xff),
		Gesture: oscfx.Gesture(v >> 8 & 0xff),
		Value:   math.Float32frombits(uint32(v >> 32)),
	}
}
