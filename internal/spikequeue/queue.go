// Package spikequeue provides the bounded buffer decoupling radio intake
// from network processing on the receiving node. It is the only structure
// shared between the two activities; the discipline is single writer,
// single reader.
package spikequeue

import (
	"sync/atomic"
	"time"

	"github.com/MarvelMathesh/AgriSNN/internal/models"
)

// Queue is a bounded FIFO of spike events. When full, Push evicts the
// oldest event rather than blocking the intake activity.
type Queue struct {
	ch      chan models.SpikeEvent
	dropped atomic.Uint64
}

// New creates a queue holding at most capacity events.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan models.SpikeEvent, capacity)}
}

// Push enqueues an event, evicting the oldest entry on overflow. It never
// blocks. Returns true when an eviction happened.
func (q *Queue) Push(ev models.SpikeEvent) bool {
	evicted := false
	for {
		select {
		case q.ch <- ev:
			return evicted
		default:
		}
		select {
		case <-q.ch:
			q.dropped.Add(1)
			evicted = true
		default:
		}
	}
}

// Pop waits up to timeout for the next event. ok is false on timeout.
func (q *Queue) Pop(timeout time.Duration) (models.SpikeEvent, bool) {
	select {
	case ev := <-q.ch:
		return ev, true
	case <-time.After(timeout):
		return models.SpikeEvent{}, false
	}
}

// TryPop returns the next event without waiting.
func (q *Queue) TryPop() (models.SpikeEvent, bool) {
	select {
	case ev := <-q.ch:
		return ev, true
	default:
		return models.SpikeEvent{}, false
	}
}

// Len is the number of buffered events.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Dropped is the total number of evicted events.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
