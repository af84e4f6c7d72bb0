package platform

import (
	"context"
	"sync"
)

// rxQueue is the receive side shared by host ports: a bounded byte buffer
// plus a coalesced "readable" signal, matching what the rp2 UART driver
// raises from its RX interrupt.
type rxQueue struct {
	mu      sync.Mutex
	buf     []byte
	max     int
	dropped int
	rd      chan struct{}
}

func newRxQueue(max int) *rxQueue {
	if max <= 0 {
		max = 256
	}
	return &rxQueue{max: max, rd: make(chan struct{}, 1)}
}

// push appends p, discarding the newest bytes that do not fit (as a full
// hardware FIFO would).
func (q *rxQueue) push(p []byte) {
	q.mu.Lock()
	room := q.max - len(q.buf)
	if room < len(p) {
		if room < 0 {
			room = 0
		}
		q.dropped += len(p) - room
		p = p[:room]
	}
	q.buf = append(q.buf, p...)
	q.mu.Unlock()
	if len(p) == 0 {
		return
	}
	select {
	case q.rd <- struct{}{}:
	default:
	}
}

func (q *rxQueue) Buffered() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// Read is non-blocking; it returns 0 when nothing is buffered.
func (q *rxQueue) Read(p []byte) (int, error) {
	q.mu.Lock()
	n := copy(p, q.buf)
	q.buf = q.buf[:copy(q.buf, q.buf[n:])]
	q.mu.Unlock()
	return n, nil
}

func (q *rxQueue) Readable() <-chan struct{} { return q.rd }

// RecvSomeContext blocks until at least one byte is available or ctx ends.
// A cancelled ctx takes nothing off the queue.
func (q *rxQueue) RecvSomeContext(ctx context.Context, p []byte) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if n, _ := q.Read(p); n > 0 {
			return n, nil
		}
		select {
		case <-q.rd:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// Dropped returns the number of bytes lost to overflow.
func (q *rxQueue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
