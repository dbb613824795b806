package generation

import (
	"context"
	"sync"
)

type kind int

const (
	kindToken kind = iota
	kindError
	kindDone
)

type message struct {
	kind  kind
	token string
	err   error
}

// queue is an unbounded FIFO with a single consumer. push never blocks;
// after close, pushes are dropped and pop reports false.
type queue struct {
	mu     sync.Mutex
	items  []message
	closed bool
	ready  chan struct{}
}

func newQueue() *queue {
	return &queue{ready: make(chan struct{}, 1)}
}

func (q *queue) push(m message) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, m)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *queue) pop(ctx context.Context) (message, bool) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return message{}, false
		}
		if len(q.items) > 0 {
			m := q.items[0]
			q.items[0] = message{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return m, true
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-ctx.Done():
			return message{}, false
		}
	}
}

func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.mu.Unlock()

	// wake a consumer blocked in pop
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *queue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
