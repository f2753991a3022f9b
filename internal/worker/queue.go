package worker

import "sync"

// queue is a FIFO of requests that remembers every URL it accepted.
// pending counts requests that are queued, in flight or waiting for a retry;
// the queue closes itself when it drops to zero.
type queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []Request
	seen    map[string]struct{}
	pending int
	closed  bool
}

func newQueue() *queue {
	q := &queue{seen: make(map[string]struct{})}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// add enqueues r unless its URL was accepted before
func (q *queue) add(r Request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	if _, dup := q.seen[r.URL]; dup {
		return false
	}
	q.seen[r.URL] = struct{}{}
	q.items = append(q.items, r)
	q.pending++
	q.cond.Signal()
	return true
}

// requeue puts a request that is already pending back in line
func (q *queue) requeue(r Request) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.items = append(q.items, r)
	q.cond.Signal()
}

// next blocks until a request is available or the queue is closed
func (q *queue) next() (Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return Request{}, false
	}
	r := q.items[0]
	q.items = q.items[1:]
	return r, true
}

// done marks one pending request as finished
func (q *queue) done() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending--
	if q.pending <= 0 {
		q.closed = true
		q.cond.Broadcast()
	}
}

func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.items = nil
	q.cond.Broadcast()
}
