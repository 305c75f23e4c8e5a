package reactor

import "sync"

// asyncQueue is the MPSC queue (component J) backing RegisterAsyncCallback
// and AsyncComplete: the two reactor operations that inject work from a
// foreign thread. Foreign callers push a thunk and signal the wake pipe;
// the reactor goroutine drains and runs every pending thunk inline once it
// observes the pipe readable.
type asyncQueue struct {
	mu       sync.Mutex
	items    []func()
	capacity int
	logger   *Logger
}

func newAsyncQueue(capacity int, logger *Logger) *asyncQueue {
	return &asyncQueue{capacity: capacity, logger: logger}
}

func (q *asyncQueue) push(fn func()) {
	q.mu.Lock()
	q.items = append(q.items, fn)
	depth := len(q.items)
	q.mu.Unlock()
	if depth > q.capacity {
		logAsyncQueueOverload(q.logger, depth)
	}
}

// drain atomically removes and returns every pending thunk, in FIFO order.
func (q *asyncQueue) drain() []func() {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()
	return items
}

// RegisterAsyncCallback is safe to call from any goroutine, not just the
// reactor's own. The next time the reactor observes its wake pipe ready it
// registers fn as a one-shot callback timer; fn then runs inline on the
// dispatch loop, at or after waketime, on a later timer pass. Unlike
// RegisterCallback there is no synchronously-returned Completion,
// since fn has not yet run (or even been scheduled as a timer) at the time
// this call returns.
func (r *Reactor) RegisterAsyncCallback(fn func(now Timestamp) any, waketime Timestamp) error {
	if r.asyncQ == nil {
		return ErrAsyncQueueClosed
	}
	r.asyncQ.push(func() {
		r.RegisterCallback(fn, waketime)
	})
	r.wake.wake()
	return nil
}

// AsyncComplete is safe to call from any goroutine. It completes an
// existing Completion (typically one created earlier on the reactor's own
// goroutine and handed to the foreign thread) the next time the reactor
// drains its wake pipe.
func AsyncComplete[T any](r *Reactor, c *Completion[T], result T) error {
	if r.asyncQ == nil {
		return ErrAsyncQueueClosed
	}
	r.asyncQ.push(func() {
		c.Complete(result)
	})
	r.wake.wake()
	return nil
}
