package reactor

// Mutex is a cooperative, strictly FIFO lock (component I): contenders
// queue up in arrival order and are released one at a time. It is only
// safe to use from tasks running on the reactor's own dispatch loop, never
// from a foreign thread.
type Mutex struct {
	r           *Reactor
	locked      bool
	nextPending bool
	queue       []*task
}

// NewMutex returns a Mutex, optionally already held (matching the Python
// constructor's is_locked argument: a mutex can start pre-locked so the
// first Acquire caller is forced to queue even before anyone has called
// Release).
func NewMutex(r *Reactor, locked bool) *Mutex {
	return &Mutex{r: r, locked: locked}
}

// Test reports whether the mutex is currently held.
func (m *Mutex) Test() bool {
	return m.locked
}

// Acquire blocks the calling task until the mutex is free, then takes it.
func (m *Mutex) Acquire() {
	if !m.locked {
		m.locked = true
		return
	}
	g := m.r.current
	m.queue = append(m.queue, g)
	for {
		m.r.Pause(Never)
		// A wake can arrive for reasons unrelated to this mutex (another
		// timer firing while this task happens to be parked); only the
		// head of the queue being released for this specific waiter ends
		// the loop. Inherited from the original design: if the head
		// waiter is abandoned and never resumes, nextPending stays set
		// and the mutex wedges rather than skipping to the next entry.
		if m.nextPending && len(m.queue) > 0 && m.queue[0] == g {
			m.nextPending = false
			m.queue = m.queue[1:]
			return
		}
	}
}

// Release gives up the mutex. If other tasks are queued, the head of the
// queue is woken on the next dispatch pass; the mutex otherwise stays
// locked until that waiter's Acquire call actually returns. Releasing a
// mutex that is not held is a caller bug: it fails fast and leaves the
// mutex's state untouched.
func (m *Mutex) Release() error {
	if !m.locked {
		logMutexMisuse(m.r.opts.logger, ErrMutexNotLocked)
		return ErrMutexNotLocked
	}
	if len(m.queue) == 0 {
		m.locked = false
		return nil
	}
	m.nextPending = true
	head := m.queue[0]
	if head.wakeTimer != nil {
		m.r.UpdateTimer(head.wakeTimer, Now)
	}
	return nil
}
