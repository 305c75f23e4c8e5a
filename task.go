package reactor

// task is a cooperative coroutine (component D): a goroutine that can be
// symmetrically switched into and out of, standing in for the Python
// implementation's greenlets. The reactor drives at most one task's code at
// any instant; transfer is the sole primitive for handing control between
// them, and it is never called concurrently, so task bookkeeping (resume
// channels, wake-hook timers, the retired-task pool) needs no locking.
//
// The reactor only ever spawns tasks to keep the dispatch loop itself
// running recursively (see Pause below); ordinary registered callbacks run
// inline on whichever task currently owns the dispatch loop.
type task struct {
	name string
	// resume is where another task delivers control (and a timestamp) to
	// this one. It is used both to start a freshly spawned task and, later,
	// to resume it wherever it last blocked.
	resume chan Timestamp
	// wakeTimer is set while this task is the retired side of a nested
	// pause: it is the timer that will hand control back.
	wakeTimer *Timer
}

// transfer hands control (and a timestamp) to `to`, recording the switch in
// r.current, then blocks until something transfers control back to the
// calling task. It is the direct analogue of greenlet.switch.
func (r *Reactor) transfer(to *task, now Timestamp) Timestamp {
	from := r.current
	r.current = to
	to.resume <- now
	return <-from.resume
}

// spawnDispatchTask creates a fresh dispatch task, with its goroutine
// already running and parked on t.resume, ready to run runDispatchLoop the
// moment something transfers it the current time. Used both to grow the pool on
// demand and, from New, to preallocate it.
func (r *Reactor) spawnDispatchTask() *task {
	t := &task{name: "dispatch", resume: make(chan Timestamp)}
	go func() {
		now := <-t.resume
		r.runDispatchLoop(t, now)
	}()
	return t
}

// acquireDispatchTask returns a task ready to run the dispatch loop: either
// a previously retired or preallocated one (resuming exactly where it
// parked) or, if the pool is empty, a freshly spawned goroutine.
func (r *Reactor) acquireDispatchTask() *task {
	if n := len(r.dispatchPool); n > 0 {
		t := r.dispatchPool[n-1]
		r.dispatchPool = r.dispatchPool[:n-1]
		return t
	}
	return r.spawnDispatchTask()
}

// retireSelf parks the calling task (the stale side of a nested pause),
// making it available for reuse, and blocks until it is switched back into.
// On return, self has reclaimed the dispatcher role: callers resume their
// own dispatch loop exactly where it left off.
func (r *Reactor) retireSelf(self *task) {
	r.dispatchPool = append(r.dispatchPool, self)
	if self.wakeTimer != nil {
		r.unregisterTimerInternal(self.wakeTimer)
		self.wakeTimer = nil
	}
	cur := r.dispatcher
	r.transfer(cur, Never)
	r.dispatcher = self
}

// Pause suspends the calling context until waketime, or until some other
// code arranges an earlier wakeup, returning the time at which it resumed.
// Called from the task currently driving the dispatch loop, it recursively
// spins up a fresh dispatch task to keep the reactor responsive while this
// one is parked; called from any other context, it simply asks whichever
// task is currently dispatching to wake it at waketime. With no dispatcher
// running at all (Run has not been called), it falls back to a real sleep
// on the calling OS thread.
func (r *Reactor) Pause(waketime Timestamp) Timestamp {
	if r.dispatcher == nil {
		return r.sysPause(waketime)
	}
	self := r.current
	if self != r.dispatcher {
		return r.transfer(r.dispatcher, waketime)
	}

	next := r.acquireDispatchTask()
	self.wakeTimer = r.registerTimerInternal(waketime, func(now Timestamp) Timestamp {
		return r.transfer(self, now)
	}, "pause-wakeup")
	r.forceNextTimer()
	return r.transfer(next, r.clockFn())
}
