package reactor

import (
	"container/heap"
	"fmt"
	"sync/atomic"
	"time"
)

// Reactor is a single-threaded, cooperative event dispatcher: one monotonic
// clock, one set of registered timers and file descriptors, and one
// dispatch loop, all driven from whichever goroutine is currently running
// it. Every exported method is safe to call only from that goroutine
// (directly, or from a task it has transferred control to), with exactly
// three exceptions: RegisterAsyncCallback and AsyncComplete, which foreign
// threads use to inject work, and End, which may request shutdown from any
// goroutine.
//
// Grounded on the teacher's Loop (go-eventloop), generalized from a
// JavaScript-style microtask/macrotask scheduler to Klipper's timer/fd/task
// reactor model.
type Reactor struct {
	opts *reactorOptions

	clockFn clock

	timers   timerHeap
	timerSeq int
	// forceImmediate is also set by End, which (unlike other reactor state)
	// may be called from a foreign goroutine.
	forceImmediate atomic.Bool

	fds map[int]FdCallback

	poller poller
	wake   *wakePipe
	asyncQ *asyncQueue

	current      *task
	dispatcher   *task
	dispatchPool []*task
	root         *task

	// running and ending are read/written from foreign goroutines (test
	// helpers polling for startup, End callers requesting shutdown), unlike
	// every other field here, so they need real synchronization; the
	// teacher's loop.go reaches for the same atomic.Bool pattern for its
	// own cross-goroutine lifecycle flags.
	running atomic.Bool
	ending  atomic.Bool
}

// New constructs a Reactor, creating its readiness poller and self-pipe.
func New(opts ...Option) (*Reactor, error) {
	o, err := resolveReactorOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("reactor: resolve options: %w", err)
	}
	p, err := newPoller()
	if err != nil {
		return nil, fmt.Errorf("reactor: create poller: %w", err)
	}
	wp, err := newWakePipe()
	if err != nil {
		_ = p.close()
		return nil, fmt.Errorf("reactor: create wake pipe: %w", err)
	}
	if err := p.add(wp.readFd); err != nil {
		_ = p.close()
		wp.close()
		return nil, fmt.Errorf("reactor: watch wake pipe: %w", err)
	}
	r := &Reactor{
		opts:         o,
		clockFn:      monotonicClock(),
		fds:          make(map[int]FdCallback),
		poller:       p,
		wake:         wp,
		asyncQ:       newAsyncQueue(o.asyncQueueCapacity, o.logger),
		dispatchPool: make([]*task, 0, o.initialTaskPoolSize),
	}
	for i := 0; i < o.initialTaskPoolSize; i++ {
		r.dispatchPool = append(r.dispatchPool, r.spawnDispatchTask())
	}
	return r, nil
}

// Now returns the reactor's current monotonic time.
func (r *Reactor) Now() Timestamp {
	return r.clockFn()
}

// Logger returns the reactor's ambient structured logger (see WithLogger),
// for collaborators that want to log through the same sink the reactor
// itself uses for diagnostics.
func (r *Reactor) Logger() *Logger {
	return r.opts.logger
}

// RegisterTimer arms callback to run at or after waketime. name is used
// only for diagnostics (logging, panic attribution).
func (r *Reactor) RegisterTimer(callback TimerCallback, waketime Timestamp, name string) *Timer {
	return r.registerTimerInternal(waketime, callback, name)
}

func (r *Reactor) registerTimerInternal(waketime Timestamp, callback TimerCallback, name string) *Timer {
	r.timerSeq++
	t := &Timer{callback: callback, wakeTime: waketime, name: name, seq: r.timerSeq}
	heap.Push(&r.timers, t)
	return t
}

// UpdateTimer reschedules an already-registered timer.
func (r *Reactor) UpdateTimer(t *Timer, waketime Timestamp) {
	t.wakeTime = waketime
	if t.index >= 0 {
		r.timers.fixDown(t)
	}
}

// UnregisterTimer removes a timer. It is a no-op if the timer already fired
// without being rearmed (Never) and was dropped from the heap.
func (r *Reactor) UnregisterTimer(t *Timer) {
	r.unregisterTimerInternal(t)
}

func (r *Reactor) unregisterTimerInternal(t *Timer) {
	if t.index < 0 || t.index >= r.timers.Len() || r.timers[t.index] != t {
		return
	}
	heap.Remove(&r.timers, t.index)
}

func (r *Reactor) forceNextTimer() {
	r.forceImmediate.Store(true)
}

// RegisterFd starts watching fd for read-readiness, invoking callback on
// every dispatch pass where it is ready. Registering an fd twice fails
// fast: it very likely indicates two unrelated pieces of code each
// believing they own the descriptor.
func (r *Reactor) RegisterFd(fd int, callback FdCallback) (FdHandle, error) {
	if _, exists := r.fds[fd]; exists {
		logFDRejected(r.opts.logger, fd, ErrFDAlreadyRegistered)
		return FdHandle{}, ErrFDAlreadyRegistered
	}
	if err := r.poller.add(fd); err != nil {
		logFDRejected(r.opts.logger, fd, err)
		return FdHandle{}, err
	}
	r.fds[fd] = callback
	return FdHandle{fd: fd}, nil
}

// UnregisterFd stops watching a previously registered descriptor.
func (r *Reactor) UnregisterFd(h FdHandle) error {
	if _, exists := r.fds[h.fd]; !exists {
		return ErrFDNotRegistered
	}
	delete(r.fds, h.fd)
	return r.poller.remove(h.fd)
}

// Completion returns a new, empty Completion bound to this reactor.
func (r *Reactor) Completion() *Completion[any] {
	return NewCompletion[any](r)
}

// Mutex returns a new cooperative Mutex, initially held if locked is true.
func (r *Reactor) Mutex(locked bool) *Mutex {
	return NewMutex(r, locked)
}

// Run starts the dispatch loop and blocks until End is called. It is an
// error to call Run while already running.
func (r *Reactor) Run() error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrReactorAlreadyRunning
	}
	r.ending.Store(false)
	root := &task{name: "root", resume: make(chan Timestamp)}
	r.root = root
	r.current = root
	r.dispatcher = root
	r.runDispatchLoop(root, r.clockFn())
	r.running.Store(false)
	return nil
}

// End requests the dispatch loop stop after completing the current pass.
// Unlike most Reactor methods, it is safe to call from any goroutine.
func (r *Reactor) End() {
	r.ending.Store(true)
	r.forceNextTimer()
	if r.wake != nil {
		r.wake.wake()
	}
}

// Close releases the reactor's OS resources (poller, self-pipe). It must
// only be called after Run has returned.
func (r *Reactor) Close() error {
	r.asyncQ = nil
	r.wake.close()
	return r.poller.close()
}

// runDispatchLoop is the dispatch loop proper, grounded directly on
// reactor.py's SelectReactor._dispatch_loop/_check_timers: every pass first
// runs whatever timers are already due, evaluated against the stale,
// pre-poll time (the eventtime carried over from the end of the previous
// pass), then waits on the poller, then runs every ready fd callback using
// the fresh, post-poll time. Timers never see a time fresher than the one
// in effect when the pass started; fds never see anything else. After
// each individual callback, self must re-check that it is still the
// registered dispatcher: a callback that itself called Pause may have
// handed the role to a freshly spawned task, in which case this call
// parks itself (via retireSelf) until it is handed the role back.
func (r *Reactor) runDispatchLoop(self *task, now Timestamp) {
	r.dispatcher = self
	ready := make([]int, 0, 64)
	for !r.ending.Load() {
		timeout, stale := r.fireDueTimers(self, now)
		if stale {
			now = r.clockFn()
			continue
		}

		var err error
		ready, err = r.poller.wait(ready[:0], timeout)
		if err != nil {
			logPollRetry(r.opts.logger, err)
			now = r.clockFn()
			continue
		}
		now = r.clockFn()

		for _, fd := range ready {
			if fd == r.wake.readFd {
				r.wake.drain()
				r.drainAsync()
			} else if cb, ok := r.fds[fd]; ok {
				r.invokeFd(self, cb, now)
			}
			now = r.clockFn()
			if self != r.dispatcher {
				r.retireSelf(self)
				now = r.clockFn()
				break
			}
		}
	}
	r.dispatcher = nil
	if self != r.root && r.root != nil {
		// The dispatcher role has moved off the task Run started on, which
		// is parked waiting on its resume channel; hand control back to it
		// so it can leave its own loop and let Run return.
		r.dispatcher = r.root
		r.current = r.root
		r.root.resume <- Never
	}
}

// fireDueTimers runs every timer whose wake time is at or before now, the
// pre-poll time the current pass started with, mirroring _check_timers:
// Klipper evaluates every due timer against the single eventtime captured
// before the pass's poll call, not a fresh clock read per timer. It
// returns the bounded poll timeout to use for the rest of this pass, and
// whether self stopped being the active dispatcher (a fired timer called
// Pause and handed the role to a freshly spawned task). In that case it has
// already retired self via retireSelf and returns only once self has the
// role back; the caller then starts a new pass instead of polling.
func (r *Reactor) fireDueTimers(self *task, now Timestamp) (time.Duration, bool) {
	for r.timers.Len() > 0 && r.timers[0].wakeTime <= now {
		t := heap.Pop(&r.timers).(*Timer)
		next := r.invokeTimer(t, now)
		if next != Never {
			t.wakeTime = next
			heap.Push(&r.timers, t)
		}
		if self != r.dispatcher {
			r.retireSelf(self)
			return 0, true
		}
	}
	return r.computeTimeout(now), false
}

func (r *Reactor) invokeFd(self *task, cb FdCallback, now Timestamp) {
	defer func() {
		if v := recover(); v != nil {
			logTaskPanic(r.opts.logger, &TaskPanicError{Value: v, Task: self.name})
		}
	}()
	cb(now)
}

func (r *Reactor) invokeTimer(t *Timer, now Timestamp) (next Timestamp) {
	next = Never
	defer func() {
		if v := recover(); v != nil {
			logTaskPanic(r.opts.logger, &TaskPanicError{Value: v, Task: t.name})
			next = Never
		}
	}()
	next = t.callback(now)
	return
}

func (r *Reactor) drainAsync() {
	if r.asyncQ == nil {
		return
	}
	for _, fn := range r.asyncQ.drain() {
		r.invokeAsync(fn)
	}
}

func (r *Reactor) invokeAsync(fn func()) {
	defer func() {
		if v := recover(); v != nil {
			logTaskPanic(r.opts.logger, &TaskPanicError{Value: v, Task: "async"})
		}
	}()
	fn()
}

// computeTimeout bounds the poll wait to the nearest timer, clamped to the
// configured [min, max] range. This is the Go rendering of the Python
// _check_timers timeout half (the timer-firing half lives in
// fireDueTimers, which calls this once every due timer has already run):
// min(1., max(.001, next_timer - eventtime)).
func (r *Reactor) computeTimeout(now Timestamp) time.Duration {
	if r.forceImmediate.CompareAndSwap(true, false) {
		return 0
	}
	if r.timers.Len() == 0 {
		return r.opts.maxPollTimeout
	}
	next := r.timers[0].wakeTime
	if next == Never {
		return r.opts.maxPollTimeout
	}
	if now < next {
		delay := time.Duration(float64(next-now) * float64(time.Second))
		return clamp(delay, r.opts.minPollTimeout, r.opts.maxPollTimeout)
	}
	return 0
}

// sysPause is the fallback used when Pause is called with no dispatch loop
// running at all: a plain sleep on the calling OS thread.
func (r *Reactor) sysPause(waketime Timestamp) Timestamp {
	if waketime == Never {
		select {}
	}
	now := r.clockFn()
	delaySeconds := float64(waketime) - float64(now)
	if delaySeconds > 0 {
		time.Sleep(time.Duration(delaySeconds * float64(time.Second)))
	}
	return r.clockFn()
}
