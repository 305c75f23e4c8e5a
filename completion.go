package reactor

// Completion is a one-shot result cell (component H), used to hand a value
// from whichever code produces it to whichever code is waiting for it,
// without the waiter busy-polling. At most one task waits on a Completion
// at a time: Wait restores the prior typed result on a successful second
// call, but supporting concurrent waiters is explicitly out of scope.
type Completion[T any] struct {
	r       *Reactor
	result  T
	has     bool
	waiting *task
}

// NewCompletion creates an empty Completion bound to r.
func NewCompletion[T any](r *Reactor) *Completion[T] {
	return &Completion[T]{r: r}
}

// Test reports whether Complete has already been called.
func (c *Completion[T]) Test() bool {
	return c.has
}

// Complete stores result, overwriting any previous value: the most recent
// call wins if Complete is somehow invoked more than once. If a task is
// currently blocked in Wait, its pending wake-hook timer (set up by the
// Pause call inside Wait) is retargeted to fire immediately.
func (c *Completion[T]) Complete(result T) {
	c.result = result
	c.has = true
	if c.waiting != nil && c.waiting.wakeTimer != nil {
		c.r.UpdateTimer(c.waiting.wakeTimer, Now)
	}
}

// Wait blocks the calling task until Complete is called or waketime passes,
// whichever comes first, returning the completed result or timeoutResult on
// expiry. A waketime of Never waits indefinitely.
func (c *Completion[T]) Wait(waketime Timestamp, timeoutResult T) T {
	if !c.has {
		c.waiting = c.r.current
		c.r.Pause(waketime)
		c.waiting = nil
		if !c.has {
			return timeoutResult
		}
	}
	return c.result
}
