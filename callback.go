package reactor

// Callback is a one-shot timer wrapping a user function, returned so its
// caller can await the function's result via the embedded Completion.
// Grounded directly on the Python ReactorCallback: register a timer whose
// invocation unregisters itself, runs the user function, and completes.
type Callback struct {
	completion *Completion[any]
}

// Completion returns the completion that resolves once the wrapped
// callback has run.
func (c *Callback) Completion() *Completion[any] {
	return c.completion
}

// RegisterCallback schedules fn to run once, at or after waketime (Now
// runs it on the very next dispatch pass), and returns a Callback whose
// Completion carries fn's return value. fn runs inline on whichever task
// is currently driving the dispatch loop; it is never run on a separate
// goroutine.
func (r *Reactor) RegisterCallback(fn func(now Timestamp) any, waketime Timestamp) *Callback {
	cb := &Callback{completion: NewCompletion[any](r)}
	var timer *Timer
	timer = r.RegisterTimer(func(now Timestamp) Timestamp {
		r.UnregisterTimer(timer)
		cb.completion.Complete(fn(now))
		return Never
	}, waketime, "callback")
	return cb
}
