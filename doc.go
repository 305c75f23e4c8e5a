// Package reactor implements a single-threaded cooperative event reactor: a
// scheduling runtime that multiplexes timer callbacks, file-descriptor
// readiness callbacks, and cooperative user tasks onto one goroutine.
//
// Exactly one user callback runs at a time. Tasks suspend and resume only at
// explicit points (Pause, Completion.Wait, Mutex.Acquire under contention);
// there is no preemption and no multi-threaded task execution. Foreign
// goroutines may still interact with a running Reactor through
// RegisterAsyncCallback and AsyncComplete, and may stop it with End; these
// three are the only operations safe to call off the reactor's own goroutine.
package reactor
