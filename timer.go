package reactor

import "container/heap"

// TimerCallback is invoked when its Timer's wake time has passed. Its return
// value becomes the Timer's next wake time; returning Never means "do not
// fire again unless re-armed".
type TimerCallback func(now Timestamp) Timestamp

// Timer is a callback with a wake time (component B). A Timer is either
// registered with exactly one Reactor or not; when not registered its
// WakeTime has no meaning. Timer is not safe for concurrent use from outside
// the reactor goroutine.
type Timer struct {
	callback TimerCallback
	wakeTime Timestamp
	name     string

	// seq is the insertion order, used to break ties between timers that
	// expire in the same pass: lower seq fires first.
	seq int
	// index is the position in the reactor's timer heap, maintained by
	// container/heap for O(log n) UpdateTimer/UnregisterTimer.
	index int
}

// Name returns the diagnostic name the timer was registered with, if any.
func (t *Timer) Name() string { return t.name }

// WakeTime returns the timer's current wake time.
func (t *Timer) WakeTime() Timestamp { return t.wakeTime }

// timerHeap is a min-heap over (wakeTime, seq), giving insertion-order
// tie-breaking among timers that expire in the same pass (testable property
// 2 in the spec).
type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].wakeTime != h[j].wakeTime {
		return h[i].wakeTime < h[j].wakeTime
	}
	return h[i].seq < h[j].seq
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// fixDown restores heap order after t.wakeTime changes.
func (h *timerHeap) fixDown(t *Timer) {
	heap.Fix(h, t.index)
}
