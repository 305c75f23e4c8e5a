package reactor

import "time"

// poller is the readiness-poller abstraction (component F): it watches a set
// of file descriptors for read-readiness and reports which became ready
// within a bounded wait. All three concrete implementations (epoll, kqueue,
// poll(2)) are level-triggered from the reactor's point of view: a
// descriptor that is still readable when its callback returns is reported
// ready again on the next wait call.
//
// A poller is only ever driven from the reactor goroutine, so it needs no
// internal locking; the self-pipe is the one fd whose writer may run on a
// foreign thread, and writing to a pipe is safe without coordination with
// the reader.
type poller interface {
	// add starts watching fd for read-readiness.
	add(fd int) error
	// remove stops watching fd. It is a no-op if fd is not watched.
	remove(fd int) error
	// wait blocks up to timeout for at least one watched fd to become
	// ready, appending ready fds to dst and returning the extended slice.
	// A timeout <= 0 polls without blocking.
	wait(dst []int, timeout time.Duration) ([]int, error)
	// close releases the poller's OS resources.
	close() error
}

// newPoller constructs the platform-appropriate poller implementation.
func newPoller() (poller, error) {
	return newPlatformPoller()
}
