//go:build darwin

package reactor

import (
	"time"

	"golang.org/x/sys/unix"
)

// kqueuePoller is the Darwin poller implementation, grounded on the
// teacher's kqueue FastPoller, simplified for single-goroutine access: no
// EV_CLEAR flag is ever set, so kqueue reports readiness level-triggered,
// matching epollPoller's semantics.
type kqueuePoller struct {
	kq       int
	eventBuf []unix.Kevent_t
}

func newPlatformPoller() (poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(kq)
	return &kqueuePoller{
		kq:       kq,
		eventBuf: make([]unix.Kevent_t, 64),
	}, nil
}

func (p *kqueuePoller) add(fd int) error {
	kev := unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_READ,
		Flags:  unix.EV_ADD | unix.EV_ENABLE,
	}
	_, err := unix.Kevent(p.kq, []unix.Kevent_t{kev}, nil, nil)
	return err
}

func (p *kqueuePoller) remove(fd int) error {
	kev := unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_READ,
		Flags:  unix.EV_DELETE,
	}
	_, err := unix.Kevent(p.kq, []unix.Kevent_t{kev}, nil, nil)
	if err == unix.ENOENT || err == unix.EBADF {
		return nil
	}
	return err
}

func (p *kqueuePoller) wait(dst []int, timeout time.Duration) ([]int, error) {
	var ts unix.Timespec
	tsp := &ts
	if timeout > 0 {
		ts.Sec = int64(timeout / time.Second)
		ts.Nsec = int64(timeout % time.Second)
	}
	n, err := unix.Kevent(p.kq, nil, p.eventBuf, tsp)
	if err != nil {
		if err == unix.EINTR {
			return dst, nil
		}
		return dst, err
	}
	for i := 0; i < n; i++ {
		dst = append(dst, int(p.eventBuf[i].Ident))
	}
	return dst, nil
}

func (p *kqueuePoller) close() error {
	return unix.Close(p.kq)
}
