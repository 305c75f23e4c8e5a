//go:build linux

package reactor

import (
	"time"

	"golang.org/x/sys/unix"
)

// epollPoller is the Linux poller implementation, grounded on the teacher's
// FastPoller (epoll_create1/epoll_ctl/epoll_wait), simplified to the
// reactor's single-goroutine access pattern: no internal locking, since
// add/remove/wait are only ever called from the dispatch loop.
type epollPoller struct {
	epfd     int
	watched  map[int]struct{}
	eventBuf []unix.EpollEvent
}

func newPlatformPoller() (poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{
		epfd:     epfd,
		watched:  make(map[int]struct{}),
		eventBuf: make([]unix.EpollEvent, 64),
	}, nil
}

func (p *epollPoller) add(fd int) error {
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return err
	}
	p.watched[fd] = struct{}{}
	return nil
}

func (p *epollPoller) remove(fd int) error {
	if _, ok := p.watched[fd]; !ok {
		return nil
	}
	delete(p.watched, fd)
	// EPOLL_CTL_DEL fails if the fd was already closed by the caller; the
	// reactor only removes fds it still owns, but a closed fd is harmless
	// to ignore here since the kernel already dropped the registration.
	err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	if err == unix.EBADF || err == unix.ENOENT {
		return nil
	}
	return err
}

func (p *epollPoller) wait(dst []int, timeout time.Duration) ([]int, error) {
	ms := int(timeout / time.Millisecond)
	if timeout > 0 && ms == 0 {
		ms = 1
	}
	if timeout <= 0 {
		ms = 0
	}
	n, err := unix.EpollWait(p.epfd, p.eventBuf, ms)
	if err != nil {
		if err == unix.EINTR {
			return dst, nil
		}
		return dst, err
	}
	for i := 0; i < n; i++ {
		dst = append(dst, int(p.eventBuf[i].Fd))
	}
	return dst, nil
}

func (p *epollPoller) close() error {
	return unix.Close(p.epfd)
}
