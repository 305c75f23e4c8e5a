//go:build !linux && !darwin

package reactor

import (
	"time"

	"golang.org/x/sys/unix"
)

// pollPoller is the third poller backend (component F's fallback
// mechanism), built on poll(2) and used on every platform other than Linux
// and Darwin (e.g. the BSDs, Solaris, AIX). It keeps its own fd set since poll(2) takes the full
// pollfd slice on every call rather than maintaining kernel-side state.
type pollPoller struct {
	fds []unix.PollFd
}

func newPlatformPoller() (poller, error) {
	return &pollPoller{}, nil
}

func (p *pollPoller) add(fd int) error {
	for _, pfd := range p.fds {
		if int(pfd.Fd) == fd {
			return nil
		}
	}
	p.fds = append(p.fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
	return nil
}

func (p *pollPoller) remove(fd int) error {
	for i, pfd := range p.fds {
		if int(pfd.Fd) == fd {
			p.fds = append(p.fds[:i], p.fds[i+1:]...)
			return nil
		}
	}
	return nil
}

func (p *pollPoller) wait(dst []int, timeout time.Duration) ([]int, error) {
	ms := int(timeout / time.Millisecond)
	if timeout > 0 && ms == 0 {
		ms = 1
	}
	if timeout <= 0 {
		ms = 0
	}
	n, err := unix.Poll(p.fds, ms)
	if err != nil {
		if err == unix.EINTR {
			return dst, nil
		}
		return dst, err
	}
	if n == 0 {
		return dst, nil
	}
	for _, pfd := range p.fds {
		if pfd.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			dst = append(dst, int(pfd.Fd))
		}
	}
	return dst, nil
}

func (p *pollPoller) close() error {
	p.fds = nil
	return nil
}
