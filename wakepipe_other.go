//go:build !linux

package reactor

import "golang.org/x/sys/unix"

// createPipe returns {readFd, writeFd}, both non-blocking and close-on-exec.
// Platforms other than Linux (e.g. Darwin/BSD) lack pipe2(2), so the flags
// are applied with separate fcntl calls after a plain pipe(2).
func createPipe() ([2]int, error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return fds, err
	}
	for _, fd := range fds {
		if err := unix.SetNonblock(fd, true); err != nil {
			return fds, err
		}
		if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETFD, unix.FD_CLOEXEC); err != nil {
			return fds, err
		}
	}
	return fds, nil
}
