//go:build linux

package reactor

import "golang.org/x/sys/unix"

// createPipe returns {readFd, writeFd}, both non-blocking and close-on-exec,
// using the single pipe2 syscall available on Linux.
func createPipe() ([2]int, error) {
	var fds [2]int
	err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC)
	return fds, err
}
