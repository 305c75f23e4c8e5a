package reactor

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// wakePipe is the self-pipe (component E): a pair of anonymous, non-blocking
// pipe fds used to interrupt a blocked poll call from another OS thread.
// Writing a single byte to writeFd is always safe to do concurrently with
// the reactor goroutine; draining readFd happens only on the reactor
// goroutine, inside the dispatch loop.
type wakePipe struct {
	readFd  int
	writeFd int
}

// newWakePipe creates the self-pipe. The caller is responsible for handing
// readFd to the poller so its readiness surfaces through the same path as
// any other watched descriptor.
func newWakePipe() (*wakePipe, error) {
	fds, err := createPipe()
	if err != nil {
		return nil, fmt.Errorf("reactor: create wake pipe: %w", err)
	}
	return &wakePipe{readFd: fds[0], writeFd: fds[1]}, nil
}

// wake writes a single byte to the pipe. If the pipe buffer is already full
// the write fails and is ignored: the dispatch loop only cares that at least
// one byte is available, never how many.
func (w *wakePipe) wake() {
	var b [1]byte
	b[0] = 1
	for {
		_, err := unix.Write(w.writeFd, b[:])
		if err == unix.EINTR {
			continue
		}
		// EAGAIN means the pipe buffer is full, so wake bytes are already
		// pending: fine.
		return
	}
}

// drain empties the pipe; called after the poller reports readFd readable.
func (w *wakePipe) drain() {
	var buf [64]byte
	for {
		n, err := unix.Read(w.readFd, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func (w *wakePipe) close() {
	_ = unix.Close(w.writeFd)
	_ = unix.Close(w.readFd)
}
