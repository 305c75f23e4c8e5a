package reactor

// FdCallback is invoked when its file descriptor becomes ready for reading
// or is hung up on. It receives the current time, matching the teacher's
// single-argument callback convention for timers and fds alike.
type FdCallback func(now Timestamp)

// FdHandle identifies a registered file descriptor, returned by RegisterFd
// and consumed by UnregisterFd. It is opaque to callers beyond identity.
type FdHandle struct {
	fd int
}
