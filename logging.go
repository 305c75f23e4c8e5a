package reactor

import (
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the concrete structured-logger type threaded through a Reactor.
// The reactor logs through github.com/joeycumines/logiface, using
// github.com/joeycumines/stumpy as the default event/writer implementation
// (newline-delimited JSON to stderr).
type Logger = logiface.Logger[*stumpy.Event]

var (
	defaultLoggerOnce sync.Once
	defaultLoggerVal  *Logger
)

// defaultLogger lazily builds a package-level stumpy-backed logger, writing
// to os.Stderr at informational level, used by any Reactor created without
// an explicit WithLogger option.
func defaultLogger() *Logger {
	defaultLoggerOnce.Do(func() {
		defaultLoggerVal = stumpy.L.New(stumpy.L.WithStumpy())
	})
	return defaultLoggerVal
}

func logFDRejected(l *Logger, fd int, err error) {
	l.Warning().Int(`fd`, fd).Err(err).Log(`fd registration rejected`)
}

func logPollRetry(l *Logger, err error) {
	l.Debug().Err(err).Log(`poll interrupted, retrying`)
}

func logTaskPanic(l *Logger, pe *TaskPanicError) {
	l.Err().Str(`task`, pe.Task).Err(pe).Log(`recovered task panic, reactor continues`)
}

func logMutexMisuse(l *Logger, err error) {
	l.Warning().Err(err).Log(`mutex misuse by caller`)
}

func logAsyncQueueOverload(l *Logger, depth int) {
	l.Warning().Int(`depth`, depth).Log(`async queue backlog growing`)
}
