package reactor

import "time"

// reactorOptions holds configuration resolved from New's Option arguments.
type reactorOptions struct {
	logger              *Logger
	minPollTimeout      time.Duration
	maxPollTimeout      time.Duration
	initialTaskPoolSize int
	asyncQueueCapacity  int
}

// Option configures a Reactor at construction time.
type Option interface {
	applyReactor(*reactorOptions) error
}

// reactorOptionImpl implements Option.
type reactorOptionImpl struct {
	applyReactorFunc func(*reactorOptions) error
}

func (o *reactorOptionImpl) applyReactor(opts *reactorOptions) error {
	return o.applyReactorFunc(opts)
}

// WithLogger sets the structured logger used for the diagnostic conditions
// the reactor logs: rejected fd registrations, retried poll
// interruptions, recovered task panics, mutex misuse, and async queue
// backlog warnings. The default is a stumpy-backed logger writing to stderr.
func WithLogger(l *Logger) Option {
	return &reactorOptionImpl{func(opts *reactorOptions) error {
		opts.logger = l
		return nil
	}}
}

// WithPollTimeoutBounds sets the clamp applied to the poll timeout computed
// from the earliest pending timer (see compute_timeout in the dispatch
// loop). min must be positive; max must be >= min. The teacher's clamp
// constants (1ms floor, 1s ceiling) are the defaults.
func WithPollTimeoutBounds(min, max time.Duration) Option {
	return &reactorOptionImpl{func(opts *reactorOptions) error {
		opts.minPollTimeout = min
		opts.maxPollTimeout = max
		return nil
	}}
}

// WithInitialTaskPoolSize preallocates n idle task goroutines so that the
// first few Pause/spawn calls do not pay goroutine-creation cost. This is a
// sizing hint only; the pool grows on demand regardless.
func WithInitialTaskPoolSize(n int) Option {
	return &reactorOptionImpl{func(opts *reactorOptions) error {
		opts.initialTaskPoolSize = n
		return nil
	}}
}

// WithAsyncQueueCapacity sets the soft capacity of the async callback queue
// (component J) used by RegisterAsyncCallback/AsyncComplete. The queue never
// blocks or drops a push; exceeding this depth only triggers a logged
// backlog warning, on the assumption that the reactor goroutine has stalled.
func WithAsyncQueueCapacity(n int) Option {
	return &reactorOptionImpl{func(opts *reactorOptions) error {
		opts.asyncQueueCapacity = n
		return nil
	}}
}

// resolveReactorOptions applies Option instances over sensible defaults.
func resolveReactorOptions(opts []Option) (*reactorOptions, error) {
	cfg := &reactorOptions{
		logger:              defaultLogger(),
		minPollTimeout:      time.Millisecond,
		maxPollTimeout:      time.Second,
		initialTaskPoolSize: 4,
		asyncQueueCapacity:  64,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyReactor(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
