package vigil

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

// Ticker is the timing resource behind a Scheduler or Monitor. It fires on a
// fixed interval until closed. Like time.Ticker, at most one tick is buffered:
// ticks missed while the consumer is busy are dropped, never queued.
type Ticker struct {
	ticker clockz.Ticker
	closed chan struct{}
	once   sync.Once
}

// NewTicker creates a Ticker firing every interval on the given clock.
// A nil clock means clockz.RealClock.
func NewTicker(interval time.Duration, clock clockz.Clock) (*Ticker, error) {
	if interval <= 0 {
		return nil, invalidArgument("interval", "must be positive")
	}
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Ticker{
		ticker: clock.NewTicker(interval),
		closed: make(chan struct{}),
	}, nil
}

// Wait blocks until the next tick and reports true. It reports false once the
// ticker is closed, and returns ctx.Err() when ctx is done first. Wait is the
// only suspension point of a polling loop.
func (t *Ticker) Wait(ctx context.Context) (bool, error) {
	select {
	case <-t.closed:
		return false, nil
	default:
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	select {
	case <-t.closed:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-t.ticker.C():
		return true, nil
	}
}

// Close stops future ticks. Pending and future Wait calls report false.
// Close is idempotent.
func (t *Ticker) Close() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.closed)
	})
}

// schedulerConfig holds configuration options for a Scheduler.
type schedulerConfig struct {
	clock clockz.Clock
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*schedulerConfig)

// WithSchedulerClock sets a custom clock for the scheduler's ticker.
// Use this with clockz.FakeClock for deterministic tests.
func WithSchedulerClock(clock clockz.Clock) SchedulerOption {
	return func(c *schedulerConfig) {
		c.clock = clock
	}
}

// Scheduler invokes an action on a fixed interval until its context is
// canceled or it is closed.
//
//	sched, err := vigil.NewScheduler(ctx, 5*time.Second)
//	if err != nil {
//	    return err
//	}
//	defer sched.Close()
//	_ = sched.Start(func() { refresh() })
type Scheduler struct {
	ctx    context.Context
	ticker *Ticker
	done   chan struct{}

	mu      sync.Mutex
	started bool
}

// NewScheduler creates a Scheduler. The interval must be positive and ctx
// must be cancelable: a context whose Done channel is nil (such as
// context.Background) could never stop the loop and is rejected.
func NewScheduler(ctx context.Context, interval time.Duration, opts ...SchedulerOption) (*Scheduler, error) {
	if interval <= 0 {
		return nil, invalidArgument("interval", "must be positive")
	}
	if ctx == nil || ctx.Done() == nil {
		return nil, invalidArgument("ctx", "must be cancelable")
	}

	cfg := &schedulerConfig{clock: clockz.RealClock}
	for _, opt := range opts {
		opt(cfg)
	}

	ticker, err := NewTicker(interval, cfg.clock)
	if err != nil {
		return nil, err
	}
	return newScheduler(ctx, ticker), nil
}

func newScheduler(ctx context.Context, ticker *Ticker) *Scheduler {
	return &Scheduler{
		ctx:    ctx,
		ticker: ticker,
		done:   make(chan struct{}),
	}
}

// Start launches the polling loop in the background and returns immediately.
// Each tick invokes action synchronously, so invocations never overlap.
// Panics raised by action are not recovered. Cancellation of the context
// ends the loop without error. Start may only be called once.
func (s *Scheduler) Start(action func()) error {
	if action == nil {
		return missingDependency("action")
	}

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		s.run(action)
	}()
	return nil
}

// Done is closed when the loop started by Start has exited.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Close releases the ticker. No further ticks fire; an action already
// running is allowed to finish.
func (s *Scheduler) Close() {
	s.ticker.Close()
}

// run waits for ticks and invokes action until the ticker is closed or the
// context is done.
func (s *Scheduler) run(action func()) {
	for {
		ok, err := s.ticker.Wait(s.ctx)
		if err != nil || !ok {
			return
		}
		action()
	}
}
