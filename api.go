// Package vigil provides a periodic read-validate-compare primitive.
//
// The core type is Monitor, which re-reads a source on a fixed interval,
// validates what it read, and stages the result so that the consumer decides
// when to accept it.
//
// # Monitor
//
// Every tick runs one cycle:
//
//	Parse → Source → Validate → Succeeded
//
// A parse failure leaves Source untouched. A validation failure leaves the
// rejected value in Source. Either way LastError is set, LastReloadSucceeded
// is false, and exactly one Progress notification is delivered.
//
// # Source and Current
//
// Source is the latest parsed value. Current is the value the consumer last
// accepted with PromoteSourceAsCurrent, which stores a Clone of Source.
// DetectedChanges reports whether the two differ and is recomputed whenever
// either one changes, so it is never stale.
//
// # Monitored Values
//
// Values must implement Comparable:
//
//	type Comparable[T any] interface {
//	    Equal(other T) bool
//	    Clone() T
//	}
//
// # State Machine
//
// Monitor reports one of four health states:
//
//   - Loading: no cycle has completed yet
//   - Healthy: the last cycle succeeded
//   - Degraded: the last cycle failed, a source is still held
//   - Empty: the last cycle failed and no source was ever parsed
//
// # Example
//
//	monitor, err := vigil.New[*books.Library](parser, books.NewValidator(), 2*time.Second)
//	if err != nil {
//	    return err
//	}
//	defer monitor.Close()
//
//	monitor.OnProgress(func(_ context.Context, p vigil.Progress) {
//	    if p.Failed() {
//	        log.Printf("reload failed: %v", p.Err)
//	        return
//	    }
//	    if p.Changes {
//	        monitor.PromoteSourceAsCurrent()
//	    }
//	})
//
//	if err := monitor.Start(ctx); err != nil {
//	    return err
//	}
//	<-monitor.Done()
package vigil

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// Monitor polls a Parser on a fixed interval, validates each result and
// stages it as Source until the consumer promotes it to Current.
//
// All accessors are safe for concurrent use. Cycles never overlap: a manual
// MonitorSourceData call waits for a cycle started by the polling loop.
type Monitor[T Comparable[T]] struct {
	parser    Parser[T]
	validator Validator[T]
	interval  time.Duration
	clock     clockz.Clock
	metrics   MetricsProvider
	onStop    func(State)
	failures  *failureRing
	progress  progressHub

	// cycleMu serializes cycles.
	cycleMu sync.Mutex

	mu         sync.RWMutex
	source     T
	hasSource  bool
	current    T
	hasCurrent bool
	changes    bool
	lastErr    error
	succeeded  bool
	state      State
	phase      Phase
	cycles     uint64

	runMu   sync.Mutex
	ticker  *Ticker
	started bool
	closed  bool
	done    chan struct{}
	status  atomic.Int32
}

// New creates a Monitor that runs parser and validator every interval once
// started. It fails with ErrMissingDependency when parser or validator is nil
// and with ErrInvalidArgument when interval is not positive.
//
// Instance configuration uses chainable methods before calling Start().
func New[T Comparable[T]](parser Parser[T], validator Validator[T], interval time.Duration) (*Monitor[T], error) {
	if isNil(parser) {
		return nil, missingDependency("parser")
	}
	if isNil(validator) {
		return nil, missingDependency("validator")
	}
	ticker, err := NewTicker(interval, clockz.RealClock)
	if err != nil {
		return nil, err
	}

	m := &Monitor[T]{
		parser:    parser,
		validator: validator,
		interval:  interval,
		clock:     clockz.RealClock,
		ticker:    ticker,
	}
	m.status.Store(int32(StatusNotStarted))
	return m, nil
}

// isNil reports whether v is nil or an interface wrapping a nil func or pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// Clock sets a custom clock for ticks and cycle durations.
// Use this with clockz.FakeClock for deterministic tests.
// Must be called before Start().
func (m *Monitor[T]) Clock(clock clockz.Clock) *Monitor[T] {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if clock == nil {
		return m
	}
	m.clock = clock
	// A closed Monitor gets its new ticker from Reset.
	if m.closed {
		return m
	}
	ticker, err := NewTicker(m.interval, clock)
	if err != nil {
		return m
	}
	m.ticker.Close()
	m.ticker = ticker
	return m
}

// Metrics sets a metrics provider for observability integration.
// Must be called before Start().
func (m *Monitor[T]) Metrics(provider MetricsProvider) *Monitor[T] {
	m.metrics = provider
	return m
}

// OnStop sets a callback that is invoked when the polling loop exits.
// The callback receives the health state at that moment.
// Must be called before Start().
func (m *Monitor[T]) OnStop(fn func(State)) *Monitor[T] {
	m.onStop = fn
	return m
}

// ErrorHistorySize sets the number of recent cycle failures to retain.
// Use 0 (default) to only retain the most recent error via LastError().
// Must be called before Start().
func (m *Monitor[T]) ErrorHistorySize(n int) *Monitor[T] {
	m.failures = newFailureRing(n)
	return m
}

// -----------------------------------------------------------------------------
// Accessors
// -----------------------------------------------------------------------------

// Source returns the most recently parsed value and true, or the zero value
// and false if nothing was parsed yet. The value is shared with the monitor
// and must not be mutated.
func (m *Monitor[T]) Source() (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.source, m.hasSource
}

// Current returns the last promoted value and true, or the zero value and
// false if nothing was promoted yet.
func (m *Monitor[T]) Current() (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.hasCurrent
}

// DetectedChanges reports whether Current differs from Source.
func (m *Monitor[T]) DetectedChanges() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.changes
}

// LastError returns the error of the last cycle, or nil if it succeeded or
// no cycle ran yet.
func (m *Monitor[T]) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// LastReloadSucceeded reports whether the last cycle succeeded. It is false
// while a cycle is in progress.
func (m *Monitor[T]) LastReloadSucceeded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.succeeded
}

// State returns the current health state of the Monitor.
func (m *Monitor[T]) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Phase returns the step the running cycle is in.
func (m *Monitor[T]) Phase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// Cycles returns the number of cycles started so far.
func (m *Monitor[T]) Cycles() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cycles
}

// Status returns the lifecycle status of the polling loop.
func (m *Monitor[T]) Status() Status {
	return Status(m.status.Load())
}

// Interval returns the polling interval.
func (m *Monitor[T]) Interval() time.Duration {
	return m.interval
}

// ErrorHistory returns the recent cycle failures, oldest first.
// Returns nil if error history is not enabled (see ErrorHistorySize).
func (m *Monitor[T]) ErrorHistory() []Failure {
	return m.failures.snapshot()
}

// OnProgress registers fn to be called at the end of every cycle. Handlers
// run synchronously on the goroutine executing the cycle, in registration
// order, and delay the next tick while they run. A handler may call
// MonitorSourceData; the nested cycle runs and notifies before the outer
// call returns. The returned function removes the handler.
func (m *Monitor[T]) OnProgress(fn func(ctx context.Context, p Progress)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	return m.progress.subscribe(fn)
}

// -----------------------------------------------------------------------------
// Operations
// -----------------------------------------------------------------------------

// MonitorSourceData runs one cycle immediately: parse, store as Source,
// validate, succeed. It returns true only if every step succeeded. Failures
// are never returned; they are recorded in LastError and reported through
// exactly one Progress notification.
//
// A nil value returned without error by the parser is stored as an absent
// Source. Progress handlers run after the cycle has released its lock, so a
// handler may start another cycle.
func (m *Monitor[T]) MonitorSourceData(ctx context.Context) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	p := m.cycle(ctx)
	m.progress.publish(ctx, p)
	return !p.Failed()
}

// cycle runs the parse and validate steps under cycleMu and returns the
// Progress to publish.
func (m *Monitor[T]) cycle(ctx context.Context) Progress {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	start := m.clock.Now()
	id := uuid.NewString()

	m.mu.Lock()
	m.cycles++
	cycle := m.cycles
	m.succeeded = false
	m.phase = PhaseParsing
	m.mu.Unlock()

	capitan.Emit(ctx, CycleStarted,
		KeyCycle.Field(int(cycle)),
		KeyCycleID.Field(id),
	)

	var value T
	err := guard(func() error {
		var perr error
		value, perr = m.parser.Parse(ctx)
		return perr
	})
	if err != nil {
		return m.fail(ctx, cycle, id, OutcomeParseFailed, err, start)
	}

	m.mu.Lock()
	m.source = value
	m.hasSource = !isNil(value)
	m.detectChanges()
	m.phase = PhaseValidating
	m.mu.Unlock()

	if err := guard(func() error { return m.validator.Validate(value) }); err != nil {
		return m.fail(ctx, cycle, id, OutcomeValidationFailed, err, start)
	}

	return m.succeed(ctx, cycle, id, start)
}

// PromoteSourceAsCurrent stores a clone of Source as Current, so that later
// changes to Source never leak into Current. If there is no Source, Current
// becomes empty too. This is the only way Current changes.
func (m *Monitor[T]) PromoteSourceAsCurrent() {
	m.mu.Lock()
	if m.hasSource {
		m.current = m.source.Clone()
		m.hasCurrent = true
	} else {
		var zero T
		m.current = zero
		m.hasCurrent = false
	}
	m.detectChanges()
	changes := m.changes
	m.mu.Unlock()

	capitan.Emit(context.Background(), MonitorPromoted,
		KeyChanges.Field(strconv.FormatBool(changes)),
	)
	if m.metrics != nil {
		m.metrics.OnPromote(changes)
	}
}

// Start begins polling in the background and returns immediately. Each tick
// runs MonitorSourceData. The loop ends, without error, when ctx is canceled
// or the Monitor is closed; Done is closed afterwards.
//
// Start can only be called once. Subsequent calls return ErrAlreadyStarted,
// even after the loop has stopped, until Reset is called.
func (m *Monitor[T]) Start(ctx context.Context) error {
	if ctx == nil {
		return invalidArgument("ctx", "is nil")
	}

	m.runMu.Lock()
	if m.started {
		m.runMu.Unlock()
		return fmt.Errorf("%w: Start was already invoked", ErrAlreadyStarted)
	}
	m.started = true
	done := make(chan struct{})
	m.done = done
	sched := newScheduler(ctx, m.ticker)
	m.status.Store(int32(StatusRunning))
	m.runMu.Unlock()

	capitan.Emit(ctx, MonitorStarted,
		KeyInterval.Field(m.interval),
	)

	go func() {
		defer close(done)
		sched.run(func() { m.MonitorSourceData(ctx) })
		m.stop(ctx)
	}()
	return nil
}

// Done returns a channel that is closed when the polling loop exits. Before
// the first Start it returns nil, which blocks forever.
func (m *Monitor[T]) Done() <-chan struct{} {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.done
}

// Reset re-arms Start after the polling loop has stopped. It always replaces
// the ticker, so a tick buffered before the stop never fires after the next
// Start, and it reopens a closed Monitor. It returns ErrStillRunning while the
// loop is running.
func (m *Monitor[T]) Reset() error {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.Status() == StatusRunning {
		return ErrStillRunning
	}
	ticker, err := NewTicker(m.interval, m.clock)
	if err != nil {
		return err
	}
	m.ticker.Close()
	m.ticker = ticker
	m.closed = false
	m.started = false
	m.status.Store(int32(StatusNotStarted))
	return nil
}

// Close releases the ticker. A running loop stops after its current cycle.
// Close does not cancel the context passed to Start. Calling Close more than
// once is a no-op.
func (m *Monitor[T]) Close() error {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.ticker.Close()
	return nil
}

// -----------------------------------------------------------------------------
// Internals
// -----------------------------------------------------------------------------

// detectChanges recomputes the changes flag. Callers hold mu.
func (m *Monitor[T]) detectChanges() {
	switch {
	case !m.hasSource && !m.hasCurrent:
		m.changes = false
	case m.hasSource != m.hasCurrent:
		m.changes = true
	default:
		m.changes = !m.current.Equal(m.source)
	}
}

// fail records a failed cycle and returns its Progress.
func (m *Monitor[T]) fail(ctx context.Context, cycle uint64, id string, outcome Outcome, err error, start time.Time) Progress {
	duration := m.clock.Since(start)

	m.mu.Lock()
	m.lastErr = err
	m.succeeded = false
	m.phase = PhaseIdle
	oldState := m.state
	newState := StateEmpty
	if m.hasSource {
		newState = StateDegraded
	}
	m.state = newState
	changes := m.changes
	m.mu.Unlock()

	m.failures.push(Failure{Cycle: cycle, Stage: outcome.Stage(), Err: err, At: m.clock.Now()})
	m.transitionState(ctx, oldState, newState)

	signal := CycleParseFailed
	if outcome == OutcomeValidationFailed {
		signal = CycleValidationFailed
	}
	capitan.Emit(ctx, signal,
		KeyCycle.Field(int(cycle)),
		KeyCycleID.Field(id),
		KeyError.Field(err.Error()),
		KeyDuration.Field(duration),
	)
	if m.metrics != nil {
		m.metrics.OnCycleFailure(outcome.Stage(), duration)
	}

	return Progress{
		Cycle:    cycle,
		ID:       id,
		Outcome:  outcome,
		Err:      err,
		Duration: duration,
		Changes:  changes,
		State:    newState,
	}
}

// succeed marks the cycle complete and returns its Progress.
func (m *Monitor[T]) succeed(ctx context.Context, cycle uint64, id string, start time.Time) Progress {
	duration := m.clock.Since(start)

	m.mu.Lock()
	m.lastErr = nil
	m.succeeded = true
	m.phase = PhaseIdle
	oldState := m.state
	m.state = StateHealthy
	changes := m.changes
	m.mu.Unlock()

	m.failures.reset()
	m.transitionState(ctx, oldState, StateHealthy)

	capitan.Emit(ctx, CycleSucceeded,
		KeyCycle.Field(int(cycle)),
		KeyCycleID.Field(id),
		KeyDuration.Field(duration),
		KeyChanges.Field(strconv.FormatBool(changes)),
	)
	if m.metrics != nil {
		m.metrics.OnCycleSuccess(duration)
	}

	return Progress{
		Cycle:    cycle,
		ID:       id,
		Outcome:  OutcomeSucceeded,
		Duration: duration,
		Changes:  changes,
		State:    StateHealthy,
	}
}

// transitionState emits a state change event if the state changed.
func (m *Monitor[T]) transitionState(ctx context.Context, oldState, newState State) {
	if oldState == newState {
		return
	}
	capitan.Emit(ctx, MonitorStateChanged,
		KeyOldState.Field(oldState.String()),
		KeyNewState.Field(newState.String()),
	)
	if m.metrics != nil {
		m.metrics.OnStateChange(oldState, newState)
	}
}

// stop records the end of the polling loop.
func (m *Monitor[T]) stop(ctx context.Context) {
	m.runMu.Lock()
	m.status.Store(int32(StatusStopped))
	m.runMu.Unlock()

	finalState := m.State()
	capitan.Emit(ctx, MonitorStopped,
		KeyState.Field(finalState.String()),
		KeyStatus.Field(StatusStopped.String()),
	)
	if m.onStop != nil {
		m.onStop(finalState)
	}
}

// guard runs fn and converts a panic into an error, so that nothing raised by
// a parser or validator escapes a cycle.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
