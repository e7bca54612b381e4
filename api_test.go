package vigil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

// testShelf is a small Comparable value with a nested collection.
type testShelf struct {
	Name  string
	Books []*testBook
}

type testBook struct {
	Title string
	Pages int
}

func (s *testShelf) Equal(other *testShelf) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Name != other.Name || len(s.Books) != len(other.Books) || (s.Books == nil) != (other.Books == nil) {
		return false
	}
	for i := range s.Books {
		a, b := s.Books[i], other.Books[i]
		if a == nil || b == nil {
			if a != b {
				return false
			}
			continue
		}
		if *a != *b {
			return false
		}
	}
	return true
}

func (s *testShelf) Clone() *testShelf {
	if s == nil {
		return nil
	}
	out := &testShelf{Name: s.Name}
	if s.Books != nil {
		out.Books = make([]*testBook, len(s.Books))
		for i, b := range s.Books {
			if b != nil {
				cp := *b
				out.Books[i] = &cp
			}
		}
	}
	return out
}

func shelfA() *testShelf {
	return &testShelf{Name: "A", Books: []*testBook{{Title: "one", Pages: 10}, {Title: "two", Pages: 20}}}
}

func shelfB() *testShelf {
	return &testShelf{Name: "B", Books: []*testBook{{Title: "three", Pages: 30}}}
}

// stubParser returns a clone of its shelf, or err when set.
type stubParser struct {
	mu    sync.Mutex
	shelf *testShelf
	err   error
	calls atomic.Int32
}

func (p *stubParser) Parse(_ context.Context) (*testShelf, error) {
	p.calls.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.shelf.Clone(), nil
}

func (p *stubParser) set(shelf *testShelf, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shelf = shelf
	p.err = err
}

// stubValidator rejects with err when set.
type stubValidator struct {
	mu    sync.Mutex
	err   error
	calls atomic.Int32
}

func (v *stubValidator) Validate(_ *testShelf) error {
	v.calls.Add(1)
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

func (v *stubValidator) set(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.err = err
}

// recordingMetrics counts MetricsProvider callbacks.
type recordingMetrics struct {
	NoOpMetricsProvider
	mu          sync.Mutex
	successes   int
	failures    map[string]int
	transitions []State
	promotions  int
}

func (r *recordingMetrics) OnCycleSuccess(_ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes++
}

func (r *recordingMetrics) OnCycleFailure(stage string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures == nil {
		r.failures = make(map[string]int)
	}
	r.failures[stage]++
}

func (r *recordingMetrics) OnStateChange(_, to State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, to)
}

func (r *recordingMetrics) OnPromote(_ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.promotions++
}

func newTestMonitor(t *testing.T, interval time.Duration) (*Monitor[*testShelf], *stubParser, *stubValidator) {
	t.Helper()
	parser := &stubParser{shelf: shelfA()}
	validator := &stubValidator{}
	m, err := New[*testShelf](parser, validator, interval)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m, parser, validator
}

// collect subscribes to progress and returns an accessor for what was seen.
func collect(m *Monitor[*testShelf]) func() []Progress {
	var (
		mu   sync.Mutex
		seen []Progress
	)
	m.OnProgress(func(_ context.Context, p Progress) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, p)
	})
	return func() []Progress {
		mu.Lock()
		defer mu.Unlock()
		out := make([]Progress, len(seen))
		copy(out, seen)
		return out
	}
}

func eventually(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestNew_ValidatesArguments(t *testing.T) {
	parser := &stubParser{shelf: shelfA()}
	validator := &stubValidator{}

	if _, err := New[*testShelf](nil, validator, time.Second); !errors.Is(err, ErrMissingDependency) {
		t.Errorf("nil parser: expected ErrMissingDependency, got %v", err)
	}
	if _, err := New[*testShelf](parser, nil, time.Second); !errors.Is(err, ErrMissingDependency) {
		t.Errorf("nil validator: expected ErrMissingDependency, got %v", err)
	}
	var nilFunc ParserFunc[*testShelf]
	if _, err := New[*testShelf](nilFunc, validator, time.Second); !errors.Is(err, ErrMissingDependency) {
		t.Errorf("nil parser func: expected ErrMissingDependency, got %v", err)
	}
	if _, err := New[*testShelf](parser, validator, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("zero interval: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := New[*testShelf](parser, validator, -time.Second); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("negative interval: expected ErrInvalidArgument, got %v", err)
	}

	m, err := New[*testShelf](parser, validator, time.Second)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer m.Close()

	if _, ok := m.Source(); ok {
		t.Error("expected empty source")
	}
	if _, ok := m.Current(); ok {
		t.Error("expected empty current")
	}
	if m.DetectedChanges() || m.LastReloadSucceeded() || m.LastError() != nil {
		t.Error("expected cleared flags")
	}
	if m.State() != StateLoading {
		t.Errorf("expected loading, got %s", m.State())
	}
	if m.Status() != StatusNotStarted {
		t.Errorf("expected not-started, got %s", m.Status())
	}
	if m.Interval() != time.Second {
		t.Errorf("expected interval 1s, got %v", m.Interval())
	}
}

func TestMonitor_ParseFailure(t *testing.T) {
	m, parser, validator := newTestMonitor(t, time.Hour)
	seen := collect(m)

	parseErr := &ParseError{Source: "shelf.json", Err: errors.New("unexpected EOF")}
	parser.set(nil, parseErr)

	if m.MonitorSourceData(context.Background()) {
		t.Fatal("expected cycle to fail")
	}

	if _, ok := m.Source(); ok {
		t.Error("expected source to stay empty")
	}
	var pe *ParseError
	if !errors.As(m.LastError(), &pe) {
		t.Errorf("expected *ParseError, got %v", m.LastError())
	}
	if m.LastReloadSucceeded() {
		t.Error("expected LastReloadSucceeded false")
	}
	if validator.calls.Load() != 0 {
		t.Error("validator must not run after a parse failure")
	}

	got := seen()
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", len(got))
	}
	if got[0].Outcome != OutcomeParseFailed || !errors.Is(got[0].Err, parseErr) {
		t.Errorf("unexpected progress: %+v", got[0])
	}
	if m.State() != StateEmpty {
		t.Errorf("expected empty, got %s", m.State())
	}
}

func TestMonitor_ParseFailureKeepsPreviousSource(t *testing.T) {
	m, parser, _ := newTestMonitor(t, time.Hour)

	if !m.MonitorSourceData(context.Background()) {
		t.Fatalf("first cycle failed: %v", m.LastError())
	}
	parser.set(nil, errors.New("file vanished"))
	m.MonitorSourceData(context.Background())

	src, ok := m.Source()
	if !ok || !src.Equal(shelfA()) {
		t.Errorf("expected previous source to survive, got %+v", src)
	}
	if m.State() != StateDegraded {
		t.Errorf("expected degraded, got %s", m.State())
	}
}

func TestMonitor_ValidationFailure(t *testing.T) {
	m, _, validator := newTestMonitor(t, time.Hour)
	seen := collect(m)

	validator.set(&ValidationError{Field: "Books[0].Title", Reason: "is blank"})

	if m.MonitorSourceData(context.Background()) {
		t.Fatal("expected cycle to fail")
	}

	src, ok := m.Source()
	if !ok || !src.Equal(shelfA()) {
		t.Error("expected source to hold the rejected value")
	}
	var ve *ValidationError
	if !errors.As(m.LastError(), &ve) || ve.Field != "Books[0].Title" {
		t.Errorf("expected *ValidationError, got %v", m.LastError())
	}
	if m.LastReloadSucceeded() {
		t.Error("expected LastReloadSucceeded false")
	}

	got := seen()
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", len(got))
	}
	if got[0].Outcome != OutcomeValidationFailed {
		t.Errorf("expected validation-failed, got %s", got[0].Outcome)
	}
	if m.State() != StateDegraded {
		t.Errorf("expected degraded, got %s", m.State())
	}
}

func TestMonitor_Success(t *testing.T) {
	m, _, _ := newTestMonitor(t, time.Hour)
	seen := collect(m)

	if !m.MonitorSourceData(context.Background()) {
		t.Fatalf("expected success, got %v", m.LastError())
	}

	if m.LastError() != nil {
		t.Errorf("expected nil error, got %v", m.LastError())
	}
	if !m.LastReloadSucceeded() {
		t.Error("expected LastReloadSucceeded true")
	}
	if !m.DetectedChanges() {
		t.Error("expected changes while current is empty")
	}

	got := seen()
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", len(got))
	}
	if got[0].Outcome != OutcomeSucceeded || got[0].Err != nil || !got[0].Changes {
		t.Errorf("unexpected progress: %+v", got[0])
	}
	if got[0].Cycle != 1 || got[0].ID == "" {
		t.Errorf("expected cycle 1 with an id, got %d %q", got[0].Cycle, got[0].ID)
	}
	if m.State() != StateHealthy || m.Phase() != PhaseIdle {
		t.Errorf("expected healthy/idle, got %s/%s", m.State(), m.Phase())
	}
}

func TestMonitor_SuccessClearsPreviousError(t *testing.T) {
	m, parser, _ := newTestMonitor(t, time.Hour)

	parser.set(nil, errors.New("boom"))
	m.MonitorSourceData(context.Background())
	if m.LastError() == nil {
		t.Fatal("expected error after failed cycle")
	}

	parser.set(shelfA(), nil)
	if !m.MonitorSourceData(context.Background()) {
		t.Fatal("expected success")
	}
	if m.LastError() != nil {
		t.Errorf("expected error cleared, got %v", m.LastError())
	}
}

func TestMonitor_FlagResetAtCycleEntry(t *testing.T) {
	var m *Monitor[*testShelf]
	var sawSucceeded, sawPhase atomic.Value

	parser := ParserFunc[*testShelf](func(context.Context) (*testShelf, error) {
		sawSucceeded.Store(m.LastReloadSucceeded())
		sawPhase.Store(m.Phase())
		return shelfA(), nil
	})
	validator := ValidatorFunc[*testShelf](func(*testShelf) error {
		if m.Phase() != PhaseValidating {
			return errors.New("wrong phase")
		}
		return nil
	})

	var err error
	m, err = New[*testShelf](parser, validator, time.Hour)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer m.Close()

	m.MonitorSourceData(context.Background())
	if !m.MonitorSourceData(context.Background()) {
		t.Fatalf("expected success, got %v", m.LastError())
	}
	if sawSucceeded.Load().(bool) {
		t.Error("expected LastReloadSucceeded false while parsing")
	}
	if sawPhase.Load().(Phase) != PhaseParsing {
		t.Errorf("expected parsing phase, got %v", sawPhase.Load())
	}
}

func TestMonitor_PanicsBecomeErrors(t *testing.T) {
	parser := ParserFunc[*testShelf](func(context.Context) (*testShelf, error) {
		panic("parser exploded")
	})
	m, err := New[*testShelf](parser, Accept[*testShelf](), time.Hour)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer m.Close()
	seen := collect(m)

	if m.MonitorSourceData(context.Background()) {
		t.Fatal("expected failure")
	}
	if m.LastError() == nil {
		t.Fatal("expected recovered panic as error")
	}
	if len(seen()) != 1 {
		t.Errorf("expected 1 notification, got %d", len(seen()))
	}
}

func TestMonitor_PromoteClonesSource(t *testing.T) {
	var backing *testShelf
	parser := ParserFunc[*testShelf](func(context.Context) (*testShelf, error) {
		backing = shelfA()
		return backing, nil
	})
	m, err := New[*testShelf](parser, Accept[*testShelf](), time.Hour)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer m.Close()

	m.MonitorSourceData(context.Background())
	m.PromoteSourceAsCurrent()

	current, ok := m.Current()
	src, _ := m.Source()
	if !ok || !current.Equal(src) {
		t.Fatal("expected current to equal source after promotion")
	}
	if current == src {
		t.Fatal("expected current to be a copy, not an alias")
	}

	backing.Name = "mutated"
	backing.Books[0].Title = "mutated"

	current, _ = m.Current()
	if !current.Equal(shelfA()) {
		t.Errorf("mutating the source leaked into current: %+v", current)
	}
}

func TestMonitor_PromoteIsIdempotent(t *testing.T) {
	m, _, _ := newTestMonitor(t, time.Hour)
	m.MonitorSourceData(context.Background())

	m.PromoteSourceAsCurrent()
	if m.DetectedChanges() {
		t.Error("expected no changes after first promotion")
	}
	m.PromoteSourceAsCurrent()
	if m.DetectedChanges() {
		t.Error("expected no changes after second promotion")
	}
}

func TestMonitor_PromoteWithoutSource(t *testing.T) {
	m, _, _ := newTestMonitor(t, time.Hour)

	m.PromoteSourceAsCurrent()

	if _, ok := m.Current(); ok {
		t.Error("expected current to stay empty")
	}
	if m.DetectedChanges() {
		t.Error("two empty values are equal")
	}
}

func TestMonitor_DetectsNewSourceAfterPromotion(t *testing.T) {
	m, parser, _ := newTestMonitor(t, time.Hour)

	m.MonitorSourceData(context.Background())
	m.PromoteSourceAsCurrent()

	parser.set(shelfA(), nil)
	m.MonitorSourceData(context.Background())
	if m.DetectedChanges() {
		t.Error("identical source must not be reported as a change")
	}

	parser.set(shelfB(), nil)
	m.MonitorSourceData(context.Background())
	if !m.DetectedChanges() {
		t.Error("expected changes after source differs")
	}
}

func TestMonitor_StartTwice(t *testing.T) {
	m, _, _ := newTestMonitor(t, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	err := m.Start(ctx)
	if !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestMonitor_StartRejectedAfterStopUntilReset(t *testing.T) {
	m, _, _ := newTestMonitor(t, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := m.Reset(); !errors.Is(err, ErrStillRunning) {
		t.Errorf("expected ErrStillRunning, got %v", err)
	}

	cancel()
	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	if m.Status() != StatusStopped {
		t.Errorf("expected stopped, got %s", m.Status())
	}

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	if err := m.Start(ctx2); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted after stop, got %v", err)
	}

	if err := m.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if err := m.Start(ctx2); err != nil {
		t.Fatalf("Start after Reset failed: %v", err)
	}
	before := m.Cycles()
	eventually(t, time.Second, func() bool { return m.Cycles() > before })
}

func TestMonitor_StartRejectsNilContext(t *testing.T) {
	m, _, _ := newTestMonitor(t, time.Millisecond)

	//nolint:staticcheck // nil context is the case under test
	if err := m.Start(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if m.Status() != StatusNotStarted {
		t.Errorf("expected not-started, got %s", m.Status())
	}
}

func TestMonitor_DoneBeforeStart(t *testing.T) {
	m, _, _ := newTestMonitor(t, time.Hour)
	if m.Done() != nil {
		t.Error("expected nil Done channel before Start")
	}
}

func TestMonitor_EndToEnd(t *testing.T) {
	m, parser, _ := newTestMonitor(t, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	eventually(t, time.Second, func() bool {
		_, ok := m.Source()
		return ok
	})
	if _, ok := m.Current(); ok {
		t.Error("current must stay empty until promoted")
	}
	if !m.DetectedChanges() {
		t.Error("expected changes before promotion")
	}

	m.PromoteSourceAsCurrent()
	current, _ := m.Current()
	if !current.Equal(shelfA()) {
		t.Errorf("expected current to equal library A, got %+v", current)
	}
	if m.DetectedChanges() {
		t.Error("expected no changes right after promotion")
	}

	parser.set(shelfB(), nil)
	eventually(t, time.Second, m.DetectedChanges)

	current, _ = m.Current()
	src, _ := m.Source()
	if current.Equal(src) {
		t.Error("expected current to differ from source")
	}

	cancel()
	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("monitoring did not complete after cancel")
	}
}

func TestMonitor_CloseStopsLoop(t *testing.T) {
	m, _, _ := newTestMonitor(t, time.Millisecond)

	var stopState atomic.Int32
	stopState.Store(-1)
	m.OnStop(func(s State) { stopState.Store(int32(s)) })

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	eventually(t, time.Second, func() bool { return m.Cycles() > 0 })

	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after Close")
	}
	if State(stopState.Load()) != StateHealthy {
		t.Errorf("expected OnStop with healthy, got %d", stopState.Load())
	}
}

func TestMonitor_FakeClockDrivesCycles(t *testing.T) {
	m, parser, _ := newTestMonitor(t, 100*time.Millisecond)
	clock := clockz.NewFakeClock()
	m.Clock(clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if parser.calls.Load() != 0 {
		t.Fatal("no cycle may run before the first tick")
	}

	fired := make(chan struct{}, 1)
	m.OnProgress(func(context.Context, Progress) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	advanceUntil(t, clock, 100*time.Millisecond, fired)

	if parser.calls.Load() < 1 {
		t.Error("expected a cycle after the tick")
	}
}

func TestMonitor_Unsubscribe(t *testing.T) {
	m, _, _ := newTestMonitor(t, time.Hour)

	var calls atomic.Int32
	unsubscribe := m.OnProgress(func(context.Context, Progress) { calls.Add(1) })

	m.MonitorSourceData(context.Background())
	unsubscribe()
	unsubscribe()
	m.MonitorSourceData(context.Background())

	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestMonitor_HandlersRunInOrder(t *testing.T) {
	m, _, _ := newTestMonitor(t, time.Hour)

	var order []int
	m.OnProgress(func(context.Context, Progress) { order = append(order, 1) })
	m.OnProgress(func(context.Context, Progress) { order = append(order, 2) })

	m.MonitorSourceData(context.Background())

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("unexpected order: %v", order)
	}
}

func TestMonitor_ErrorHistory(t *testing.T) {
	m, parser, validator := newTestMonitor(t, time.Hour)
	m.ErrorHistorySize(2)

	parser.set(nil, errors.New("first"))
	m.MonitorSourceData(context.Background())
	parser.set(shelfA(), nil)
	validator.set(errors.New("second"))
	m.MonitorSourceData(context.Background())
	validator.set(errors.New("third"))
	m.MonitorSourceData(context.Background())

	history := m.ErrorHistory()
	if len(history) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(history))
	}
	if history[0].Err.Error() != "second" || history[0].Stage != StageValidate || history[0].Cycle != 2 {
		t.Errorf("unexpected oldest failure: %+v", history[0])
	}
	if history[1].Err.Error() != "third" {
		t.Errorf("unexpected newest failure: %+v", history[1])
	}

	validator.set(nil)
	m.MonitorSourceData(context.Background())
	if m.ErrorHistory() != nil {
		t.Error("expected history cleared after success")
	}
}

func TestMonitor_Metrics(t *testing.T) {
	m, parser, _ := newTestMonitor(t, time.Hour)
	metrics := &recordingMetrics{}
	m.Metrics(metrics)

	parser.set(nil, errors.New("boom"))
	m.MonitorSourceData(context.Background())
	parser.set(shelfA(), nil)
	m.MonitorSourceData(context.Background())
	m.PromoteSourceAsCurrent()

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if metrics.failures[StageParse] != 1 {
		t.Errorf("expected 1 parse failure, got %d", metrics.failures[StageParse])
	}
	if metrics.successes != 1 {
		t.Errorf("expected 1 success, got %d", metrics.successes)
	}
	if len(metrics.transitions) != 2 || metrics.transitions[0] != StateEmpty || metrics.transitions[1] != StateHealthy {
		t.Errorf("unexpected transitions: %v", metrics.transitions)
	}
	if metrics.promotions != 1 {
		t.Errorf("expected 1 promotion, got %d", metrics.promotions)
	}
}

func TestMonitor_ManualCyclesDoNotOverlapLoop(t *testing.T) {
	var active, overlaps atomic.Int32
	parser := ParserFunc[*testShelf](func(context.Context) (*testShelf, error) {
		if active.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(time.Millisecond)
		active.Add(-1)
		return shelfA(), nil
	})
	m, err := New[*testShelf](parser, Accept[*testShelf](), time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for range 10 {
		m.MonitorSourceData(ctx)
	}
	if overlaps.Load() != 0 {
		t.Errorf("detected %d overlapping cycles", overlaps.Load())
	}
}

// strictValue dereferences its receiver in Clone and so must never be
// cloned when nil.
type strictValue struct {
	n int
}

func (v *strictValue) Equal(other *strictValue) bool {
	if v == nil || other == nil {
		return v == other
	}
	return v.n == other.n
}

func (v *strictValue) Clone() *strictValue {
	return &strictValue{n: v.n}
}

func TestMonitor_NilParseResultIsAbsentSource(t *testing.T) {
	m, parser, _ := newTestMonitor(t, time.Hour)
	parser.set(nil, nil)

	if !m.MonitorSourceData(context.Background()) {
		t.Fatal("expected the cycle to succeed")
	}
	if _, ok := m.Source(); ok {
		t.Error("expected a nil result to leave Source absent")
	}
	if m.DetectedChanges() {
		t.Error("an absent source and an absent current are equal")
	}

	m.PromoteSourceAsCurrent()
	if _, ok := m.Current(); ok {
		t.Error("expected Current to stay absent")
	}

	parser.set(shelfA(), nil)
	m.MonitorSourceData(context.Background())
	m.PromoteSourceAsCurrent()

	parser.set(nil, nil)
	m.MonitorSourceData(context.Background())
	if !m.DetectedChanges() {
		t.Error("expected changes once the source disappears")
	}
}

func TestMonitor_PromoteNeverClonesNilSource(t *testing.T) {
	parser := ParserFunc[*strictValue](func(context.Context) (*strictValue, error) { return nil, nil })
	m, err := New[*strictValue](parser, Accept[*strictValue](), time.Hour)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer m.Close()

	m.MonitorSourceData(context.Background())
	m.PromoteSourceAsCurrent()

	if _, ok := m.Current(); ok {
		t.Error("expected Current to stay absent")
	}
}

func TestMonitor_HandlerMayStartCycle(t *testing.T) {
	m, _, _ := newTestMonitor(t, time.Hour)
	seen := collect(m)

	var nested atomic.Bool
	m.OnProgress(func(ctx context.Context, _ Progress) {
		if nested.CompareAndSwap(false, true) {
			m.MonitorSourceData(ctx)
		}
	})

	returned := make(chan bool, 1)
	go func() { returned <- m.MonitorSourceData(context.Background()) }()

	select {
	case ok := <-returned:
		if !ok {
			t.Error("expected the outer cycle to succeed")
		}
	case <-time.After(time.Second):
		t.Fatal("cycle started from a handler never returned")
	}
	if m.Cycles() != 2 {
		t.Errorf("expected 2 cycles, got %d", m.Cycles())
	}
	if len(seen()) != 2 {
		t.Errorf("expected 2 notifications, got %d", len(seen()))
	}
}

func TestMonitor_ClockAfterCloseKeepsMonitorClosed(t *testing.T) {
	m, parser, _ := newTestMonitor(t, time.Millisecond)

	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	m.Clock(clockz.RealClock)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("loop kept running on a closed monitor")
	}
	if parser.calls.Load() != 0 {
		t.Errorf("expected no cycles, got %d", parser.calls.Load())
	}
}

func TestMonitor_ResetDiscardsPendingTick(t *testing.T) {
	m, parser, _ := newTestMonitor(t, 100*time.Millisecond)
	clock := clockz.NewFakeClock()
	m.Clock(clock)

	ctx, cancel := context.WithCancel(context.Background())
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	cancel()
	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}

	// Nobody is waiting, so this tick stays buffered in the old ticker.
	clock.Advance(100 * time.Millisecond)
	clock.BlockUntilReady()

	old := m.ticker
	if err := m.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if m.ticker == old {
		t.Fatal("expected Reset to replace the ticker")
	}

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	if err := m.Start(ctx2); err != nil {
		t.Fatalf("Start after Reset failed: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if parser.calls.Load() != 0 {
		t.Errorf("expected no cycle before the next tick, got %d", parser.calls.Load())
	}
}
