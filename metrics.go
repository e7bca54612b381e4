package vigil

import "time"

// Cycle stages reported to MetricsProvider.OnCycleFailure.
const (
	StageParse    = "parse"
	StageValidate = "validate"
)

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on key monitor events.
type MetricsProvider interface {
	// OnStateChange is called when the monitor transitions between states.
	OnStateChange(from, to State)

	// OnCycleSuccess is called when a cycle parses and validates its source.
	// Duration is the time taken by the whole cycle.
	OnCycleSuccess(duration time.Duration)

	// OnCycleFailure is called when a cycle fails.
	// Stage is StageParse or StageValidate.
	OnCycleFailure(stage string, duration time.Duration)

	// OnPromote is called after the source is promoted as current. Changes
	// reports whether source and current still differ afterwards.
	OnPromote(changes bool)
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnStateChange(_, _ State)                 {}
func (NoOpMetricsProvider) OnCycleSuccess(_ time.Duration)           {}
func (NoOpMetricsProvider) OnCycleFailure(_ string, _ time.Duration) {}
func (NoOpMetricsProvider) OnPromote(_ bool)                         {}
