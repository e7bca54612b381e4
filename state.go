package vigil

// State represents the health of a Monitor, derived from the outcome of the
// most recent cycle.
type State int32

const (
	// StateLoading indicates the Monitor has not completed any cycle yet.
	StateLoading State = iota

	// StateHealthy indicates the last cycle parsed and validated its source.
	StateHealthy

	// StateDegraded indicates the last cycle failed while a previously parsed
	// source is still held.
	StateDegraded

	// StateEmpty indicates the last cycle failed and no source has ever been
	// parsed. The Monitor keeps polling for a valid source.
	StateEmpty
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Phase is the step a cycle is currently executing.
type Phase int32

const (
	// PhaseIdle means no cycle is running.
	PhaseIdle Phase = iota
	// PhaseParsing means the parser is being invoked.
	PhaseParsing
	// PhaseValidating means the validator is being invoked.
	PhaseValidating
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseParsing:
		return "parsing"
	case PhaseValidating:
		return "validating"
	default:
		return "unknown"
	}
}

// Status is the lifecycle of the monitoring loop started by Start.
type Status int32

const (
	// StatusNotStarted means Start has not been called (or Reset was called).
	StatusNotStarted Status = iota
	// StatusRunning means the loop is waiting for or executing ticks.
	StatusRunning
	// StatusStopped means the loop exited after cancellation or Close.
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not-started"
	case StatusRunning:
		return "running"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
