package vigil

import "github.com/zoobzio/capitan"

// Monitor lifecycle signals.
var (
	// MonitorStarted is emitted when a Monitor starts its polling loop.
	MonitorStarted = capitan.NewSignal(
		"vigil.monitor.started",
		"Monitor polling started",
	)

	// MonitorStopped is emitted when the polling loop exits.
	MonitorStopped = capitan.NewSignal(
		"vigil.monitor.stopped",
		"Monitor polling stopped",
	)

	// MonitorStateChanged is emitted when a Monitor transitions between states.
	MonitorStateChanged = capitan.NewSignal(
		"vigil.monitor.state.changed",
		"Monitor state transition",
	)

	// MonitorPromoted is emitted when the source is promoted as current.
	MonitorPromoted = capitan.NewSignal(
		"vigil.monitor.promoted",
		"Source promoted as current",
	)
)

// Cycle signals.
var (
	// CycleStarted is emitted when a read-validate cycle begins.
	CycleStarted = capitan.NewSignal(
		"vigil.cycle.started",
		"Cycle started",
	)

	// CycleParseFailed is emitted when the parser fails.
	CycleParseFailed = capitan.NewSignal(
		"vigil.cycle.parse.failed",
		"Parser failed",
	)

	// CycleValidationFailed is emitted when the validator rejects the source.
	CycleValidationFailed = capitan.NewSignal(
		"vigil.cycle.validation.failed",
		"Validation failed",
	)

	// CycleSucceeded is emitted when a cycle parses and validates its source.
	CycleSucceeded = capitan.NewSignal(
		"vigil.cycle.succeeded",
		"Cycle completed successfully",
	)
)
