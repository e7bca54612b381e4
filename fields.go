package vigil

import "github.com/zoobzio/capitan"

// Field keys for Monitor events.
var (
	// KeyState is the current state of the Monitor.
	KeyState = capitan.NewStringKey("state")

	// KeyOldState is the previous state before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the new state after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeyStatus is the lifecycle status of the polling loop.
	KeyStatus = capitan.NewStringKey("status")

	// KeyError is the error message when a cycle fails.
	KeyError = capitan.NewStringKey("error")

	// KeyInterval is the configured polling interval.
	KeyInterval = capitan.NewDurationKey("interval")

	// KeyCycle is the sequence number of a cycle.
	KeyCycle = capitan.NewIntKey("cycle")

	// KeyCycleID correlates all events of one cycle.
	KeyCycleID = capitan.NewStringKey("cycle_id")

	// KeyDuration is how long a cycle took.
	KeyDuration = capitan.NewDurationKey("duration")

	// KeyChanges is "true" when source and current differ after the event.
	KeyChanges = capitan.NewStringKey("changes")
)
