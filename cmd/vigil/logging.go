package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/zoobzio/capitan"

	"github.com/zoobzio/vigil"
)

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// hookSignals forwards monitor events to the logger.
func hookSignals(logger *slog.Logger) {
	capitan.Hook(vigil.MonitorStarted, func(_ context.Context, e *capitan.Event) {
		interval, _ := vigil.KeyInterval.From(e)
		logger.Info("monitor started", "interval", interval)
	})

	capitan.Hook(vigil.MonitorStopped, func(_ context.Context, e *capitan.Event) {
		state, _ := vigil.KeyState.From(e)
		logger.Info("monitor stopped", "state", state)
	})

	capitan.Hook(vigil.MonitorStateChanged, func(_ context.Context, e *capitan.Event) {
		oldState, _ := vigil.KeyOldState.From(e)
		newState, _ := vigil.KeyNewState.From(e)
		logger.Info("state changed", "from", oldState, "to", newState)
	})

	capitan.Hook(vigil.CycleStarted, func(_ context.Context, e *capitan.Event) {
		cycle, _ := vigil.KeyCycle.From(e)
		id, _ := vigil.KeyCycleID.From(e)
		logger.Debug("cycle started", "cycle", cycle, "cycle_id", id)
	})

	failed := func(msg string) func(context.Context, *capitan.Event) {
		return func(_ context.Context, e *capitan.Event) {
			cycle, _ := vigil.KeyCycle.From(e)
			errMsg, _ := vigil.KeyError.From(e)
			logger.Warn(msg, "cycle", cycle, "error", errMsg)
		}
	}
	capitan.Hook(vigil.CycleParseFailed, failed("parse failed"))
	capitan.Hook(vigil.CycleValidationFailed, failed("validation failed"))

	capitan.Hook(vigil.CycleSucceeded, func(_ context.Context, e *capitan.Event) {
		cycle, _ := vigil.KeyCycle.From(e)
		duration, _ := vigil.KeyDuration.From(e)
		changes, _ := vigil.KeyChanges.From(e)
		logger.Debug("cycle succeeded", "cycle", cycle, "duration", duration, "changes", changes)
	})

	capitan.Hook(vigil.MonitorPromoted, func(_ context.Context, e *capitan.Event) {
		changes, _ := vigil.KeyChanges.From(e)
		logger.Debug("source promoted", "changes", changes)
	})
}
