package vigil

import (
	"context"
	"sync"
	"time"
)

// Outcome is how a cycle ended.
type Outcome int

const (
	// OutcomeSucceeded means the source was parsed and validated.
	OutcomeSucceeded Outcome = iota
	// OutcomeParseFailed means the parser failed; the source is unchanged.
	OutcomeParseFailed
	// OutcomeValidationFailed means the source was replaced but rejected.
	OutcomeValidationFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeParseFailed:
		return "parse-failed"
	case OutcomeValidationFailed:
		return "validation-failed"
	default:
		return "unknown"
	}
}

// Stage returns the failing stage name, or "" for a successful cycle.
func (o Outcome) Stage() string {
	switch o {
	case OutcomeParseFailed:
		return StageParse
	case OutcomeValidationFailed:
		return StageValidate
	default:
		return ""
	}
}

// Progress is delivered to OnProgress handlers exactly once per cycle, when
// the cycle reaches a terminal step.
type Progress struct {
	// Cycle is the sequence number of the cycle, starting at 1.
	Cycle uint64
	// ID is a unique identifier shared with the cycle's capitan events.
	ID       string
	Outcome  Outcome
	Err      error
	Duration time.Duration
	// Changes reports whether source and current differ after the cycle.
	Changes bool
	State   State
}

// Failed reports whether the cycle failed.
func (p Progress) Failed() bool {
	return p.Outcome != OutcomeSucceeded
}

type progressHandler func(context.Context, Progress)

// progressHub is an ordered list of progress subscribers.
type progressHub struct {
	mu       sync.Mutex
	nextID   int
	handlers []subscription
}

type subscription struct {
	id int
	fn progressHandler
}

func (h *progressHub) subscribe(fn progressHandler) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	h.handlers = append(h.handlers, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { h.unsubscribe(id) })
	}
}

func (h *progressHub) unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, s := range h.handlers {
		if s.id == id {
			h.handlers = append(h.handlers[:i:i], h.handlers[i+1:]...)
			return
		}
	}
}

// publish calls every handler in subscription order on the caller's goroutine.
func (h *progressHub) publish(ctx context.Context, p Progress) {
	h.mu.Lock()
	handlers := make([]subscription, len(h.handlers))
	copy(handlers, h.handlers)
	h.mu.Unlock()

	for _, s := range handlers {
		s.fn(ctx, p)
	}
}
