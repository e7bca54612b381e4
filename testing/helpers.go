// Package testing provides test utilities and helpers for vigil monitors.
package testing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/vigil"
)

// Setting is a small Comparable value for exercising monitors in tests.
type Setting struct {
	Name   string   `yaml:"name" json:"name"`
	Values []string `yaml:"values" json:"values"`
}

// Equal implements vigil.Comparable.
func (s *Setting) Equal(other *Setting) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Name != other.Name || len(s.Values) != len(other.Values) {
		return false
	}
	if (s.Values == nil) != (other.Values == nil) {
		return false
	}
	for i := range s.Values {
		if s.Values[i] != other.Values[i] {
			return false
		}
	}
	return true
}

// Clone implements vigil.Comparable.
func (s *Setting) Clone() *Setting {
	if s == nil {
		return nil
	}
	out := &Setting{Name: s.Name}
	if s.Values != nil {
		out.Values = append([]string{}, s.Values...)
	}
	return out
}

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

// WaitForState waits until the monitor reaches the expected state or timeout occurs.
func WaitForState[T vigil.Comparable[T]](t *testing.T, m *vigil.Monitor[T], expected vigil.State, timeout time.Duration) bool {
	t.Helper()
	return WaitFor(t, timeout, func() bool {
		return m.State() == expected
	})
}

// RequireState fails the test immediately if the monitor is not in the expected state.
func RequireState[T vigil.Comparable[T]](t *testing.T, m *vigil.Monitor[T], expected vigil.State) {
	t.Helper()
	if got := m.State(); got != expected {
		t.Fatalf("expected state %s, got %s", expected, got)
	}
}

// RequireSource fails the test if Source() is empty or does not pass check.
func RequireSource[T vigil.Comparable[T]](t *testing.T, m *vigil.Monitor[T], check func(T) bool) {
	t.Helper()
	v, ok := m.Source()
	if !ok {
		t.Fatal("expected source to be present, got none")
	}
	if !check(v) {
		t.Fatalf("source check failed: %+v", v)
	}
}

// RequireCurrent fails the test if Current() is empty or does not pass check.
func RequireCurrent[T vigil.Comparable[T]](t *testing.T, m *vigil.Monitor[T], check func(T) bool) {
	t.Helper()
	v, ok := m.Current()
	if !ok {
		t.Fatal("expected current to be present, got none")
	}
	if !check(v) {
		t.Fatalf("current check failed: %+v", v)
	}
}

// Recorder collects Progress notifications from a monitor.
type Recorder struct {
	mu   sync.Mutex
	seen []vigil.Progress
}

// Record subscribes a new Recorder to m. The subscription ends with the test.
func Record[T vigil.Comparable[T]](t *testing.T, m *vigil.Monitor[T]) *Recorder {
	t.Helper()
	r := &Recorder{}
	t.Cleanup(m.OnProgress(r.handle))
	return r
}

func (r *Recorder) handle(_ context.Context, p vigil.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, p)
}

// All returns a copy of every notification seen so far.
func (r *Recorder) All() []vigil.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]vigil.Progress, len(r.seen))
	copy(out, r.seen)
	return out
}

// Count returns how many notifications had the given outcome.
func (r *Recorder) Count(outcome vigil.Outcome) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.seen {
		if p.Outcome == outcome {
			n++
		}
	}
	return n
}

// Last returns the most recent notification.
func (r *Recorder) Last() (vigil.Progress, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.seen) == 0 {
		return vigil.Progress{}, false
	}
	return r.seen[len(r.seen)-1], true
}
