package vigil

import (
	"errors"
	"fmt"
)

// Sentinel errors returned for caller misuse. Compare with errors.Is.
var (
	// ErrInvalidArgument is returned when an argument has an unusable value,
	// such as a non-positive interval or a context that can never be canceled.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMissingDependency is returned when a required collaborator is nil.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrAlreadyStarted is returned by Start when the monitor was started before
	// and has not been Reset since.
	ErrAlreadyStarted = errors.New("monitor already started")

	// ErrStillRunning is returned by Reset while the monitoring loop is running.
	ErrStillRunning = errors.New("monitor still running")

	// ErrNilValue is returned by parsers that decode to nothing.
	ErrNilValue = errors.New("decoded value is nil")
)

// ParseError reports a failure to produce a value from a source. The
// underlying cause is always available through errors.Unwrap.
type ParseError struct {
	// Source names where the data was read from, typically a file name.
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("parse failed: %v", e.Err)
	}
	return fmt.Sprintf("unable to parse %q: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError reports a value that violates a domain rule. Field is the
// path of the offending field (for example "Articles[1].Author") and may be
// empty when the whole value is rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + " " + e.Reason
}

// invalidArgument builds an ErrInvalidArgument naming the argument.
func invalidArgument(name, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidArgument, name, reason)
}

// missingDependency builds an ErrMissingDependency naming the argument.
func missingDependency(name string) error {
	return fmt.Errorf("%w: %s is nil", ErrMissingDependency, name)
}
