package vigil

import "context"

// Comparable is the capability a monitored value must provide: structural
// equality and an independent deep copy.
//
// Implementations are typically pointer types. Equal must treat nested
// collections element-wise and in order, and Clone must copy deeply enough
// that mutating the copy never affects the original.
type Comparable[T any] interface {
	Equal(other T) bool
	Clone() T
}

// Parser produces a fully formed value from an external source.
// Failures should be reported as *ParseError wrapping the cause.
type Parser[T any] interface {
	Parse(ctx context.Context) (T, error)
}

// Validator inspects a value and rejects it when it violates domain rules.
// Failures should be reported as *ValidationError.
type Validator[T any] interface {
	Validate(value T) error
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc[T any] func(ctx context.Context) (T, error)

// Parse calls f(ctx).
func (f ParserFunc[T]) Parse(ctx context.Context) (T, error) {
	return f(ctx)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc[T any] func(value T) error

// Validate calls f(value).
func (f ValidatorFunc[T]) Validate(value T) error {
	return f(value)
}

// Validators runs each validator in order and returns the first failure.
type Validators[T any] []Validator[T]

// Validate implements Validator.
func (vs Validators[T]) Validate(value T) error {
	for _, v := range vs {
		if err := v.Validate(value); err != nil {
			return err
		}
	}
	return nil
}

// Accept returns a validator that accepts every value.
func Accept[T any]() Validator[T] {
	return ValidatorFunc[T](func(T) error { return nil })
}
