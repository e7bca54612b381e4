package vigil

import (
	"context"
	"time"

	"github.com/zoobzio/clockz"
)

const maxBackoff = time.Minute

// WithParseTimeout bounds every Parse call of p by d. The context passed to
// p is canceled when d elapses; p is expected to honor it.
//
// A nil clock means clockz.RealClock.
func WithParseTimeout[T any](p Parser[T], d time.Duration, clock clockz.Clock) Parser[T] {
	if clock == nil {
		clock = clockz.RealClock
	}
	return ParserFunc[T](func(ctx context.Context) (T, error) {
		ctx, cancel := clock.WithTimeout(ctx, d)
		defer cancel()
		return p.Parse(ctx)
	})
}

// WithParseBackoff retries failed Parse calls of p up to attempts times in
// total. The delay starts at baseDelay and doubles after each failure, capped
// at one minute. Retries stop when the context is canceled, and the last
// error is returned.
//
// Useful for sources that are briefly unreadable while being rewritten.
// A nil clock means clockz.RealClock.
func WithParseBackoff[T any](p Parser[T], attempts int, baseDelay time.Duration, clock clockz.Clock) Parser[T] {
	if clock == nil {
		clock = clockz.RealClock
	}
	if attempts < 1 {
		attempts = 1
	}
	return ParserFunc[T](func(ctx context.Context) (T, error) {
		delay := baseDelay
		var (
			value T
			err   error
		)
		for attempt := 1; ; attempt++ {
			value, err = p.Parse(ctx)
			if err == nil || attempt >= attempts {
				return value, err
			}

			timer := clock.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return value, err
			case <-timer.C():
			}
			delay = min(delay*2, maxBackoff)
		}
	})
}
