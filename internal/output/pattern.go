package output

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-powerstrip/internal/clock"
)

// Step holds the indicator in one state for a duration.
type Step struct {
	On  bool
	For time.Duration
}

// Pattern is a blink code played on the indicator.
type Pattern []Step

// Blink returns a pattern of n on/off pulses.
func Blink(n int, on, off time.Duration) Pattern {
	p := make(Pattern, 0, 2*n)
	for i := 0; i < n; i++ {
		p = append(p, Step{On: true, For: on}, Step{On: false, For: off})
	}
	return p
}

// Then appends other to p.
func (p Pattern) Then(other Pattern) Pattern {
	out := make(Pattern, 0, len(p)+len(other))
	out = append(out, p...)
	return append(out, other...)
}

// Duration is the total time the pattern takes to play.
func (p Pattern) Duration() time.Duration {
	var total time.Duration
	for _, s := range p {
		total += s.For
	}
	return total
}

// Standard indicator codes.
var (
	// IdentifyPattern answers a controller's identify request.
	IdentifyPattern = Blink(2, 100*time.Millisecond, 100*time.Millisecond).
			Then(Pattern{{On: false, For: 400 * time.Millisecond}}).
			Then(Blink(2, 100*time.Millisecond, 100*time.Millisecond))

	// FactoryResetPattern announces that credentials are about to be erased.
	FactoryResetPattern = Blink(4, 500*time.Millisecond, 200*time.Millisecond)
)

// Play drives port through pattern and leaves it off. It returns early with
// ctx.Err() if ctx is cancelled between steps. Write errors are returned
// immediately.
func Play(ctx context.Context, clk clock.Clock, port Port, pattern Pattern) error {
	defer port.Write(false) //nolint:errcheck // Best effort: leave indicator dark

	for _, step := range pattern {
		if err := port.Write(step.On); err != nil {
			return err
		}
		if err := clk.Sleep(ctx, step.For); err != nil {
			return err
		}
	}
	return nil
}
