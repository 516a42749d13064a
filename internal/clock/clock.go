// Package clock provides the time source used by every timed step of the
// cortex lifecycle.
//
// Production code uses Real. Tests use Fake so phase durations, handshake
// exchanges and heartbeat ticks resolve instantly and deterministically.
package clock

import (
	"context"
	"time"
)

// Clock is the suspension-point abstraction for cooperative waits.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration) error
}

// Real is the wall-clock implementation.
type Real struct{}

// New returns the wall-clock implementation.
func New() Real {
	return Real{}
}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
