package cortex

import (
	"context"
	"fmt"
	"time"

	"github.com/danmuck/cortex/internal/clock"
	"github.com/rs/zerolog"
)

// Handshake outcomes.
const (
	OutcomeLinked   = "linked"
	OutcomeFallback = "fallback"
)

// HandshakeResult is the terminal outcome of the driver handshake.
type HandshakeResult struct {
	Outcome  string `json:"outcome"`
	Attempts int    `json:"attempts"`
	Warnings int    `json:"warnings"`
}

// Linked reports whether the driver acknowledged.
func (r HandshakeResult) Linked() bool {
	return r.Outcome == OutcomeLinked
}

// Link performs one exchange with the mech driver.
type Link interface {
	Exchange(ctx context.Context, seq int) error
}

// LinkFunc adapts a function to Link.
type LinkFunc func(ctx context.Context, seq int) error

func (f LinkFunc) Exchange(ctx context.Context, seq int) error {
	return f(ctx, seq)
}

type simulatedLink struct {
	clock    clock.Clock
	delay    time.Duration
	endpoint string
	log      zerolog.Logger
}

func (l *simulatedLink) Exchange(ctx context.Context, seq int) error {
	l.log.Debug().Msgf("Packet sent to %s (Seq: %d)", l.endpoint, seq)
	return l.clock.Sleep(ctx, l.delay)
}

// Handshake attempts to link with the mech driver up to MaxRetries times.
// Attempt errors are absorbed; exhaustion yields the fallback outcome.
func (e *Engine) Handshake(ctx context.Context) HandshakeResult {
	hc := e.cfg.Handshake
	e.log.Warn().Msg("Attempting handshake with Low-Level Driver (Rust)...")

	res := HandshakeResult{Outcome: OutcomeFallback}
	for attempt := 1; attempt <= hc.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			break
		}
		res.Attempts = attempt

		latency := time.Duration(attempt) * hc.LatencyStep
		if latency > hc.LatencyThreshold {
			res.Warnings++
			e.log.Warn().Dur("latency", latency).Msg("High latency detected on IPC bus")
		}

		err := e.exchange(ctx, attempt)
		acked := err == nil && attempt == hc.AckAttempt
		e.emitAttempt(ctx, AttemptReport{Attempt: attempt, Latency: latency, Err: err, Acked: acked})
		if err != nil {
			e.log.Error().Err(err).Int("attempt", attempt).Msg("Handshake failed")
			continue
		}
		if acked {
			e.log.Info().Msg("ACK received from Mech Driver. Link ESTABLISHED.")
			res.Outcome = OutcomeLinked
			break
		}
	}

	switch {
	case res.Linked():
	case ctx.Err() != nil:
		e.log.Warn().Int("attempts", res.Attempts).Msg("Handshake interrupted")
	default:
		e.log.Error().Msg("Could not verify Mech Driver. Running in FALLBACK mode.")
	}

	e.mu.Lock()
	stored := res
	e.handshake = &stored
	e.mu.Unlock()
	e.emitHandshake(ctx, res)
	return res
}

func (e *Engine) exchange(ctx context.Context, seq int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrExchangePanic, r)
		}
	}()
	return e.link.Exchange(ctx, seq)
}
