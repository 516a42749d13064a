package supervisor

import (
	"context"
	"strconv"
	"time"

	"github.com/danmuck/cortex/internal/clock"
	"github.com/danmuck/cortex/internal/cortex"
	"github.com/danmuck/cortex/internal/journal"
	"github.com/danmuck/cortex/internal/observability"
	"github.com/rs/zerolog"
)

// MetricsHooks feeds lifecycle events into m.
func MetricsHooks(m *observability.Metrics) cortex.Hooks {
	return cortex.Hooks{
		OnTransition: func(_ context.Context, t cortex.Transition) {
			m.RecordTransition(t.From.String(), t.To.String(), int(t.To))
		},
		OnPhase: func(_ context.Context, r cortex.PhaseReport) {
			m.RecordPhase(r.Phase, r.Duration)
		},
		OnAttempt: func(_ context.Context, r cortex.AttemptReport) {
			m.RecordHandshakeAttempt(r.Err == nil)
		},
		OnHandshake: func(_ context.Context, r cortex.HandshakeResult) {
			m.RecordHandshakeOutcome(r.Outcome)
		},
		OnTick: func(context.Context, uint64) {
			m.RecordTick()
		},
		OnDiagnostic: func(_ context.Context, d cortex.Diagnostic) {
			m.RecordDiagnostic()
			m.SetMemoryBlocks(d.MemoryBlocks)
		},
	}
}

// journalAppendTimeout caps how long a single append may hold up the engine.
const journalAppendTimeout = 250 * time.Millisecond

// JournalHooks records transitions, handshakes, diagnostics and shutdown in
// j. Each append gets journalAppendTimeout regardless of ctx; failures are
// logged and dropped.
func JournalHooks(j journal.Journal, c clock.Clock, log zerolog.Logger) cortex.Hooks {
	record := func(ctx context.Context, e journal.Entry) {
		if e.At.IsZero() {
			e.At = c.Now()
		}
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalAppendTimeout)
		defer cancel()
		if err := j.Append(actx, e); err != nil {
			log.Warn().Err(err).Str("kind", string(e.Kind)).Msg("journal append failed")
		}
	}
	return cortex.Hooks{
		OnTransition: func(ctx context.Context, t cortex.Transition) {
			record(ctx, journal.Entry{
				At:   t.At,
				Kind: journal.KindTransition,
				From: t.From.String(),
				To:   t.To.String(),
			})
		},
		OnHandshake: func(ctx context.Context, r cortex.HandshakeResult) {
			record(ctx, journal.Entry{
				Kind:    journal.KindHandshake,
				Message: r.Outcome,
				Fields: map[string]string{
					"outcome":  r.Outcome,
					"attempts": strconv.Itoa(r.Attempts),
					"warnings": strconv.Itoa(r.Warnings),
				},
			})
		},
		OnDiagnostic: func(ctx context.Context, d cortex.Diagnostic) {
			record(ctx, journal.Entry{
				At:      d.At,
				Kind:    journal.KindDiagnostic,
				Message: "heartbeat",
				Fields: map[string]string{
					"tick":   strconv.FormatUint(d.Tick, 10),
					"state":  d.State.String(),
					"blocks": strconv.Itoa(d.MemoryBlocks),
					"load":   strconv.Itoa(d.LoadPercent),
				},
			})
		},
		OnShutdown: func(ctx context.Context) {
			record(ctx, journal.Entry{Kind: journal.KindShutdown, Message: "System Halted."})
		},
	}
}
