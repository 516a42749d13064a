package cortex

import (
	"context"
	"time"
)

// Boot phase names reported to hooks.
const (
	PhaseHardwareCheck = "hardware_check"
	PhaseWeightLoading = "weight_loading"
	PhaseHandshake     = "driver_handshake"
)

// PhaseReport describes one completed or failed boot phase.
type PhaseReport struct {
	Phase    string
	Duration time.Duration
	Err      error
}

// AttemptReport describes one handshake attempt.
type AttemptReport struct {
	Attempt int
	Latency time.Duration
	Err     error
	Acked   bool
}

// Diagnostic is the periodic heartbeat summary.
type Diagnostic struct {
	Tick         uint64
	State        SystemState
	MemoryBlocks int
	LoadPercent  int
	At           time.Time
}

// Hooks observe the lifecycle. Any field may be nil. Hooks run on the
// caller's goroutine with no engine lock held.
type Hooks struct {
	OnTransition func(context.Context, Transition)
	OnPhase      func(context.Context, PhaseReport)
	OnAttempt    func(context.Context, AttemptReport)
	OnHandshake  func(context.Context, HandshakeResult)
	OnTick       func(context.Context, uint64)
	OnDiagnostic func(context.Context, Diagnostic)
	OnShutdown   func(context.Context)
}

func (e *Engine) emitTransition(ctx context.Context, t Transition) {
	for _, h := range e.hooks {
		if h.OnTransition != nil {
			h.OnTransition(ctx, t)
		}
	}
}

func (e *Engine) emitPhase(ctx context.Context, r PhaseReport) {
	for _, h := range e.hooks {
		if h.OnPhase != nil {
			h.OnPhase(ctx, r)
		}
	}
}

func (e *Engine) emitAttempt(ctx context.Context, r AttemptReport) {
	for _, h := range e.hooks {
		if h.OnAttempt != nil {
			h.OnAttempt(ctx, r)
		}
	}
}

func (e *Engine) emitHandshake(ctx context.Context, r HandshakeResult) {
	for _, h := range e.hooks {
		if h.OnHandshake != nil {
			h.OnHandshake(ctx, r)
		}
	}
}

func (e *Engine) emitTick(ctx context.Context, tick uint64) {
	for _, h := range e.hooks {
		if h.OnTick != nil {
			h.OnTick(ctx, tick)
		}
	}
}

func (e *Engine) emitDiagnostic(ctx context.Context, d Diagnostic) {
	for _, h := range e.hooks {
		if h.OnDiagnostic != nil {
			h.OnDiagnostic(ctx, d)
		}
	}
}

func (e *Engine) emitShutdown(ctx context.Context) {
	for _, h := range e.hooks {
		if h.OnShutdown != nil {
			h.OnShutdown(ctx)
		}
	}
}
