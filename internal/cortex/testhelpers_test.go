package cortex

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/cortex/internal/clock"
	"github.com/danmuck/cortex/internal/logging"
	"github.com/danmuck/cortex/internal/testutil/testlog"
	"github.com/rs/zerolog"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// recorder captures hook events in order.
type recorder struct {
	mu          sync.Mutex
	transitions []Transition
	phases      []PhaseReport
	attempts    []AttemptReport
	handshakes  []HandshakeResult
	ticks       []uint64
	diagnostics []Diagnostic
	shutdowns   int
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnTransition: func(_ context.Context, t Transition) {
			r.mu.Lock()
			r.transitions = append(r.transitions, t)
			r.mu.Unlock()
		},
		OnPhase: func(_ context.Context, p PhaseReport) {
			r.mu.Lock()
			r.phases = append(r.phases, p)
			r.mu.Unlock()
		},
		OnAttempt: func(_ context.Context, a AttemptReport) {
			r.mu.Lock()
			r.attempts = append(r.attempts, a)
			r.mu.Unlock()
		},
		OnHandshake: func(_ context.Context, h HandshakeResult) {
			r.mu.Lock()
			r.handshakes = append(r.handshakes, h)
			r.mu.Unlock()
		},
		OnTick: func(_ context.Context, tick uint64) {
			r.mu.Lock()
			r.ticks = append(r.ticks, tick)
			r.mu.Unlock()
		},
		OnDiagnostic: func(_ context.Context, d Diagnostic) {
			r.mu.Lock()
			r.diagnostics = append(r.diagnostics, d)
			r.mu.Unlock()
		},
		OnShutdown: func(context.Context) {
			r.mu.Lock()
			r.shutdowns++
			r.mu.Unlock()
		},
	}
}

func (r *recorder) states() []SystemState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []SystemState{StateOffline}
	for _, t := range r.transitions {
		out = append(out, t.To)
	}
	return out
}

func (r *recorder) diagnosticTicks() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint64, 0, len(r.diagnostics))
	for _, d := range r.diagnostics {
		out = append(out, d.Tick)
	}
	return out
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.CoreID = "TESTCORE"
	cfg.BlockSize = 16
	return cfg
}

func newTestEngine(t *testing.T, cfg Config, opts ...Option) (*Engine, *clock.Fake, *recorder) {
	t.Helper()
	fake := clock.NewFake(epoch)
	rec := &recorder{}
	base := []Option{
		WithLogger(testlog.Start(t)),
		WithClock(fake),
		WithHooks(rec.hooks()),
	}
	e, err := NewEngine(cfg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e, fake, rec
}

// captureLog returns an option routing engine logs at debug into buf.
func captureLog(buf *bytes.Buffer) Option {
	cfg := logging.DefaultConfig(logging.ProfileTest)
	cfg.Out = buf
	cfg.NoColor = true
	cfg.Level = zerolog.DebugLevel
	return WithLogger(logging.New(cfg))
}
