package cortex

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownSignalSetOnce(t *testing.T) {
	s := NewShutdownSignal()
	assert.False(t, s.IsSet())
	s.Set()
	s.Set()
	assert.True(t, s.IsSet())
	select {
	case <-s.Done():
	default:
		t.Fatalf("done channel not closed")
	}
}

func TestShutdownIdempotent(t *testing.T) {
	e, fake, rec := newTestEngine(t, testConfig())

	require.NoError(t, e.Shutdown(context.Background()))
	require.NoError(t, e.Shutdown(context.Background()))

	assert.Equal(t, 1, rec.shutdowns)
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, fake.Sleeps())
	assert.True(t, e.Status().ShuttingDown)
}

func TestEscalateAndStandDown(t *testing.T) {
	e, _, rec := newTestEngine(t, testConfig())
	require.ErrorIs(t, e.Escalate(context.Background()), ErrLifecycleOrder)

	require.NoError(t, e.Boot(context.Background()))
	require.NoError(t, e.Escalate(context.Background()))
	assert.Equal(t, StateCombatReady, e.State())
	require.ErrorIs(t, e.Escalate(context.Background()), ErrLifecycleOrder)

	require.NoError(t, e.StandDown(context.Background()))
	assert.Equal(t, StateActive, e.State())
	require.ErrorIs(t, e.StandDown(context.Background()), ErrLifecycleOrder)

	states := rec.states()
	assert.Equal(t, []SystemState{StateActive, StateCombatReady, StateActive}, states[len(states)-3:])
}

func TestFaultIsTerminal(t *testing.T) {
	e, _, _ := newTestEngine(t, testConfig())
	require.NoError(t, e.Boot(context.Background()))

	require.NoError(t, e.Fault(context.Background(), assert.AnError))
	assert.Equal(t, StateError, e.State())
	require.ErrorIs(t, e.Fault(context.Background(), assert.AnError), ErrLifecycleOrder)
	require.ErrorIs(t, e.StandDown(context.Background()), ErrLifecycleOrder)
	require.ErrorIs(t, e.Run(context.Background()), ErrNotActive)
}

func TestRunCombatReadyKeepsTicking(t *testing.T) {
	var e *Engine
	stop := Hooks{OnTick: func(ctx context.Context, tick uint64) {
		if tick == 10 {
			e.ShutdownSignal().Set()
		}
	}}
	e, _, rec := newTestEngine(t, testConfig(), WithHooks(stop))
	require.NoError(t, e.Boot(context.Background()))
	require.NoError(t, e.Escalate(context.Background()))

	require.NoError(t, e.Run(context.Background()))
	require.Len(t, rec.diagnostics, 1)
	assert.Equal(t, StateCombatReady, rec.diagnostics[0].State)
}
