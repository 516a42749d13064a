package cortex

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandshakeLinksOnThirdAttempt(t *testing.T) {
	e, _, rec := newTestEngine(t, testConfig())

	res := e.Handshake(context.Background())
	assert.Equal(t, HandshakeResult{Outcome: OutcomeLinked, Attempts: 3, Warnings: 0}, res)
	require.Len(t, rec.attempts, 3)
	assert.True(t, rec.attempts[2].Acked)
	assert.Equal(t, 7500*time.Microsecond, rec.attempts[2].Latency)

	st := e.Status()
	require.NotNil(t, st.Handshake)
	assert.True(t, st.Handshake.Linked())
}

func TestHandshakeFallsBackBelowAckAttempt(t *testing.T) {
	for _, retries := range []int{0, 1, 2} {
		cfg := testConfig()
		cfg.Handshake.MaxRetries = retries
		e, _, _ := newTestEngine(t, cfg)

		res := e.Handshake(context.Background())
		assert.Equal(t, OutcomeFallback, res.Outcome, "retries=%d", retries)
		assert.Equal(t, retries, res.Attempts)
	}
}

func TestHandshakeLatencyThresholdIsStrict(t *testing.T) {
	cfg := testConfig()
	cfg.Handshake.AckAttempt = 99
	cfg.Handshake.MaxRetries = 7
	e, _, _ := newTestEngine(t, cfg)

	// 5 x 2.5ms equals the threshold and does not warn; 6 and 7 do
	res := e.Handshake(context.Background())
	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.Equal(t, 7, res.Attempts)
	assert.Equal(t, 2, res.Warnings)
}

func TestHandshakeAbsorbsAttemptFailures(t *testing.T) {
	var seen []int
	flaky := LinkFunc(func(_ context.Context, seq int) error {
		seen = append(seen, seq)
		switch seq {
		case 1:
			return errors.New("bus reset")
		case 2:
			panic("driver crashed")
		}
		return nil
	})
	e, _, rec := newTestEngine(t, testConfig(), WithLink(flaky))

	res := e.Handshake(context.Background())
	assert.Equal(t, OutcomeLinked, res.Outcome)
	assert.Equal(t, []int{1, 2, 3}, seen)
	require.Len(t, rec.attempts, 3)
	assert.Error(t, rec.attempts[0].Err)
	assert.ErrorIs(t, rec.attempts[1].Err, ErrExchangePanic)
	assert.NoError(t, rec.attempts[2].Err)
}

func TestHandshakeFailedAckAttemptFallsBack(t *testing.T) {
	failing := LinkFunc(func(_ context.Context, seq int) error {
		if seq == 3 {
			return errors.New("checksum mismatch")
		}
		return nil
	})
	e, _, _ := newTestEngine(t, testConfig(), WithLink(failing))

	res := e.Handshake(context.Background())
	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.Equal(t, 5, res.Attempts)
}

func TestHandshakeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	link := LinkFunc(func(context.Context, int) error {
		calls++
		cancel()
		return nil
	})
	var buf bytes.Buffer
	e, _, _ := newTestEngine(t, testConfig(), WithLink(link), captureLog(&buf))

	res := e.Handshake(ctx)
	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.Equal(t, 1, calls)
	assert.Contains(t, buf.String(), "Handshake interrupted")
	assert.NotContains(t, buf.String(), "FALLBACK mode")
}

func TestHandshakeExhaustionLogsFallback(t *testing.T) {
	cfg := testConfig()
	cfg.Handshake.MaxRetries = 2
	var buf bytes.Buffer
	e, _, _ := newTestEngine(t, cfg, captureLog(&buf))

	res := e.Handshake(context.Background())
	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.Contains(t, buf.String(), "[ERROR] Could not verify Mech Driver. Running in FALLBACK mode.")
}
