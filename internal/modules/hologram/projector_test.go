package hologram

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/danmuck/cortex/internal/clock"
	"github.com/danmuck/cortex/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderFrameHeader(t *testing.T) {
	p := New(DefaultConfig(), clock.NewFake(time.Unix(0, 0)), testlog.Start(t))

	frame, err := p.RenderFrame(context.Background(), map[string]any{"speed": 12.5})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(frame, Magic))
	assert.Len(t, frame, len(Magic)+PayloadSize)
	assert.Equal(t, make([]byte, PayloadSize), frame[len(Magic):])
	assert.Len(t, Magic, 9)
}

func TestFrameBudget(t *testing.T) {
	p := New(Config{RefreshRate: 0}, nil, testlog.Start(t))
	assert.Equal(t, time.Second/240, p.FrameBudget())
	assert.NotEmpty(t, p.SessionID())
}

func TestCalibrateWaitsOnClock(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	p := New(DefaultConfig(), fc, testlog.Start(t))

	require.NoError(t, p.Calibrate(context.Background()))
	assert.Equal(t, []time.Duration{100 * time.Millisecond}, fc.Sleeps())
}

func TestRenderFrameCancelled(t *testing.T) {
	p := New(DefaultConfig(), nil, testlog.Start(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.RenderFrame(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
