package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealSleepHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := New().Sleep(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRealSleepCompletes(t *testing.T) {
	err := New().Sleep(context.Background(), time.Millisecond)
	require.NoError(t, err)
}

func TestFakeSleepAdvancesAndRecords(t *testing.T) {
	start := time.Date(2045, 1, 1, 0, 0, 0, 0, time.UTC)
	fc := NewFake(start)

	require.NoError(t, fc.Sleep(context.Background(), 200*time.Millisecond))
	require.NoError(t, fc.Sleep(context.Background(), 300*time.Millisecond))

	assert.Equal(t, start.Add(500*time.Millisecond), fc.Now())
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 300 * time.Millisecond}, fc.Sleeps())
	assert.Equal(t, 500*time.Millisecond, fc.Elapsed())
}

func TestFakeSleepHookAndCancelledContext(t *testing.T) {
	fc := NewFake(time.Unix(0, 0))
	calls := 0
	fc.OnSleep(func(d time.Duration) {
		calls++
		_ = fc.Now()
	})

	require.NoError(t, fc.Sleep(context.Background(), time.Second))
	assert.Equal(t, 1, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, fc.Sleep(ctx, time.Second), context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Len(t, fc.Sleeps(), 1)
}
