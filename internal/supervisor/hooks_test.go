package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danmuck/cortex/internal/clock"
	"github.com/danmuck/cortex/internal/cortex"
	"github.com/danmuck/cortex/internal/journal"
	"github.com/danmuck/cortex/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingJournal struct {
	journal.Journal
	appends int
}

func (f *failingJournal) Append(context.Context, journal.Entry) error {
	f.appends++
	return errors.New("redis: connection refused")
}

// stuckJournal blocks every append until its context is done.
type stuckJournal struct {
	journal.Journal
}

func (stuckJournal) Append(ctx context.Context, _ journal.Entry) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestJournalHooksBoundAppendTime(t *testing.T) {
	h := JournalHooks(stuckJournal{}, clock.NewFake(time.Unix(0, 0)), testlog.Start(t))

	start := time.Now()
	h.OnTransition(context.Background(), cortex.Transition{From: cortex.StateOffline, To: cortex.StateInitializing})
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, journalAppendTimeout)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestJournalHooksStampAndRecord(t *testing.T) {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	j := journal.NewMemory(0)
	h := JournalHooks(j, clock.NewFake(start), testlog.Start(t))
	ctx := context.Background()

	h.OnHandshake(ctx, cortex.HandshakeResult{Outcome: cortex.OutcomeFallback, Attempts: 2})
	h.OnShutdown(ctx)

	entries, err := j.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, start, entries[0].At)
	assert.Equal(t, "2", entries[0].Fields["attempts"])
	assert.Equal(t, "System Halted.", entries[1].Message)
}

func TestJournalHooksAbsorbFailures(t *testing.T) {
	j := &failingJournal{}
	h := JournalHooks(j, clock.NewFake(time.Unix(0, 0)), testlog.Start(t))

	h.OnTransition(context.Background(), cortex.Transition{From: cortex.StateOffline, To: cortex.StateInitializing})
	h.OnShutdown(context.Background())
	assert.Equal(t, 2, j.appends)
}

func TestMetricsHooksNilSafe(t *testing.T) {
	h := MetricsHooks(nil)
	h.OnTick(context.Background(), 1)
	h.OnDiagnostic(context.Background(), cortex.Diagnostic{Tick: 10})
	h.OnAttempt(context.Background(), cortex.AttemptReport{Attempt: 1})
}
