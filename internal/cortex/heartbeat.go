package cortex

import (
	"context"
	"fmt"
)

// Run is the heartbeat loop. It ticks once per HeartbeatInterval, emits a
// diagnostic every DiagnosticEvery ticks, and returns nil once the shutdown
// signal is set. Cancelling ctx returns ctx's error.
func (e *Engine) Run(ctx context.Context) error {
	if st := e.State(); !st.Operational() {
		return fmt.Errorf("%w: state %s", ErrNotActive, st)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(e.shutdown.Context(), cancel)
	defer stop()

	every := uint64(e.cfg.DiagnosticEvery)
	for !e.shutdown.IsSet() {
		if err := ctx.Err(); err != nil {
			return err
		}
		tick := e.ticks.Add(1)
		e.emitTick(ctx, tick)
		if tick%every == 0 {
			e.diagnose(ctx, tick)
		}

		if err := e.clock.Sleep(runCtx, e.cfg.HeartbeatInterval); err != nil {
			if e.shutdown.IsSet() {
				return nil
			}
			return err
		}
	}
	return nil
}

func (e *Engine) diagnose(ctx context.Context, tick uint64) {
	d := Diagnostic{
		Tick:         tick,
		State:        e.State(),
		MemoryBlocks: e.MemoryBlockCount(),
		LoadPercent:  e.cfg.LoadPercent,
		At:           e.clock.Now(),
	}
	e.log.Info().Msgf("HEARTBEAT | Status: %s | Mem: %d blocks | Load: %d%%", d.State, d.MemoryBlocks, d.LoadPercent)
	e.emitDiagnostic(ctx, d)
}
