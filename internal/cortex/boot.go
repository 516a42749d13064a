package cortex

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"
)

// Boot runs the hardware, weight and handshake phases in order and leaves
// the engine ACTIVE. It may be called once. A phase error faults the engine
// to ERROR; cancellation of ctx returns ctx's error without faulting.
func (e *Engine) Boot(ctx context.Context) error {
	if err := e.transition(ctx, StateInitializing); err != nil {
		return err
	}
	e.mu.Lock()
	e.bootStart = e.clock.Now()
	e.mu.Unlock()
	e.log.Info().Msg("Beginning Boot Sequence...")

	if err := e.runPhase(ctx, PhaseHardwareCheck, e.checkHardware); err != nil {
		return e.bootFailed(ctx, err)
	}

	if err := e.transition(ctx, StateCalibrating); err != nil {
		return err
	}
	if err := e.runPhase(ctx, PhaseWeightLoading, e.loadWeights); err != nil {
		return e.bootFailed(ctx, err)
	}

	if err := e.transition(ctx, StateSyncing); err != nil {
		return err
	}
	err := e.runPhase(ctx, PhaseHandshake, func(ctx context.Context) error {
		res := e.Handshake(ctx)
		if res.Outcome == OutcomeFallback && ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	})
	if err != nil {
		return e.bootFailed(ctx, err)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("boot interrupted: %w", err)
	}
	if err := e.transition(ctx, StateActive); err != nil {
		return err
	}
	e.mu.Lock()
	e.bootDone = e.clock.Now()
	e.mu.Unlock()
	e.log.Info().Msg("Cortex is ACTIVE. Listening for input vectors.")
	return nil
}

// runPhase applies the per-phase deadline and reports the outcome.
func (e *Engine) runPhase(ctx context.Context, name string, fn func(context.Context) error) error {
	phaseCtx := ctx
	if e.cfg.PhaseTimeout > 0 {
		var cancel context.CancelFunc
		phaseCtx, cancel = context.WithTimeout(ctx, e.cfg.PhaseTimeout)
		defer cancel()
	}

	start := e.clock.Now()
	err := fn(phaseCtx)
	if err == nil && phaseCtx.Err() != nil && ctx.Err() == nil {
		err = phaseCtx.Err()
	}
	if err != nil {
		err = fmt.Errorf("phase %s: %w", name, err)
	}
	e.emitPhase(ctx, PhaseReport{Phase: name, Duration: e.clock.Now().Sub(start), Err: err})
	return err
}

func (e *Engine) bootFailed(ctx context.Context, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, ctx.Err())) {
		return fmt.Errorf("boot interrupted: %w", err)
	}
	if ferr := e.Fault(ctx, err); ferr != nil {
		return errors.Join(err, ferr)
	}
	return err
}

func (e *Engine) checkHardware(ctx context.Context) error {
	e.log.Info().Msg("Scanning for acceleration hardware...")
	for _, hc := range e.cfg.HardwareChecks {
		e.log.Debug().Msgf("EXEC: %s...", hc.Name)
		if err := e.clock.Sleep(ctx, hc.Duration); err != nil {
			return fmt.Errorf("%s: %w", hc.Name, err)
		}
	}
	e.log.Info().Msg("Hardware integrity verified. All systems NOMINAL.")
	return nil
}

func (e *Engine) loadWeights(ctx context.Context) error {
	for _, artifact := range e.cfg.WeightArtifacts {
		e.log.Info().Msgf("Loading weights from %s...", path.Join(e.cfg.ModelRoot, artifact))
		start := e.clock.Now()
		if err := e.clock.Sleep(ctx, e.cfg.WeightLoadDelay); err != nil {
			return fmt.Errorf("%s: %w", artifact, err)
		}
		elapsed := e.clock.Now().Sub(start)
		e.log.Info().Msgf("Loaded %s in %.2fms. Checksum valid.", artifact, float64(elapsed)/float64(time.Millisecond))
	}
	return nil
}
