package cortex

import (
	"context"
	"sync"
)

// ShutdownSignal is a set-once flag observed by the heartbeat loop.
type ShutdownSignal struct {
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func NewShutdownSignal() *ShutdownSignal {
	ctx, cancel := context.WithCancel(context.Background())
	return &ShutdownSignal{ctx: ctx, cancel: cancel}
}

// Set raises the flag. It is never cleared.
func (s *ShutdownSignal) Set() {
	s.once.Do(s.cancel)
}

func (s *ShutdownSignal) IsSet() bool {
	return s.ctx.Err() != nil
}

// Done is closed once the flag is set.
func (s *ShutdownSignal) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Context is cancelled once the flag is set.
func (s *ShutdownSignal) Context() context.Context {
	return s.ctx
}

// Shutdown sets the shutdown signal, waits the grace period and logs the
// halt. Only the first call does any work.
func (e *Engine) Shutdown(ctx context.Context) error {
	if !e.halting.CompareAndSwap(false, true) {
		return nil
	}
	e.log.Warn().Msg("Shutdown signal received. Dumping memory...")
	e.shutdown.Set()

	err := e.clock.Sleep(ctx, e.cfg.ShutdownGrace)
	e.log.Info().Msg("System Halted.")
	e.emitShutdown(ctx)
	return err
}
