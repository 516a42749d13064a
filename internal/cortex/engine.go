package cortex

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/cortex/internal/clock"
	"github.com/rs/zerolog"
)

// Engine runs the cortex lifecycle: allocation at construction, Boot, the
// heartbeat Run loop, and Shutdown.
type Engine struct {
	cfg   Config
	log   zerolog.Logger
	clock clock.Clock
	alloc BlockAllocator
	link  Link
	hooks []Hooks

	mu        sync.RWMutex
	state     SystemState
	memory    map[string]*MemoryBlock
	nodes     map[string]NeuralNode
	processes []VectorProcess
	handshake *HandshakeResult
	bootStart time.Time
	bootDone  time.Time

	ticks    atomic.Uint64
	shutdown *ShutdownSignal
	halting  atomic.Bool
}

type Option func(*Engine)

func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

func WithAllocator(a BlockAllocator) Option {
	return func(e *Engine) {
		if a != nil {
			e.alloc = a
		}
	}
}

// WithLink replaces the simulated driver link.
func WithLink(l Link) Option {
	return func(e *Engine) {
		e.link = l
	}
}

// WithHooks appends lifecycle observers.
func WithHooks(h Hooks) Option {
	return func(e *Engine) {
		e.hooks = append(e.hooks, h)
	}
}

// NewEngine validates cfg and reserves the memory blocks. An allocation
// failure returns ErrAllocation and leaves no blocks behind.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	cfg = cfg.withIdentity()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		log:      zerolog.Nop(),
		clock:    clock.New(),
		alloc:    heapAllocator{},
		state:    StateOffline,
		memory:   make(map[string]*MemoryBlock),
		nodes:    make(map[string]NeuralNode),
		shutdown: NewShutdownSignal(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.link == nil {
		e.link = &simulatedLink{
			clock:    e.clock,
			delay:    cfg.Handshake.ExchangeDelay,
			endpoint: cfg.Handshake.Endpoint,
			log:      e.log,
		}
	}

	e.log.Info().Msgf("Initializing Neural Cortex v%s in %s mode.", SystemVersion, cfg.Environment)
	e.log.Info().Msg("Allocating shared memory blocks...")
	if err := e.allocate(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) CoreID() string {
	return e.cfg.CoreID
}

// State returns the current lifecycle state.
func (e *Engine) State() SystemState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Ticks returns the heartbeat tick counter.
func (e *Engine) Ticks() uint64 {
	return e.ticks.Load()
}

// ShutdownSignal exposes the engine's shutdown flag.
func (e *Engine) ShutdownSignal() *ShutdownSignal {
	return e.shutdown
}

// Nodes returns a copy of the declared compute nodes.
func (e *Engine) Nodes() map[string]NeuralNode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]NeuralNode, len(e.nodes))
	for id, n := range e.nodes {
		out[id] = n
	}
	return out
}

// Processes returns a copy of the declared vector processes.
func (e *Engine) Processes() []VectorProcess {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]VectorProcess, len(e.processes))
	copy(out, e.processes)
	return out
}

// Status is a point-in-time engine snapshot.
type Status struct {
	CoreID         string           `json:"core_id"`
	Environment    string           `json:"environment"`
	Version        string           `json:"version"`
	State          SystemState      `json:"state"`
	MemoryBlocks   int              `json:"memory_blocks"`
	Ticks          uint64           `json:"ticks"`
	Handshake      *HandshakeResult `json:"handshake,omitempty"`
	BootStartedAt  time.Time        `json:"boot_started_at"`
	BootFinishedAt time.Time        `json:"boot_finished_at"`
	ShuttingDown   bool             `json:"shutting_down"`
}

func (e *Engine) Status() Status {
	e.mu.RLock()
	st := Status{
		CoreID:         e.cfg.CoreID,
		Environment:    e.cfg.Environment,
		Version:        SystemVersion,
		State:          e.state,
		MemoryBlocks:   len(e.memory),
		BootStartedAt:  e.bootStart,
		BootFinishedAt: e.bootDone,
	}
	if e.handshake != nil {
		hs := *e.handshake
		st.Handshake = &hs
	}
	e.mu.RUnlock()
	st.Ticks = e.ticks.Load()
	st.ShuttingDown = e.shutdown.IsSet()
	return st
}

// Escalate moves ACTIVE -> COMBAT_READY.
func (e *Engine) Escalate(ctx context.Context) error {
	if err := e.transition(ctx, StateCombatReady); err != nil {
		return err
	}
	e.log.Warn().Msg("Escalation accepted. COMBAT_READY.")
	return nil
}

// StandDown moves COMBAT_READY -> ACTIVE.
func (e *Engine) StandDown(ctx context.Context) error {
	if err := e.transition(ctx, StateActive); err != nil {
		return err
	}
	e.log.Info().Msg("Standing down. Cortex is ACTIVE.")
	return nil
}

// Fault moves the engine to the terminal ERROR state.
func (e *Engine) Fault(ctx context.Context, cause error) error {
	if err := e.transition(ctx, StateError); err != nil {
		return err
	}
	e.log.Error().Err(cause).Msg("Cortex FAULT. Entering ERROR state.")
	return nil
}

func (e *Engine) transition(ctx context.Context, to SystemState) error {
	e.mu.Lock()
	from := e.state
	if !canTransition(from, to) {
		e.mu.Unlock()
		return transitionError(from, to)
	}
	e.state = to
	e.mu.Unlock()

	t := Transition{From: from, To: to, At: e.clock.Now()}
	e.log.Debug().Str("from", from.String()).Str("to", to.String()).Msg("state transition")
	e.emitTransition(ctx, t)
	return nil
}

func (e *Engine) String() string {
	return fmt.Sprintf("cortex[%s %s]", e.cfg.CoreID, e.State())
}
