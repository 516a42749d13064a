// Package supervisor runs one cortex engine as a process: it wires the
// engine's hooks to metrics and the journal, serves the optional admin
// surface, and maps interrupts onto a graceful shutdown.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os/signal"
	"strings"
	"syscall"

	"github.com/danmuck/cortex/internal/admin"
	"github.com/danmuck/cortex/internal/clock"
	"github.com/danmuck/cortex/internal/cortex"
	"github.com/danmuck/cortex/internal/journal"
	redisjournal "github.com/danmuck/cortex/internal/journal/redis"
	"github.com/danmuck/cortex/internal/modules"
	"github.com/danmuck/cortex/internal/modules/annealer"
	"github.com/danmuck/cortex/internal/modules/hologram"
	"github.com/danmuck/cortex/internal/modules/tactical"
	"github.com/danmuck/cortex/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

var ErrUnknownJournalBackend = errors.New("supervisor: unknown journal backend")

// Journal backends.
const (
	JournalMemory = "memory"
	JournalRedis  = "redis"
)

// JournalConfig selects and configures the lifecycle journal.
type JournalConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	MaxLen        int
}

// ServiceConfig configures one cortex process.
type ServiceConfig struct {
	Engine          cortex.Config
	AdminListenAddr string
	AdminToken      string
	CORSOrigins     []string
	Journal         JournalConfig
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Engine: cortex.DefaultConfig(),
		Journal: JournalConfig{
			Backend:   JournalMemory,
			RedisAddr: "127.0.0.1:6379",
			MaxLen:    journal.DefaultCapacity,
		},
	}
}

type Service struct {
	cfg      ServiceConfig
	log      zerolog.Logger
	clock    clock.Clock
	registry *prometheus.Registry
	metrics  *observability.Metrics
	journal  journal.Journal
	modules  *modules.Registry
	engine   *cortex.Engine
	admin    *admin.Server

	engineOpts []cortex.Option
}

type Option func(*Service)

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithJournal overrides the configured journal backend.
func WithJournal(j journal.Journal) Option {
	return func(s *Service) {
		s.journal = j
	}
}

// WithEngineOptions passes extra options through to the engine.
func WithEngineOptions(opts ...cortex.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// NewService builds the journal, metrics, collaborator modules and engine.
// Memory allocation happens here; its failure returns cortex.ErrAllocation.
func NewService(cfg ServiceConfig, log zerolog.Logger, opts ...Option) (*Service, error) {
	if strings.TrimSpace(cfg.Engine.CoreID) == "" {
		cfg.Engine.CoreID = cortex.NewCoreID()
	}
	s := &Service{
		cfg:      cfg,
		log:      log,
		clock:    clock.New(),
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := observability.NewMetrics(s.registry)
	if err != nil {
		return nil, err
	}
	s.metrics = m

	if s.journal == nil {
		j, err := openJournal(cfg.Journal, cfg.Engine.CoreID)
		if err != nil {
			return nil, err
		}
		s.journal = j
	}

	if err := s.buildModules(); err != nil {
		return nil, err
	}

	engineOpts := []cortex.Option{
		cortex.WithLogger(log),
		cortex.WithClock(s.clock),
		cortex.WithHooks(MetricsHooks(s.metrics)),
		cortex.WithHooks(JournalHooks(s.journal, s.clock, observability.Component(log, "journal"))),
	}
	engine, err := cortex.NewEngine(cfg.Engine, append(engineOpts, s.engineOpts...)...)
	if err != nil {
		_ = s.journal.Close()
		return nil, err
	}
	s.engine = engine
	s.metrics.SetMemoryBlocks(engine.MemoryBlockCount())

	if strings.TrimSpace(cfg.AdminListenAddr) != "" {
		s.admin = admin.New(
			admin.Config{ListenAddr: cfg.AdminListenAddr, CORSOrigins: cfg.CORSOrigins, Token: cfg.AdminToken},
			engine,
			admin.WithLogger(observability.Component(log, "admin")),
			admin.WithModules(s.modules),
			admin.WithJournal(s.journal),
			admin.WithMetrics(s.metrics, s.registry),
		)
	}
	return s, nil
}

func openJournal(cfg JournalConfig, coreID string) (journal.Journal, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", JournalMemory:
		return journal.NewMemory(cfg.MaxLen), nil
	case JournalRedis:
		return redisjournal.New(
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
			redisjournal.WithPrefix("cortex:"+coreID+":"),
			redisjournal.WithMaxLen(int64(cfg.MaxLen)),
		), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownJournalBackend, cfg.Backend)
	}
}

func (s *Service) buildModules() error {
	s.modules = modules.NewRegistry()
	tn, err := tactical.New(tactical.DefaultModelConfig(), tactical.WithClock(s.clock))
	if err != nil {
		return err
	}
	all := []modules.Module{
		tn,
		hologram.New(hologram.DefaultConfig(), s.clock, observability.Component(s.log, "hologram")),
		annealer.New(annealer.DefaultConfig(), rand.Float64, s.clock),
	}
	for _, m := range all {
		if err := s.modules.Register(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) Engine() *cortex.Engine {
	return s.engine
}

func (s *Service) Modules() *modules.Registry {
	return s.modules
}

func (s *Service) Journal() journal.Journal {
	return s.journal
}

// Run blocks until SIGINT/SIGTERM, then shuts the engine down.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.RunContext(ctx)
}

// RunContext boots the engine and runs the heartbeat until ctx is done or
// the engine is shut down. Cancellation of ctx is a clean exit and returns
// nil; boot faults and admin server failures are returned.
func (s *Service) RunContext(ctx context.Context) error {
	defer func() {
		if err := s.journal.Close(); err != nil {
			s.log.Warn().Err(err).Msg("journal close failed")
		}
	}()

	ctx, cancel := context.WithCancelCause(ctx)
	adminDone := make(chan struct{})
	defer func() {
		cancel(nil)
		<-adminDone
	}()

	if s.admin != nil {
		go func() {
			defer close(adminDone)
			if err := s.admin.Serve(ctx); err != nil {
				s.log.Error().Err(err).Msg("admin server failed")
				cancel(fmt.Errorf("admin server: %w", err))
			}
		}()
	} else {
		close(adminDone)
	}

	if err := s.engine.Boot(ctx); err != nil {
		if ctx.Err() == nil {
			return err
		}
		s.shutdown(ctx)
		return stopReason(ctx)
	}

	err := s.engine.Run(ctx)
	s.shutdown(ctx)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return stopReason(ctx)
	}
	return err
}

func (s *Service) shutdown(ctx context.Context) {
	if err := s.engine.Shutdown(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn().Err(err).Msg("shutdown grace interrupted")
	}
}

// stopReason is nil for an interrupt and the cancel cause otherwise.
func stopReason(ctx context.Context) error {
	cause := context.Cause(ctx)
	if cause == nil || errors.Is(cause, context.Canceled) {
		return nil
	}
	return cause
}
