// Package admin serves the optional HTTP control surface of a cortex
// process: health and readiness probes, status, metrics, the lifecycle
// journal, collaborator module calls and escalation.
package admin

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/danmuck/cortex/internal/cortex"
	"github.com/danmuck/cortex/internal/journal"
	"github.com/danmuck/cortex/internal/modules"
	"github.com/danmuck/cortex/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// Lifecycle is the engine surface the admin routes drive.
type Lifecycle interface {
	Status() cortex.Status
	Escalate(ctx context.Context) error
	StandDown(ctx context.Context) error
}

// Config configures the listener, CORS policy and control token. With an
// empty Token the control routes are open.
type Config struct {
	ListenAddr  string
	CORSOrigins []string
	Token       string
}

type Server struct {
	cfg       Config
	lifecycle Lifecycle
	modules   *modules.Registry
	journal   journal.Journal
	metrics   *observability.Metrics
	gatherer  prometheus.Gatherer
	log       zerolog.Logger
	started   time.Time

	router *gin.Engine
}

type Option func(*Server)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

func WithModules(reg *modules.Registry) Option {
	return func(s *Server) {
		s.modules = reg
	}
}

func WithJournal(j journal.Journal) Option {
	return func(s *Server) {
		s.journal = j
	}
}

// WithMetrics records request metrics on m and exposes g at /metrics.
func WithMetrics(m *observability.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

func New(cfg Config, lc Lifecycle, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		lifecycle: lc,
		modules:   modules.NewRegistry(),
		gatherer:  prometheus.DefaultGatherer,
		log:       zerolog.Nop(),
		started:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(s.log))
	r.Use(observability.RequestMetricsMiddleware(s.metrics))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CORSOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})
	s.router = r
	s.registerRoutes()
	return s
}

// Handler returns the routed gin engine.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on the configured address until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is done, then drains in-flight
// requests.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("admin server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info().Msg("admin server stopped")
	return nil
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
