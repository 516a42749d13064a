// Package hologram provides the frame-rendering collaborator.
package hologram

import (
	"bytes"
	"context"
	"time"

	"github.com/danmuck/cortex/internal/clock"
	"github.com/danmuck/cortex/internal/modules"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Magic prefixes every rendered frame.
var Magic = []byte("\x89HOLO\r\n\x1a\n")

const (
	PayloadSize  = 256
	baseVertices = 45000
)

type Config struct {
	Resolution  string
	RefreshRate int
	Layers      []string
	BufferSize  int
}

func DefaultConfig() Config {
	return Config{
		Resolution:  "8K_VOLUMETRIC",
		RefreshRate: 240,
		Layers:      []string{"TACTICAL_GRID", "ENEMY_ESP", "AMMO_COUNTER"},
		BufferSize:  64 << 20,
	}
}

// Projector renders frames for the volumetric display.
type Projector struct {
	cfg       Config
	sessionID string
	clock     clock.Clock
	log       zerolog.Logger
}

func New(cfg Config, c clock.Clock, log zerolog.Logger) *Projector {
	if cfg.RefreshRate <= 0 {
		cfg.RefreshRate = DefaultConfig().RefreshRate
	}
	if c == nil {
		c = clock.New()
	}
	return &Projector{
		cfg:       cfg,
		sessionID: uuid.NewString(),
		clock:     c,
		log:       log,
	}
}

func (p *Projector) Metadata() modules.Metadata {
	return modules.Metadata{
		ID:          "hologram",
		Name:        "HolographicProjector",
		Description: "Volumetric HUD frame renderer at " + p.cfg.Resolution,
	}
}

func (p *Projector) SessionID() string {
	return p.sessionID
}

// FrameBudget is the time available per frame at the configured refresh rate.
func (p *Projector) FrameBudget() time.Duration {
	return time.Second / time.Duration(p.cfg.RefreshRate)
}

// RenderFrame returns Magic followed by a zeroed payload. Frames that take
// longer than FrameBudget are reported as dropped.
func (p *Projector) RenderFrame(ctx context.Context, telemetry map[string]any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := p.clock.Now()

	vertices := baseVertices + len(telemetry)
	pixels := vertices * 4

	var frame bytes.Buffer
	frame.Grow(len(Magic) + PayloadSize)
	frame.Write(Magic)
	frame.Write(make([]byte, PayloadSize))

	renderTime := p.clock.Now().Sub(start)
	if renderTime > p.FrameBudget() {
		p.log.Warn().Dur("render_time", renderTime).Msg("Frame dropped!")
	}
	p.log.Debug().Int("vertices", vertices).Int("pixels", pixels).Msg("frame rendered")
	return frame.Bytes(), nil
}

// Calibrate aligns the optics before the first frame.
func (p *Projector) Calibrate(ctx context.Context) error {
	p.log.Info().Msg("ALIGNING OPTICAL MIRRORS...")
	if err := p.clock.Sleep(ctx, 100*time.Millisecond); err != nil {
		return err
	}
	p.log.Info().Msg("SYNCING DEPTH BUFFER...")
	return nil
}

var _ modules.Renderer = (*Projector)(nil)
