// Package tactical provides the inference collaborator. It tracks model
// shapes and parameter counts; assessment values come from a Scorer.
package tactical

import (
	"context"
	"errors"
	"fmt"

	"github.com/danmuck/cortex/internal/clock"
	"github.com/danmuck/cortex/internal/modules"
)

var (
	ErrEmptyVector   = errors.New("tactical: empty input vector")
	ErrInvalidConfig = errors.New("tactical: invalid model config")
)

// ModelConfig holds transformer hyperparameters.
type ModelConfig struct {
	VocabSize             int
	EmbedDim              int
	HiddenDim             int
	NumLayers             int
	NumHeads              int
	Dropout               float64
	Activation            string
	MaxPositionEmbeddings int
	LayerNormEps          float64
	InitializerRange      float64
}

func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		VocabSize:             50257,
		EmbedDim:              1024,
		HiddenDim:             4 * 1024,
		NumLayers:             24,
		NumHeads:              16,
		Dropout:               0.1,
		Activation:            "gelu_new",
		MaxPositionEmbeddings: 2048,
		LayerNormEps:          1e-5,
		InitializerRange:      0.02,
	}
}

// Validate checks the dimensions are usable for multi-head attention.
func (c ModelConfig) Validate() error {
	if c.VocabSize <= 0 || c.EmbedDim <= 0 || c.NumLayers <= 0 || c.NumHeads <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", ErrInvalidConfig)
	}
	if c.EmbedDim%c.NumHeads != 0 {
		return fmt.Errorf("%w: embed_dim %d not divisible by num_heads %d", ErrInvalidConfig, c.EmbedDim, c.NumHeads)
	}
	return nil
}

// Scorer supplies threat and confidence values for one input vector.
type Scorer func(vector []int) (threat, confidence float64)

// FixedScorer always returns the same values.
func FixedScorer(threat, confidence float64) Scorer {
	return func([]int) (float64, float64) {
		return threat, confidence
	}
}

type Option func(*Net)

func WithScorer(s Scorer) Option {
	return func(n *Net) {
		if s != nil {
			n.scorer = s
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(n *Net) {
		if c != nil {
			n.clock = c
		}
	}
}

// Net is the tactical assessment model.
type Net struct {
	cfg    ModelConfig
	clock  clock.Clock
	scorer Scorer
}

// New validates cfg and builds the model.
func New(cfg ModelConfig, opts ...Option) (*Net, error) {
	if cfg.HiddenDim == 0 {
		cfg.HiddenDim = 4 * cfg.EmbedDim
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := &Net{
		cfg:    cfg,
		clock:  clock.New(),
		scorer: FixedScorer(0, 0.85),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

func (n *Net) Metadata() modules.Metadata {
	return modules.Metadata{
		ID:          "tactical",
		Name:        "DeepFusionNet",
		Description: fmt.Sprintf("Tactical assessment transformer (%d layers, %d heads)", n.cfg.NumLayers, n.cfg.NumHeads),
	}
}

func (n *Net) Config() ModelConfig {
	return n.cfg
}

// HeadDim is the per-head attention width.
func (n *Net) HeadDim() int {
	return n.cfg.EmbedDim / n.cfg.NumHeads
}

// ParameterCount approximates weights as embeddings plus 12*d^2 per layer.
func (n *Net) ParameterCount() int64 {
	embed := int64(n.cfg.EmbedDim)
	total := int64(n.cfg.VocabSize) * embed
	total += embed * embed * 12 * int64(n.cfg.NumLayers)
	return total
}

// OutputShape is the hidden-state shape after the encoder stack for a
// single batch of seqLen tokens.
func (n *Net) OutputShape(seqLen int) []int {
	return []int{1, seqLen, n.cfg.EmbedDim}
}

// ForwardPass runs one inference over vector.
func (n *Net) ForwardPass(ctx context.Context, vector []int) (modules.Assessment, error) {
	if len(vector) == 0 {
		return modules.Assessment{}, ErrEmptyVector
	}
	if err := ctx.Err(); err != nil {
		return modules.Assessment{}, err
	}
	start := n.clock.Now()
	threat, confidence := n.scorer(vector)
	elapsed := n.clock.Now().Sub(start)

	return modules.Assessment{
		ThreatAssessment: threat,
		SystemConfidence: confidence,
		InferenceMS:      float64(elapsed.Microseconds()) / 1000,
		VectorState:      "CONVERGED",
	}, nil
}

var _ modules.Inference = (*Net)(nil)
