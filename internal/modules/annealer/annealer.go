// Package annealer provides the optimizer collaborator.
//
// Each gradient either tunnels (scaled by the cosine of its qubit phase) or
// falls back to plain decay. Whether a gradient tunnels is decided by a
// caller-supplied Sampler against the Boltzmann tunnelling probability.
package annealer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sync"
	"time"

	"github.com/danmuck/cortex/internal/clock"
	"github.com/danmuck/cortex/internal/modules"
)

var ErrTooManyGradients = errors.New("annealer: more gradients than qubits")

const (
	boltzmann     = 1.38e-23
	energyBarrier = 4.5e-12
	decayFactor   = 0.95
	yieldEvery    = 10
)

// Qubit is one element of the state vector.
type Qubit struct {
	Amplitude    complex128
	Phase        float64
	Entanglement float64
}

// Sampler returns values in [0, 1).
type Sampler func() float64

type Config struct {
	Qubits        int
	Temperature   float64
	CoherenceTime time.Duration
	YieldDelay    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Qubits:        128,
		Temperature:   0.015,
		CoherenceTime: 450 * time.Microsecond,
		YieldDelay:    time.Millisecond,
	}
}

type Annealer struct {
	cfg    Config
	sample Sampler
	clock  clock.Clock

	mu    sync.Mutex
	state []Qubit
}

// New builds an annealer with qubits in equal superposition and evenly
// spread phases. A nil sampler never tunnels.
func New(cfg Config, sample Sampler, c clock.Clock) *Annealer {
	if cfg.Qubits <= 0 {
		cfg.Qubits = DefaultConfig().Qubits
	}
	if sample == nil {
		sample = func() float64 { return 1 }
	}
	if c == nil {
		c = clock.New()
	}
	amp := complex(1/math.Sqrt2, 1/math.Sqrt2)
	state := make([]Qubit, cfg.Qubits)
	for i := range state {
		state[i] = Qubit{
			Amplitude: amp,
			Phase:     2 * math.Pi * float64(i) / float64(cfg.Qubits),
		}
	}
	return &Annealer{cfg: cfg, state: state, sample: sample, clock: c}
}

func (a *Annealer) Metadata() modules.Metadata {
	return modules.Metadata{
		ID:          "annealer",
		Name:        "QuantumAnnealer",
		Description: fmt.Sprintf("Weight optimizer over %d qubits", a.cfg.Qubits),
	}
}

// TunnelProbability is exp(-barrier / (T * k_B)).
func (a *Annealer) TunnelProbability() float64 {
	return math.Exp(-energyBarrier / (a.cfg.Temperature * boltzmann))
}

// OptimizeWeights returns one adjusted value per gradient.
func (a *Annealer) OptimizeWeights(ctx context.Context, gradients []float64) ([]float64, error) {
	if len(gradients) > len(a.state) {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyGradients, len(gradients), len(a.state))
	}
	p := a.TunnelProbability()
	out := make([]float64, 0, len(gradients))
	for i, grad := range gradients {
		if a.sample() < p {
			a.mu.Lock()
			out = append(out, grad*math.Cos(a.state[i].Phase))
			a.state[i].Entanglement += 0.1
			a.mu.Unlock()
		} else {
			out = append(out, grad*decayFactor)
		}

		if i%yieldEvery == 0 {
			if err := a.clock.Sleep(ctx, a.cfg.YieldDelay); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// Qubits returns a copy of the state vector.
func (a *Annealer) Qubits() []Qubit {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Qubit, len(a.state))
	copy(out, a.state)
	return out
}

// CollapseWaveFunction reports the summed squared amplitude.
func (a *Annealer) CollapseWaveFunction() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var entropy float64
	for _, q := range a.state {
		m := cmplx.Abs(q.Amplitude)
		entropy += m * m
	}
	return fmt.Sprintf("SYSTEM_ENTROPY: %.4f | STATE: COHERENT", entropy)
}

var _ modules.Optimizer = (*Annealer)(nil)
