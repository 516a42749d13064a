package cortex

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SystemVersion is reported in the startup banner and status.
const SystemVersion = "4.2.0-alpha.mecha"

// HardwareCheck is one timed sub-check of the hardware phase.
type HardwareCheck struct {
	Name     string
	Duration time.Duration
}

// HandshakeConfig bounds the driver handshake.
type HandshakeConfig struct {
	MaxRetries int
	// AckAttempt is the attempt number on which the driver acknowledges.
	AckAttempt       int
	LatencyStep      time.Duration
	LatencyThreshold time.Duration
	ExchangeDelay    time.Duration
	Endpoint         string
}

// Config configures one engine.
type Config struct {
	CoreID      string
	Environment string

	MemoryBlocks int
	BlockSize    int

	HardwareChecks  []HardwareCheck
	WeightArtifacts []string
	ModelRoot       string
	WeightLoadDelay time.Duration
	Handshake       HandshakeConfig
	// PhaseTimeout bounds each boot phase. Zero waits forever.
	PhaseTimeout time.Duration

	HeartbeatInterval time.Duration
	DiagnosticEvery   int
	LoadPercent       int

	ShutdownGrace time.Duration
}

func DefaultConfig() Config {
	return Config{
		CoreID:       NewCoreID(),
		Environment:  "PRODUCTION",
		MemoryBlocks: 5,
		BlockSize:    1024 * 64,
		HardwareChecks: []HardwareCheck{
			{Name: "Checking CUDA cores", Duration: 200 * time.Millisecond},
			{Name: "Verifying Tensor Cores", Duration: 300 * time.Millisecond},
			{Name: "Testing PCIe bandwidth", Duration: 100 * time.Millisecond},
			{Name: "Calibrating thermal sensors", Duration: 200 * time.Millisecond},
		},
		WeightArtifacts: []string{
			"tactical_vision_v4.pt",
			"motion_prediction_transformer.onnx",
			"speech_synthesis_mech.bin",
		},
		ModelRoot:       "/models",
		WeightLoadDelay: 400 * time.Millisecond,
		Handshake: HandshakeConfig{
			MaxRetries:       5,
			AckAttempt:       3,
			LatencyStep:      2500 * time.Microsecond,
			LatencyThreshold: 12500 * time.Microsecond,
			ExchangeDelay:    100 * time.Millisecond,
			Endpoint:         "/var/run/mech_driver.sock",
		},
		HeartbeatInterval: time.Second,
		DiagnosticEvery:   10,
		LoadPercent:       12,
		ShutdownGrace:     500 * time.Millisecond,
	}
}

// NewCoreID returns an 8-character upper-case identifier.
func NewCoreID() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// Validate rejects configs the lifecycle cannot run with.
func (c Config) Validate() error {
	if c.HeartbeatInterval <= 0 {
		return ErrInvalidHeartbeatInterval
	}
	if c.DiagnosticEvery <= 0 {
		return fmt.Errorf("%w: diagnostic_every must be positive", ErrInvalidConfig)
	}
	if c.MemoryBlocks < 0 || c.BlockSize <= 0 {
		return fmt.Errorf("%w: memory blocks=%d size=%d", ErrInvalidConfig, c.MemoryBlocks, c.BlockSize)
	}
	if c.Handshake.MaxRetries < 0 {
		return fmt.Errorf("%w: negative max retries", ErrInvalidConfig)
	}
	if c.PhaseTimeout < 0 || c.ShutdownGrace < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidConfig)
	}
	for _, hc := range c.HardwareChecks {
		if strings.TrimSpace(hc.Name) == "" || hc.Duration < 0 {
			return fmt.Errorf("%w: hardware check %q", ErrInvalidConfig, hc.Name)
		}
	}
	return nil
}

// withIdentity fills the string fields that have no meaningful zero value.
func (c Config) withIdentity() Config {
	if strings.TrimSpace(c.CoreID) == "" {
		c.CoreID = NewCoreID()
	}
	if strings.TrimSpace(c.Environment) == "" {
		c.Environment = "PRODUCTION"
	}
	if strings.TrimSpace(c.ModelRoot) == "" {
		c.ModelRoot = "/models"
	}
	if strings.TrimSpace(c.Handshake.Endpoint) == "" {
		c.Handshake.Endpoint = "/var/run/mech_driver.sock"
	}
	return c
}
