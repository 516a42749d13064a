package cortex

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigMatchesBootProfile(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5, cfg.MemoryBlocks)
	assert.Equal(t, 65536, cfg.BlockSize)
	assert.Len(t, cfg.HardwareChecks, 4)
	assert.Equal(t, []string{
		"tactical_vision_v4.pt",
		"motion_prediction_transformer.onnx",
		"speech_synthesis_mech.bin",
	}, cfg.WeightArtifacts)
	assert.Equal(t, 5, cfg.Handshake.MaxRetries)
	assert.Equal(t, 3, cfg.Handshake.AckAttempt)
	assert.Equal(t, time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 10, cfg.DiagnosticEvery)
	assert.Equal(t, 500*time.Millisecond, cfg.ShutdownGrace)
	assert.Len(t, cfg.CoreID, 8)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeartbeatInterval = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidHeartbeatInterval)

	cfg = DefaultConfig()
	cfg.DiagnosticEvery = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.BlockSize = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.Handshake.MaxRetries = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.PhaseTimeout = -time.Second
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.HardwareChecks = append(cfg.HardwareChecks, HardwareCheck{Name: " "})
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeartbeatInterval = -time.Second
	_, err := NewEngine(cfg)
	if !errors.Is(err, ErrInvalidHeartbeatInterval) {
		t.Fatalf("expected ErrInvalidHeartbeatInterval, got %v", err)
	}
}

func TestWithIdentityFillsBlanks(t *testing.T) {
	cfg := Config{}.withIdentity()
	assert.Len(t, cfg.CoreID, 8)
	assert.Equal(t, "PRODUCTION", cfg.Environment)
	assert.Equal(t, "/models", cfg.ModelRoot)
	assert.Equal(t, "/var/run/mech_driver.sock", cfg.Handshake.Endpoint)
}
