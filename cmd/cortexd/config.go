package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/cortex/internal/supervisor"
)

type fileConfig struct {
	CoreID            string   `toml:"core_id"`
	Environment       string   `toml:"environment"`
	LogLevel          string   `toml:"log_level"`
	MemoryBlocks      int      `toml:"memory_blocks"`
	BlockSize         int      `toml:"block_size"`
	ModelRoot         string   `toml:"model_root"`
	WeightLoadDelay   string   `toml:"weight_load_delay"`
	PhaseTimeout      string   `toml:"phase_timeout"`
	MaxRetries        int      `toml:"max_retries"`
	AckAttempt        int      `toml:"ack_attempt"`
	LatencyThreshold  string   `toml:"latency_threshold"`
	ExchangeDelay     string   `toml:"exchange_delay"`
	DriverEndpoint    string   `toml:"driver_endpoint"`
	HeartbeatInterval string   `toml:"heartbeat_interval"`
	DiagnosticEvery   int      `toml:"diagnostic_every"`
	LoadPercent       int      `toml:"load_percent"`
	ShutdownGrace     string   `toml:"shutdown_grace"`
	AdminListenAddr   string   `toml:"admin_listen_addr"`
	AdminToken        string   `toml:"admin_token"`
	CORSOrigins       []string `toml:"cors_origins"`
	Journal           string   `toml:"journal"`
	RedisAddr         string   `toml:"redis_addr"`
	RedisPassword     string   `toml:"redis_password"`
	RedisDB           int      `toml:"redis_db"`
	JournalMaxLen     int      `toml:"journal_max_len"`
}

// runConfig is everything cortexd needs to start one process. An empty
// LogLevel defers to CORTEX_LOG_LEVEL and then the runtime default.
type runConfig struct {
	Service  supervisor.ServiceConfig
	LogLevel string
}

func defaultRunConfig() runConfig {
	return runConfig{
		Service: supervisor.DefaultServiceConfig(),
	}
}

// loadRunConfig overlays the keys present in path on the defaults. An
// empty path returns the defaults.
func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runConfig{}, fmt.Errorf("load cortex config: %w", err)
	}
	eng := &cfg.Service.Engine

	if meta.IsDefined("core_id") {
		if id := strings.ToUpper(strings.TrimSpace(raw.CoreID)); id != "" {
			eng.CoreID = id
		}
	}
	if meta.IsDefined("environment") {
		if env := strings.TrimSpace(raw.Environment); env != "" {
			eng.Environment = env
		}
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("memory_blocks") {
		eng.MemoryBlocks = raw.MemoryBlocks
	}
	if meta.IsDefined("block_size") {
		eng.BlockSize = raw.BlockSize
	}
	if meta.IsDefined("model_root") {
		eng.ModelRoot = strings.TrimSpace(raw.ModelRoot)
	}
	if meta.IsDefined("max_retries") {
		eng.Handshake.MaxRetries = raw.MaxRetries
	}
	if meta.IsDefined("ack_attempt") {
		eng.Handshake.AckAttempt = raw.AckAttempt
	}
	if meta.IsDefined("driver_endpoint") {
		eng.Handshake.Endpoint = strings.TrimSpace(raw.DriverEndpoint)
	}
	if meta.IsDefined("diagnostic_every") {
		eng.DiagnosticEvery = raw.DiagnosticEvery
	}
	if meta.IsDefined("load_percent") {
		eng.LoadPercent = raw.LoadPercent
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"weight_load_delay", raw.WeightLoadDelay, &eng.WeightLoadDelay},
		{"phase_timeout", raw.PhaseTimeout, &eng.PhaseTimeout},
		{"latency_threshold", raw.LatencyThreshold, &eng.Handshake.LatencyThreshold},
		{"exchange_delay", raw.ExchangeDelay, &eng.Handshake.ExchangeDelay},
		{"heartbeat_interval", raw.HeartbeatInterval, &eng.HeartbeatInterval},
		{"shutdown_grace", raw.ShutdownGrace, &eng.ShutdownGrace},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return runConfig{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if meta.IsDefined("admin_listen_addr") {
		cfg.Service.AdminListenAddr = strings.TrimSpace(raw.AdminListenAddr)
	}
	if meta.IsDefined("admin_token") {
		cfg.Service.AdminToken = strings.TrimSpace(raw.AdminToken)
	}
	if meta.IsDefined("cors_origins") {
		cfg.Service.CORSOrigins = normalizeOrigins(raw.CORSOrigins)
	}
	if meta.IsDefined("journal") {
		cfg.Service.Journal.Backend = strings.ToLower(strings.TrimSpace(raw.Journal))
	}
	if meta.IsDefined("redis_addr") {
		cfg.Service.Journal.RedisAddr = strings.TrimSpace(raw.RedisAddr)
	}
	if meta.IsDefined("redis_password") {
		cfg.Service.Journal.RedisPassword = raw.RedisPassword
	}
	if meta.IsDefined("redis_db") {
		cfg.Service.Journal.RedisDB = raw.RedisDB
	}
	if meta.IsDefined("journal_max_len") {
		cfg.Service.Journal.MaxLen = raw.JournalMaxLen
	}

	if err := eng.Validate(); err != nil {
		return runConfig{}, err
	}
	return cfg, nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
