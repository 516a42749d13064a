package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel     = "CORTEX_LOG_LEVEL"
	EnvLogTimestamp = "CORTEX_LOG_TIMESTAMP"
	EnvLogNoColor   = "CORTEX_LOG_NOCOLOR"
)

// TimeLayout is the timestamp layout of every console line.
const TimeLayout = "2006-01-02 15:04:05"

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config controls one logger instance. Loggers are built per run and passed
// to components explicitly.
type Config struct {
	Level     zerolog.Level
	Out       io.Writer
	Tag       string
	NoColor   bool
	Timestamp bool
}

func DefaultConfig(profile Profile) Config {
	cfg := Config{
		Out: os.Stderr,
		Tag: "CORTEX",
	}
	switch profile {
	case ProfileTest:
		cfg.Level = zerolog.DebugLevel
		cfg.Timestamp = false
		cfg.NoColor = true
	default:
		cfg.Level = zerolog.InfoLevel
		cfg.Timestamp = true
	}
	return cfg
}

// ApplyEnvOverrides mutates cfg from CORTEX_LOG_* variables. Unparseable
// values are ignored.
func ApplyEnvOverrides(cfg *Config) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
}

// New builds a console logger writing `[timestamp] [tag] [LEVEL] message`.
func New(cfg Config) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	tag := strings.TrimSpace(cfg.Tag)
	if tag == "" {
		tag = "CORTEX"
	}

	writer := zerolog.ConsoleWriter{
		Out:             out,
		NoColor:         cfg.NoColor,
		TimeFormat:      TimeLayout,
		FormatTimestamp: formatTimestamp,
		FormatLevel:     formatLevel(tag),
	}
	if !cfg.Timestamp {
		writer.PartsExclude = []string{zerolog.TimestampFieldName}
	}

	ctx := zerolog.New(writer).Level(cfg.Level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "critical", "fatal":
		return zerolog.FatalLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

// LevelName maps zerolog level strings to the names used on the console.
func LevelName(level string) string {
	switch strings.ToLower(level) {
	case zerolog.LevelWarnValue:
		return "WARNING"
	case zerolog.LevelFatalValue, zerolog.LevelPanicValue:
		return "CRITICAL"
	case "":
		return "INFO"
	default:
		return strings.ToUpper(level)
	}
}

func formatLevel(tag string) zerolog.Formatter {
	return func(i interface{}) string {
		level, _ := i.(string)
		return fmt.Sprintf("[%s] [%s]", tag, LevelName(level))
	}
}

func formatTimestamp(i interface{}) string {
	if i == nil {
		return ""
	}
	raw, ok := i.(string)
	if !ok {
		return fmt.Sprintf("[%v]", i)
	}
	ts, err := time.Parse(zerolog.TimeFieldFormat, raw)
	if err != nil {
		return "[" + raw + "]"
	}
	return "[" + ts.Local().Format(TimeLayout) + "]"
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
