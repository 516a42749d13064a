package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/cortex/internal/cortex"
	"github.com/danmuck/cortex/internal/logging"
	"github.com/danmuck/cortex/internal/supervisor"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cortexd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)
	root := &cobra.Command{
		Use:           "cortexd",
		Short:         "Boot a neural cortex and run its heartbeat until interrupted",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadRunConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			return run(cfg)
		},
	}
	root.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	root.Flags().StringVar(&logLevel, "log-level", "", "debug|info|warning|error|critical (overrides config and CORTEX_LOG_LEVEL)")
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cortex version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cortexd %s\n", cortex.SystemVersion)
		},
	}
}

// buildLogger layers env overrides under the configured level.
func buildLogger(cfg runConfig) (zerolog.Logger, error) {
	logCfg := logging.DefaultConfig(logging.ProfileRuntime)
	logCfg.Out = os.Stdout
	logging.ApplyEnvOverrides(&logCfg)
	if raw := strings.TrimSpace(cfg.LogLevel); raw != "" {
		lvl, ok := logging.ParseLevel(raw)
		if !ok {
			return zerolog.Logger{}, fmt.Errorf("unknown log level %q", raw)
		}
		logCfg.Level = lvl
	}
	logCfg.Tag = "CORTEX-" + cfg.Service.Engine.CoreID
	return logging.New(logCfg), nil
}

func run(cfg runConfig) error {
	if strings.TrimSpace(cfg.Service.Engine.CoreID) == "" {
		cfg.Service.Engine.CoreID = cortex.NewCoreID()
	}
	log, err := buildLogger(cfg)
	if err != nil {
		return err
	}

	svc, err := supervisor.NewService(cfg.Service, log)
	if err != nil {
		return err
	}
	return runService(svc, log)
}

type runner interface {
	Run() error
}

// runService runs svc and turns a failure or an escaped panic into a
// CRITICAL log line and an error.
func runService(svc runner, log zerolog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			log.WithLevel(zerolog.FatalLevel).Err(err).Msg("FATAL EXCEPTION")
		}
	}()
	return svc.Run()
}
