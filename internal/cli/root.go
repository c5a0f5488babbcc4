package cli

import (
	"fmt"

	"github.com/mgpai22/subtitler/internal/config"
	"github.com/mgpai22/subtitler/internal/logging"
	"github.com/mgpai22/subtitler/internal/script"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "subtitler",
	Short: "Timed script engine for writing subtitles by hand",
	Long: `Subtitler turns a plain-text timed script into SubRip or WebVTT subtitles.

A script is ordinary text with marker lines such as [12.5] that set the
time of the dialogue below them. Subtitler segments the script, checks
marker order and reading speed, and exports the result.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		l, err := newLogger(cfg, verbose)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "Config file path (default "+config.DefaultPath+")")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
}

// newLogger logs at debug with --verbose, otherwise at the configured level.
func newLogger(conf *config.Config, verbose bool) (*logging.Logger, error) {
	if verbose {
		return logging.NewLogger(true), nil
	}
	l, err := logging.NewLoggerWithLevel(conf.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return l, nil
}

// newEngine builds an engine using the configured reading speed limit.
func newEngine() *script.Engine {
	engine := script.NewEngine()
	if cfg != nil {
		engine.Analyzer.MaxCPS = cfg.Diagnostics.MaxCPS
	}
	return engine
}

func currentConfig() *config.Config {
	if cfg == nil {
		return config.Default()
	}
	return cfg
}

func currentLogger() *logging.Logger {
	if logger == nil {
		return logging.Nop()
	}
	return logger
}
