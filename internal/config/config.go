package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mgpai22/subtitler/internal/subtitle"
)

// DefaultPath is looked up when no --config flag is given.
const DefaultPath = "subtitler.yaml"

type Config struct {
	Export      ExportConfig      `yaml:"export"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Logging     LoggingConfig     `yaml:"logging"`
	Server      ServerConfig      `yaml:"server"`
}

type ExportConfig struct {
	SRT subtitle.Timing `yaml:"srt"`
	VTT subtitle.Timing `yaml:"vtt"`
}

type DiagnosticsConfig struct {
	MaxCPS float64 `yaml:"max_cps"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

func Default() *Config {
	return &Config{
		Export: ExportConfig{
			SRT: subtitle.DefaultTiming(subtitle.FormatSRT),
			VTT: subtitle.DefaultTiming(subtitle.FormatVTT),
		},
		Diagnostics: DiagnosticsConfig{MaxCPS: 20},
		Logging:     LoggingConfig{Level: "info"},
		Server:      ServerConfig{Addr: "127.0.0.1:7410"},
	}
}

// Load reads a YAML file over the defaults, so absent keys keep their
// default values. A missing file is only tolerated at DefaultPath.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == DefaultPath {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	for name, t := range map[string]subtitle.Timing{"srt": c.Export.SRT, "vtt": c.Export.VTT} {
		if !finite(t.Offset) || !finite(t.Gap) {
			return fmt.Errorf("export.%s offset and gap must be finite numbers", name)
		}
	}
	if c.Diagnostics.MaxCPS <= 0 {
		return fmt.Errorf("diagnostics.max_cps must be positive, got %v", c.Diagnostics.MaxCPS)
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch c.Logging.Level {
	case "":
		c.Logging.Level = "info"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = "127.0.0.1:7410"
	}
	return nil
}

// Timing returns the configured export adjustment for format.
func (c *Config) Timing(format subtitle.Format) subtitle.Timing {
	if format == subtitle.FormatVTT {
		return c.Export.VTT
	}
	return c.Export.SRT
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
