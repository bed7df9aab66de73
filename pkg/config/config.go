// Package config loads hostpulse settings from defaults, a YAML file and HOSTPULSE_* variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/srodi/hostpulse/pkg/collector"
	"github.com/srodi/hostpulse/pkg/report"
	"github.com/srodi/hostpulse/pkg/types"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "HOSTPULSE_"
	// EnvConfigPath names the YAML file when --config is not given.
	EnvConfigPath = EnvPrefix + "CONFIG"

	DefaultInterval = 2 * time.Second
	// DefaultHotRatio is the CPU ratio at which table rows are highlighted.
	DefaultHotRatio = 0.5
)

// Output formats for --once.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatProm  = "prom"
)

// Config holds every hostpulse setting. Field tags name the YAML key and the
// environment variable suffix after HOSTPULSE_.
type Config struct {
	Interval      time.Duration `yaml:"interval" env:"INTERVAL"`
	TopK          int           `yaml:"topk" env:"TOPK"`
	HideKernel    bool          `yaml:"hide_kernel" env:"HIDE_KERNEL"`
	CommandFilter string        `yaml:"filter" env:"FILTER"`
	HotRatio      float64       `yaml:"hot_ratio" env:"HOT_RATIO"`
	ProcRoot      string        `yaml:"proc_root" env:"PROC_ROOT"`
	EtcRoot       string        `yaml:"etc_root" env:"ETC_ROOT"`
	ClockTicks    uint64        `yaml:"clock_ticks" env:"CLOCK_TICKS"`
	LogFile       string        `yaml:"log_file" env:"LOG_FILE"`
	LogLevel      string        `yaml:"log_level" env:"LOG_LEVEL"`
	Format        string        `yaml:"format" env:"FORMAT"`
	Once          bool          `yaml:"once" env:"ONCE"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Interval:   DefaultInterval,
		TopK:       types.DefaultTopK,
		HideKernel: true,
		HotRatio:   DefaultHotRatio,
		LogLevel:   "info",
		Format:     FormatTable,
	}
}

// Load layers the YAML file at path (or $HOSTPULSE_CONFIG) and the environment over Default.
// The result is not validated; callers apply flag overrides first.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return errors.New("interval must be > 0")
	}
	if c.TopK <= 0 {
		return errors.New("topk must be > 0")
	}
	if c.HotRatio <= 0 || c.HotRatio > 1 {
		return errors.New("hot ratio must be in (0, 1]")
	}
	switch c.Format {
	case FormatTable, FormatJSON, FormatProm:
	default:
		return fmt.Errorf("unsupported format %q", c.Format)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.Format != FormatTable && !c.Once {
		return fmt.Errorf("format %q requires --once", c.Format)
	}
	return nil
}

// CollectorOptions maps the file locations onto collector.Options.
func (c Config) CollectorOptions() collector.Options {
	return collector.Options{
		ProcRoot:   c.ProcRoot,
		EtcRoot:    c.EtcRoot,
		ClockTicks: c.ClockTicks,
	}
}

// Filter returns the table filters.
func (c Config) Filter() report.FilterConfig {
	hide := c.HideKernel
	return report.FilterConfig{HideKernel: &hide, CommandFilter: c.CommandFilter}
}

// BuildLogger writes JSON logs to LogFile, or to stderr in once mode.
// Interactive runs without a log file get a no-op logger since the screen belongs to the UI.
func (c Config) BuildLogger() (*zap.Logger, error) {
	var outputs []string
	switch {
	case c.LogFile != "":
		outputs = []string{c.LogFile}
	case c.Once:
		outputs = []string{"stderr"}
	default:
		return zap.NewNop(), nil
	}

	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = level
	loggerConfig.OutputPaths = outputs
	loggerConfig.ErrorOutputPaths = outputs
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return loggerConfig.Build()
}
