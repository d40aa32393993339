// Package config loads and persists the session settings file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"panel-cropper/internal/detect"
	"panel-cropper/internal/export"
	"panel-cropper/internal/history"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by errors for values that cannot be corrected by
// clamping.
var ErrInvalid = errors.New("invalid config")

// Config is the on-disk settings file.
type Config struct {
	Detection detect.Params `yaml:"detection"`
	Export    Export        `yaml:"export"`

	Debounce      time.Duration `yaml:"debounce"`
	Workers       int           `yaml:"workers"` // 0 = one per physical core
	HandleSize    float64       `yaml:"handle_size"`
	MinCreateSize float64       `yaml:"min_create_size"`
	HistoryDepth  int           `yaml:"history_depth"` // 0 = unlimited
	PDFDPI        float64       `yaml:"pdf_dpi"`
	PageCache     int           `yaml:"page_cache"`
	LogLevel      string        `yaml:"log_level"`
}

// Export holds the output settings.
type Export struct {
	Dir          string `yaml:"dir"`
	Format       string `yaml:"format"`
	StartCounter int    `yaml:"start_counter"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		Detection: detect.DefaultParams(),
		Export: Export{
			Format:       string(export.FormatPNG),
			StartCounter: 1,
		},
		Debounce:      300 * time.Millisecond,
		HandleSize:    8,
		MinCreateSize: 5,
		HistoryDepth:  history.DefaultMaxDepth,
		PDFDPI:        150,
		PageCache:     8,
		LogLevel:      "info",
	}
}

// Validate clamps numeric settings into range and rejects values that have
// no sensible correction.
func (c *Config) Validate() error {
	d := Defaults()
	c.Detection = c.Detection.Normalize()

	if _, err := export.ParseFormat(c.Export.Format); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.Export.StartCounter < 1 {
		c.Export.StartCounter = 1
	}
	if c.Debounce < 0 {
		c.Debounce = d.Debounce
	}
	if c.Workers < 0 {
		c.Workers = 0
	}
	if c.HandleSize <= 0 {
		c.HandleSize = d.HandleSize
	}
	if c.MinCreateSize < 0 {
		c.MinCreateSize = d.MinCreateSize
	}
	if c.HistoryDepth < 0 {
		c.HistoryDepth = 0
	}
	if c.PDFDPI < 36 || c.PDFDPI > 600 {
		c.PDFDPI = d.PDFDPI
	}
	if c.PageCache < 1 {
		c.PageCache = 1
	}
	return nil
}

// ExportFormat returns the parsed export format. Validate must have passed.
func (c Config) ExportFormat() export.Format {
	f, _ := export.ParseFormat(c.Export.Format)
	return f
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Defaults(), fmt.Errorf("failed to parse config %s: %w", filepath.Base(path), err)
	}
	if err := cfg.Validate(); err != nil {
		return Defaults(), err
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", ErrInvalid, s)
}
