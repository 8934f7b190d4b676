package logger

import (
	"gopkg.in/natefinch/lumberjack.v2"
)

// Default configuration values.
const (
	DefaultLevel         = "info"
	DefaultFileMaxSizeMB = 15
	DefaultFileBackups   = 3
	DefaultFileMaxAgeDay = 28
)

// Config represents the logger configuration.
type Config struct {
	// Level is the minimum logging level (debug, info, warn, error, fatal).
	Level string `env:"LOG_LEVEL" yaml:"level"`
	// Development disables sampling so every entry is written.
	Development bool `env:"LOG_DEVELOPMENT" yaml:"development"`
	// OutputPaths are zap sink URLs or file paths. Defaults to stdout.
	OutputPaths []string `yaml:"output_paths"`
	// File enables an additional rotating log file.
	File FileConfig `yaml:"file"`
}

// FileConfig configures the rotating log file.
type FileConfig struct {
	Path       string `env:"LOG_FILE" yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// SetDefaults applies default values to the config if not set.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = DefaultLevel
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = []string{"stdout"}
	}
	if c.File.MaxSizeMB == 0 {
		c.File.MaxSizeMB = DefaultFileMaxSizeMB
	}
	if c.File.MaxBackups == 0 {
		c.File.MaxBackups = DefaultFileBackups
	}
	if c.File.MaxAgeDays == 0 {
		c.File.MaxAgeDays = DefaultFileMaxAgeDay
	}
}

func newRotatingWriter(cfg FileConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}
