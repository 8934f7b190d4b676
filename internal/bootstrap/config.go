package bootstrap

import (
	"fmt"

	infraconfig "github.com/jonesrussell/company-url-collector/infrastructure/config"
	infralogger "github.com/jonesrussell/company-url-collector/infrastructure/logger"
	"github.com/jonesrussell/company-url-collector/internal/config"
)

// ConfigPath returns flagValue when set, then CONFIG_PATH, then the default.
func ConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return infraconfig.GetConfigPath(infraconfig.DefaultPath)
}

// LoadConfig loads and validates the configuration at path.
func LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// CreateLogger creates a logger instance from configuration.
func CreateLogger(cfg *config.Config, version string) (infralogger.Logger, error) {
	logCfg := cfg.Logging
	logCfg.Development = logCfg.Development || cfg.Debug
	if cfg.Debug {
		logCfg.Level = "debug"
	}

	log, err := infralogger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(
		infralogger.String("service", "urlcollector"),
		infralogger.String("version", version),
	), nil
}
