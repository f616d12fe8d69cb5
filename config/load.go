package config

import (
	"fmt"
	"log/slog"

	"github.com/BurntSushi/toml"
)

// Load reads a TOML configuration file, validates it and returns it.
func Load(path string, logger *slog.Logger) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		logger.Error("failed to decode config file", "path", path, "error", err)
		return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		logger.Error("configuration validation failed", "path", path, "error", err)
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	logger.Info("configuration loaded", "path", path)
	return cfg, nil
}
