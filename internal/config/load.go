package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load builds the configuration from viper's merged sources (defaults,
// config file, environment), applies defaults, and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
