// Package config loads process configuration from environment variables.
// Simulation-domain settings (markets, rounds, rates) live in the store;
// this is only the host-process surface.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration for the round trigger.
type Config struct {
	DBPath   string `env:"ECPCIM_DB" envDefault:"data/ecpcim.db"`
	Seed     int64  `env:"ECPCIM_SEED" envDefault:"0"` // 0 = derive from current time
	LogLevel string `env:"ECPCIM_LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
