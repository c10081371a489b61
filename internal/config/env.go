// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Env is the configuration shared by every command. An empty BridgeAddr
// selects a dry run that records writes in memory.
type Env struct {
	DBPath        string        `env:"RANDOMIZER_DB" envDefault:"randomizer.db"`
	CatalogPath   string        `env:"RANDOMIZER_CATALOG" envDefault:"catalog.json"`
	ParamsPath    string        `env:"RANDOMIZER_PARAMS"`
	BridgeAddr    string        `env:"RANDOMIZER_BRIDGE_ADDR"`
	BridgeTimeout time.Duration `env:"RANDOMIZER_BRIDGE_TIMEOUT" envDefault:"5s"`
}

// Load parses Env from environment variables.
func Load() (Env, error) {
	var cfg Env
	if err := ParseEnv(&cfg); err != nil {
		return Env{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
