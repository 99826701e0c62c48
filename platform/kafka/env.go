package kafka

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// LoadEnv fills cfg from the process environment using env struct tags.
// Fields without a matching variable keep their current value.
func LoadEnv(cfg *Config) error {
	return load(cfg, env.Options{})
}

func load(cfg *Config, opts env.Options) error {
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse kafka env: %w", err)
	}
	if cfg.Enabled && len(cfg.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED=true")
	}
	return nil
}
