package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ShutdownTimeout string `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	Log      LogConfig      `mapstructure:"log"      yaml:"log"`
	Metadata MetadataConfig `mapstructure:"metadata" yaml:"metadata"`
	Taxonomy TaxonomyConfig `mapstructure:"taxonomy" yaml:"taxonomy"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	setDefaults()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if cfg.Metadata.Type != "sqlite" {
		return nil, fmt.Errorf("unsupported metadata store type '%s'", cfg.Metadata.Type)
	}

	return cfg, nil
}

// Shutdown parses ShutdownTimeout, falling back to 60 seconds.
func (c *Config) Shutdown() time.Duration {
	timeout, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil || timeout <= 0 {
		return 60 * time.Second
	}
	return timeout
}
