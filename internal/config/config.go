// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	// Addr is the HTTP listen address.
	Addr string `env:"ADDR,default=:8080"`

	// DatabaseURL selects the PostgreSQL store when set; empty runs the
	// in-memory store.
	DatabaseURL string `env:"DATABASE_URL"`

	// KafkaBrokers enables event publication when non-empty.
	KafkaBrokers []string `env:"KAFKA_BROKERS"`
	KafkaTopic   string   `env:"KAFKA_TOPIC,default=transaction_posted"`
}

// Load reads .env if present, then binds environment variables.
func Load(ctx context.Context) (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
