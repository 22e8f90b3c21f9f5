package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds defaults the CLI reads from the environment.
// Flags always take precedence.
type Env struct {
	// DB is the default wallet database path for --db.
	DB string `env:"QUORUM_DB"`

	// Owner is the default caller identity for --as.
	Owner string `env:"QUORUM_OWNER"`

	// Executor is the default Action Executor for execute: outbox or log.
	Executor string `env:"QUORUM_EXECUTOR" envDefault:"outbox"`
}

// ParseEnv loads Env from environment variables.
func ParseEnv() (Env, error) {
	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
