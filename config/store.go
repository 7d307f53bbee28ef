package config

import "context"

type Store interface {
	// Get returns the current config, or the zero value when none was
	// ever stored (engine starts disabled with no payout address).
	Get(ctx context.Context) (*Config, error)
	Put(ctx context.Context, cfg *Config) error
}
