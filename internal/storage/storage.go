package storage

import (
	"context"
	"fmt"
	"strings"
)

const (
	DriverBolt   = "bolt"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Store is a small string key-value blob that survives process restarts.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	// SetAll writes every entry or none.
	SetAll(ctx context.Context, entries map[string]string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Driver    string
	Path      string
	RedisURL  string
	Namespace string
}

// Open returns the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverBolt:
		return OpenBolt(cfg.Path)
	case DriverRedis:
		client, err := ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return NewRedis(client, cfg.Namespace), nil
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
