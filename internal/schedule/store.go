package schedule

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const configKey = "ginecare:schedule:config"

// Source yields the current scheduling policy. The booking engine reads it
// at the start of every request; config changes take effect on subsequent
// calls, never retroactively.
type Source interface {
	Get(ctx context.Context) (*Config, error)
}

// Store persists the singleton schedule config in redis.
type Store struct {
	redis *redis.Client
}

// NewStore creates a redis-backed schedule config store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

// Get retrieves the saved config, returning the default policy if none has
// been saved yet.
func (s *Store) Get(ctx context.Context) (*Config, error) {
	data, err := s.redis.Get(ctx, configKey).Bytes()
	if err == redis.Nil {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("schedule: get config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("schedule: unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Set validates and saves the config.
func (s *Store) Set(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("schedule: marshal config: %w", err)
	}
	if err := s.redis.Set(ctx, configKey, data, 0).Err(); err != nil {
		return fmt.Errorf("schedule: save config: %w", err)
	}
	return nil
}

// StaticSource serves a fixed config; used in tests and single-binary tools.
type StaticSource struct {
	Config *Config
}

func (s StaticSource) Get(ctx context.Context) (*Config, error) {
	if s.Config == nil {
		return DefaultConfig(), nil
	}
	return s.Config, nil
}
