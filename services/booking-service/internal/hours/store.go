// Package hours stores the professional's weekly BusinessHoursConfig.
package hours

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
	"github.com/redis/go-redis/v9"
)

// Store returns model.DefaultBusinessHours for a slug that was never configured.
type Store interface {
	Get(ctx context.Context, slug string) (model.BusinessHoursConfig, error)
	Set(ctx context.Context, slug string, cfg model.BusinessHoursConfig) error
}

type RedisStore struct {
	redis *redis.Client
}

func NewRedisStore(redisClient *redis.Client) *RedisStore {
	return &RedisStore{redis: redisClient}
}

func (s *RedisStore) key(slug string) string {
	return fmt.Sprintf("bellabook:hours:%s", slug)
}

func (s *RedisStore) Get(ctx context.Context, slug string) (model.BusinessHoursConfig, error) {
	data, err := s.redis.Get(ctx, s.key(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.DefaultBusinessHours(), nil
	}
	if err != nil {
		return model.BusinessHoursConfig{}, fmt.Errorf("hours: get: %w", err)
	}
	var cfg model.BusinessHoursConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return model.BusinessHoursConfig{}, fmt.Errorf("hours: unmarshal: %w", err)
	}
	return cfg, nil
}

func (s *RedisStore) Set(ctx context.Context, slug string, cfg model.BusinessHoursConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("hours: %w", err)
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("hours: marshal: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(slug), data, 0).Err(); err != nil {
		return fmt.Errorf("hours: set: %w", err)
	}
	return nil
}

type MemoryStore struct {
	mu   sync.RWMutex
	cfgs map[string]model.BusinessHoursConfig
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cfgs: map[string]model.BusinessHoursConfig{}}
}

func (s *MemoryStore) Get(_ context.Context, slug string) (model.BusinessHoursConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.cfgs[slug]
	if !ok {
		return model.DefaultBusinessHours(), nil
	}
	return cloneConfig(cfg), nil
}

func (s *MemoryStore) Set(_ context.Context, slug string, cfg model.BusinessHoursConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("hours: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfgs[slug] = cloneConfig(cfg)
	return nil
}

func cloneConfig(cfg model.BusinessHoursConfig) model.BusinessHoursConfig {
	cfg.Days = append([]model.DaySchedule(nil), cfg.Days...)
	return cfg
}
