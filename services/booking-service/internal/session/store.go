// Package session keeps wizard snapshots between the requests of one public booking.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/wizard"
	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 30 * time.Minute

var ErrNotFound = fmt.Errorf("session: %w", model.ErrNotFound)

// Store saves snapshots under opaque ids. Every Save refreshes the expiry.
type Store interface {
	Create(ctx context.Context, snap wizard.Snapshot) (string, error)
	Get(ctx context.Context, id string) (wizard.Snapshot, error)
	Save(ctx context.Context, id string, snap wizard.Snapshot) error
}

type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisStore(redisClient *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{redis: redisClient, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return "bellabook:session:" + id
}

func (s *RedisStore) Create(ctx context.Context, snap wizard.Snapshot) (string, error) {
	id := uuid.NewString()
	if err := s.Save(ctx, id, snap); err != nil {
		return "", err
	}
	return id, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (wizard.Snapshot, error) {
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return wizard.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return wizard.Snapshot{}, fmt.Errorf("session: get: %w", err)
	}
	var snap wizard.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return wizard.Snapshot{}, fmt.Errorf("session: unmarshal: %w", err)
	}
	return snap, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, snap wizard.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

type memoryEntry struct {
	snap    wizard.Snapshot
	expires time.Time
}

type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, now: time.Now, entries: map[string]memoryEntry{}}
}

func (s *MemoryStore) Create(ctx context.Context, snap wizard.Snapshot) (string, error) {
	id := uuid.NewString()
	return id, s.Save(ctx, id, snap)
}

func (s *MemoryStore) Get(_ context.Context, id string) (wizard.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return wizard.Snapshot{}, ErrNotFound
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, id)
		return wizard.Snapshot{}, ErrNotFound
	}
	return e.snap, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, snap wizard.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}
	s.entries[id] = memoryEntry{snap: snap, expires: now.Add(s.ttl)}
	return nil
}
