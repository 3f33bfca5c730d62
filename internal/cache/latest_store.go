// Package cache provides a best-effort redis cache for the newest reading
// per meter type. Misses and redis failures fall through to the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"householdmeter/internal/models"
)

const (
	defaultDialTimeout  = 5 * time.Second
	defaultReadTimeout  = 3 * time.Second
	defaultWriteTimeout = 3 * time.Second
)

// NewRedisClient returns a configured go-redis client and validates the connection with PING.
func NewRedisClient(addr string) (*redis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redis: addr is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), defaultDialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// LatestReadingStore caches the newest reading per meter type.
type LatestReadingStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLatestReadingStore returns redis-backed store.
func NewLatestReadingStore(client *redis.Client, ttl time.Duration) *LatestReadingStore {
	return &LatestReadingStore{client: client, ttl: ttl}
}

func (s *LatestReadingStore) key(meterType models.MeterType) string {
	return fmt.Sprintf("readings:latest:%s", meterType)
}

// Save caches the newest reading for its meter type.
func (s *LatestReadingStore) Save(ctx context.Context, reading models.MeterReading) error {
	data, err := json.Marshal(reading)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(reading.MeterType), data, s.ttl).Err()
}

// Get returns the cached newest reading, or nil on a miss.
func (s *LatestReadingStore) Get(ctx context.Context, meterType models.MeterType) (*models.MeterReading, error) {
	result, err := s.client.Get(ctx, s.key(meterType)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var reading models.MeterReading
	if err := json.Unmarshal([]byte(result), &reading); err != nil {
		return nil, err
	}
	return &reading, nil
}

// Invalidate drops the cached reading for a meter type.
func (s *LatestReadingStore) Invalidate(ctx context.Context, meterType models.MeterType) error {
	return s.client.Del(ctx, s.key(meterType)).Err()
}
