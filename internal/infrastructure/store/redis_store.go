// Package store provides the durable profile store implementations. Redis is
// the default backend; Postgres and an in-memory store are selectable via
// configuration.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Afonso017/fraud-detector/internal/domain/model"
	"github.com/Afonso017/fraud-detector/internal/domain/repository"
)

// RedisStore implements repository.ProfileStore backed by Redis.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: client}
}

var _ repository.ProfileStore = (*RedisStore)(nil)

// Ping verifies the connection; used at bootstrap.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	data, err := r.client.Get(ctx, profileKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, repository.ErrProfileNotFound
		}
		return nil, err
	}

	var profile model.UserProfile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &profile, nil
}

func (r *RedisStore) SaveProfile(ctx context.Context, profile *model.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	return r.client.Set(ctx, profileKey(profile.UserID), data, 0).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func profileKey(userID string) string {
	return fmt.Sprintf("profile:%s", userID)
}
