package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"oidcp/internal/auth/models"
	"oidcp/pkg/platform/sentinel"
)

const userKeyPrefix = "oidcp:user:"

// RedisStore keeps user records in Redis so multiple provider processes can
// share the directory. Records have no TTL; the directory is an upsert log of
// everyone ever seen.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis-backed user store. The client lifecycle is
// managed externally.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, user models.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return s.client.Set(ctx, userKeyPrefix+user.UID, payload, 0).Err()
}

func (s *RedisStore) FindByUID(ctx context.Context, uid string) (models.User, error) {
	payload, err := s.client.Get(ctx, userKeyPrefix+uid).Result()
	if errors.Is(err, redis.Nil) {
		return models.User{}, fmt.Errorf("user %q: %w", uid, sentinel.ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	var user models.User
	if err := json.Unmarshal([]byte(payload), &user); err != nil {
		return models.User{}, fmt.Errorf("failed to decode user: %w", err)
	}
	return user, nil
}
