package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"oidcp/internal/auth/models"
	"oidcp/pkg/platform/sentinel"
)

const sessionKeyPrefix = "oidcp:code:"

// RedisStore keeps authorization sessions in Redis with the session TTL as
// the key expiry. Consume relies on GETDEL so the issued→exchanged
// transition is atomic on the server; a replayed code simply no longer
// exists, which the service surfaces as an invalid grant either way.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis-backed session store. The client
// lifecycle is managed externally.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Create(ctx context.Context, session *models.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired: %w", sentinel.ErrExpired)
	}
	return s.client.Set(ctx, sessionKeyPrefix+session.Code, payload, ttl).Err()
}

func (s *RedisStore) Consume(ctx context.Context, code string, now time.Time) (*models.Session, error) {
	payload, err := s.client.GetDel(ctx, sessionKeyPrefix+code).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("authorization session not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume session: %w", err)
	}

	var record models.Session
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	// Key expiry normally removes dead sessions; this covers clock skew.
	if record.Expired(now) {
		return nil, fmt.Errorf("authorization session expired: %w", sentinel.ErrExpired)
	}
	record.Used = true
	return &record, nil
}
