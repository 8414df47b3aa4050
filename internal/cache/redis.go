package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const artifactKeyPrefix = "artifact:"

// RedisStore は成果物を Redis に保存するストアです。
// 期限管理は Redis のキーTTLに委ねます。
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore は RedisStore を作成します。
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		ttl: ttl,
	}
}

// Put は成果物をJSONとして保存します。
func (s *RedisStore) Put(ctx context.Context, token string, artifact *Artifact) error {
	if token == "" {
		return fmt.Errorf("cache: token is required")
	}
	if artifact == nil || len(artifact.Data) == 0 {
		return fmt.Errorf("cache: artifact is empty")
	}

	payload, err := json.Marshal(artifact)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, artifactKey(token), payload, s.ttl).Err()
}

// Get は成果物を取得します。
func (s *RedisStore) Get(ctx context.Context, token string) (*Artifact, error) {
	data, err := s.rdb.Get(ctx, artifactKey(token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, err
	}
	return &artifact, nil
}

// Evict はトークンに対応するエントリを破棄します。
func (s *RedisStore) Evict(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, artifactKey(token)).Err()
}

func artifactKey(token string) string {
	return artifactKeyPrefix + token
}
