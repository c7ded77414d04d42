package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(cfg Config) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	return &RedisStore{rdb: rdb, ttl: ttl}, nil
}

// Key helpers
func sessionKey(documentID string) string {
	return fmt.Sprintf("rai:session:%s", documentID)
}

const sessionIndexKey = "rai:sessions"

// Save persists a session and registers it in the session index.
func (s *RedisStore) Save(ctx context.Context, sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	key := sessionKey(sess.DocumentID)
	if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	if err := s.rdb.SAdd(ctx, sessionIndexKey, sess.DocumentID).Err(); err != nil {
		return fmt.Errorf("sadd failed: %w", err)
	}
	return nil
}

// Get fetches a session by document ID. Returns nil when absent.
func (s *RedisStore) Get(ctx context.Context, documentID string) (*Session, error) {
	val, err := s.rdb.Get(ctx, sessionKey(documentID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// List returns every stored session, pruning index entries whose keys have
// expired.
func (s *RedisStore) List(ctx context.Context) ([]Session, error) {
	ids, err := s.rdb.SMembers(ctx, sessionIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers failed: %w", err)
	}

	sessions := make([]Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if sess == nil {
			_ = s.rdb.SRem(ctx, sessionIndexKey, id).Err()
			continue
		}
		sessions = append(sessions, *sess)
	}
	return sessions, nil
}

// Delete removes a session and its index entry.
func (s *RedisStore) Delete(ctx context.Context, documentID string) error {
	if err := s.rdb.Del(ctx, sessionKey(documentID)).Err(); err != nil {
		return fmt.Errorf("del failed: %w", err)
	}
	return s.rdb.SRem(ctx, sessionIndexKey, documentID).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
