// Package session keeps server-side session records in Redis.  Keys hold
// only the SHA-256 hash of a session id and expire with the session.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/theater-booking/internal/model"
	"github.com/iliyamo/theater-booking/internal/utils"
)

// RedisStore implements the session store on Redis.  Each session is a
// string key holding the user id; a per-user set indexes the user's
// sessions so they can all be revoked at once.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore returns a store using keys under prefix ("session" when empty).
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "session"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(hash string) string { return s.prefix + ":" + hash }

func (s *RedisStore) userKey(userID int64) string {
	return s.prefix + ":user:" + strconv.FormatInt(userID, 10)
}

// Create stores a session that expires at exp.
func (s *RedisStore) Create(ctx context.Context, sid string, userID int64, exp time.Time) error {
	ttl := time.Until(exp)
	if ttl <= 0 {
		return fmt.Errorf("store session: already expired")
	}
	hash := utils.HashSessionID(sid)
	ukey := s.userKey(userID)

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.key(hash), userID, ttl)
	pipe.SAdd(ctx, ukey, hash)
	// Sessions share one TTL, so the newest one outlives the rest.
	pipe.Expire(ctx, ukey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Lookup returns the user bound to a live session, or ErrNotFound.
func (s *RedisStore) Lookup(ctx context.Context, sid string) (int64, error) {
	id, err := s.rdb.Get(ctx, s.key(utils.HashSessionID(sid))).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, model.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lookup session: %w", err)
	}
	return id, nil
}

// Revoke deletes one session.  Revoking an unknown session is a no-op.
func (s *RedisStore) Revoke(ctx context.Context, sid string) error {
	hash := utils.HashSessionID(sid)
	id, err := s.rdb.Get(ctx, s.key(hash)).Int64()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.key(hash))
	pipe.SRem(ctx, s.userKey(id), hash)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeAll deletes every session of a user.
func (s *RedisStore) RevokeAll(ctx context.Context, userID int64) error {
	ukey := s.userKey(userID)
	hashes, err := s.rdb.SMembers(ctx, ukey).Result()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	keys := make([]string, 0, len(hashes)+1)
	for _, h := range hashes {
		keys = append(keys, s.key(h))
	}
	keys = append(keys, ukey)
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return nil
}
