package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	apperrors "trialguard/internal/errors"
)

const redisKeyPrefix = "trialguard:"

// RedisStore keeps preferences in Redis, one string key per namespace/key
// pair, so several installations can share a trial record.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps an existing client. The caller keeps ownership of
// the client unless Close is called.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: redisKeyPrefix,
	}
}

// OpenRedis connects to the server at url (redis://...) and pings it.
func OpenRedis(ctx context.Context, url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to parse redis url", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, apperrors.NewStorageError("failed to connect to redis", err)
	}
	return NewRedisStore(rdb), nil
}

func (r *RedisStore) key(ns, key string) string {
	return r.prefix + ns + ":" + key
}

func (r *RedisStore) Get(ctx context.Context, ns, key string) (int64, bool, error) {
	v, err := r.client.Get(ctx, r.key(ns, key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, apperrors.NewStorageError(fmt.Sprintf("failed to read %s/%s", ns, key), err)
	}
	return v, true, nil
}

func (r *RedisStore) Set(ctx context.Context, ns, key string, value int64) error {
	if err := r.client.Set(ctx, r.key(ns, key), value, 0).Err(); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %s/%s", ns, key), err)
	}
	return nil
}

func (r *RedisStore) Close() error { return r.client.Close() }
