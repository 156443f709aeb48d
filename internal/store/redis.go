package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"staffattendance/internal/apperr"
)

// Redis stores each logical key as a plain string value under a prefix.
type Redis struct {
	Client *redis.Client
	prefix string
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr, prefix string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return NewRedisWithClient(client, prefix)
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, prefix string) *Redis {
	return &Redis{Client: client, prefix: prefix}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.Client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperr.Storage("redis get "+key, err)
	}
	return v, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.Client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return apperr.Storage("redis set "+key, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.Client.Del(ctx, r.prefix+key).Err(); err != nil {
		return apperr.Storage("redis del "+key, err)
	}
	return nil
}

// Ping verifies redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return apperr.Storage("redis ping", errors.New("no client"))
	}
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return apperr.Storage("redis ping", err)
	}
	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
