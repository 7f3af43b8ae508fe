package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis configures a Redis client using the supplied URL.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url must not be empty")
	}

	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}

	return client, nil
}

// Redis stores entries as plain keys under a namespace prefix.
type Redis struct {
	client    *redis.Client
	namespace string
}

// NewRedis wraps an existing client. An empty namespace defaults to "courseforge".
func NewRedis(client *redis.Client, namespace string) *Redis {
	if namespace == "" {
		namespace = "courseforge"
	}
	return &Redis{client: client, namespace: namespace}
}

func (r *Redis) key(name string) string {
	return r.namespace + ":" + name
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *Redis) SetAll(ctx context.Context, entries map[string]string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, value := range entries {
			pipe.Set(ctx, r.key(key), value, 0)
		}
		return nil
	})
	return err
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	namespaced := make([]string, 0, len(keys))
	for _, key := range keys {
		namespaced = append(namespaced, r.key(key))
	}
	return r.client.Del(ctx, namespaced...).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
