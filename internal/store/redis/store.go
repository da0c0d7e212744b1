package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dtroode/electrobill-session/internal/model"
)

const keyPrefix = "electrobill"

var _ model.Store = (*Store)(nil)

// Store keeps session keys in Redis under "electrobill:<namespace>:<key>".
// The namespace separates terminals sharing one Redis instance.
type Store struct {
	client    goredis.UniversalClient
	namespace string
}

// New wraps an existing client.
func New(client goredis.UniversalClient, namespace string) *Store {
	return &Store{client: client, namespace: namespace}
}

// Open connects to the Redis instance described by url and checks it responds.
func Open(ctx context.Context, url, namespace string) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return New(client, namespace), nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", model.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get key: %w", err)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(key string) string {
	if s.namespace == "" {
		return keyPrefix + ":" + key
	}
	return keyPrefix + ":" + s.namespace + ":" + key
}
