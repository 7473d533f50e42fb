package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage implements Storage on top of plain Redis string keys.
// Every path is stored under prefix + path; List scans one directory level.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedisClient creates a Redis client with the timeouts used across the board.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     10,
	})
}

// NewRedisStorage creates a RedisStorage and verifies the connection.
func NewRedisStorage(ctx context.Context, client *redis.Client, prefix string) (*RedisStorage, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStorage{
		client: client,
		prefix: strings.TrimSuffix(prefix, "/") + "/",
	}, nil
}

func (s *RedisStorage) key(path string) string {
	return s.prefix + strings.TrimPrefix(path, "/")
}

func (s *RedisStorage) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(path)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("redis get %s: %w", path, err)
	}
	return data, nil
}

func (s *RedisStorage) Write(ctx context.Context, path string, data []byte) error {
	if err := s.client.Set(ctx, s.key(path), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", path, err)
	}
	return nil
}

func (s *RedisStorage) Delete(ctx context.Context, path string) error {
	n, err := s.client.Del(ctx, s.key(path)).Result()
	if err != nil {
		return fmt.Errorf("redis del %s: %w", path, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return nil
}

func (s *RedisStorage) List(ctx context.Context, prefix string) ([]string, error) {
	dir := s.key(prefix)
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	var paths []string
	iter := s.client.Scan(ctx, 0, dir+"*", 100).Iterator()
	for iter.Next(ctx) {
		rel := strings.TrimPrefix(iter.Val(), dir)
		if strings.Contains(rel, "/") {
			continue
		}
		paths = append(paths, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", prefix, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *RedisStorage) Exists(ctx context.Context, path string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(path)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", path, err)
	}
	return n > 0, nil
}
