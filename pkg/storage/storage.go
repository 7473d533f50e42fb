package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested path does not exist in storage.
var ErrNotFound = errors.New("not found")

// Storage provides an abstraction over key-value style file storage.
// Paths are slash separated, e.g. "workflow_tasks/2025-11-09.yaml".
type Storage interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// Options selects and configures a Storage backend.
type Options struct {
	Type      string // local, s3 or redis
	BaseDir   string
	S3Bucket  string
	S3Prefix  string
	S3Region  string
	RedisAddr string
	Prefix    string
}

// Open builds the Storage named by opts.Type. Unknown types fall back to local.
func Open(ctx context.Context, opts Options) (Storage, error) {
	switch opts.Type {
	case "s3":
		s, err := NewS3Storage(ctx, opts.S3Bucket, opts.S3Prefix, opts.S3Region)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis":
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis address is required for storage type %q", opts.Type)
		}
		s, err := NewRedisStorage(ctx, NewRedisClient(opts.RedisAddr), opts.Prefix)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := NewLocalStorage(opts.BaseDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
