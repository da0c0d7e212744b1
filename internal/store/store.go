package store

import (
	"context"
	"fmt"

	miniolib "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dtroode/electrobill-session/internal/config"
	"github.com/dtroode/electrobill-session/internal/model"
	"github.com/dtroode/electrobill-session/internal/store/file"
	"github.com/dtroode/electrobill-session/internal/store/memory"
	"github.com/dtroode/electrobill-session/internal/store/minio"
	"github.com/dtroode/electrobill-session/internal/store/redis"
)

// Backend names accepted by STORE_BACKEND.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMinio  = "minio"
)

// Open builds the persistent store selected by cfg. The returned close
// function releases backend connections and is never nil.
func Open(ctx context.Context, cfg *config.Config) (model.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Backend {
	case BackendFile, "":
		return file.New(cfg.Store.FilePath), noop, nil

	case BackendMemory:
		return memory.New(), noop, nil

	case BackendRedis:
		s, err := redis.Open(ctx, cfg.Redis.URL, cfg.Store.Namespace)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open redis store: %w", err)
		}
		return s, s.Close, nil

	case BackendMinio:
		client, err := miniolib.New(cfg.Minio.Endpoint, &miniolib.Options{
			Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
			Secure: cfg.Minio.UseSSL,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create minio client: %w", err)
		}
		s, err := minio.NewStore(ctx, client, cfg.Minio.Bucket, cfg.Store.Namespace)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open minio store: %w", err)
		}
		return s, noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
