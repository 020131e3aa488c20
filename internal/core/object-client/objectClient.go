package objectclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	cfg "github.com/markdave123-py/storagegate/internal/config"
	"github.com/markdave123-py/storagegate/internal/core"
)

var errEmptyKey = errors.New("object key is empty")

// NewObjectClient builds the backend named by STORAGE_BACKEND and wraps it
// with metrics.
func NewObjectClient(ctx context.Context, conf *cfg.Config) (core.ObjectClient, error) {
	var client core.ObjectClient

	switch conf.StorageBackend {
	case cfg.BackendS3:
		s3Client, err := NewS3Client(ctx, conf)
		if err != nil {
			return nil, err
		}
		client = s3Client
	case cfg.BackendMinio:
		minioClient, err := NewMinioClient(ctx, conf)
		if err != nil {
			return nil, err
		}
		client = minioClient
	case cfg.BackendMemory:
		bucket := conf.BucketName
		if bucket == "" {
			bucket = "local"
		}
		client = NewMemoryClient(bucket, conf.PublicURLHost)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", conf.StorageBackend)
	}

	return Instrument(conf.StorageBackend, client), nil
}

// publicURL follows the virtual-hosted convention https://{bucket}.{host}/{key}.
// The key is not escaped.
func publicURL(bucket, host, key string) string {
	return fmt.Sprintf("https://%s.%s/%s", bucket, host, key)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
