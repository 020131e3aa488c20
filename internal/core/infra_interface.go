package core

import (
	"context"
)

// PutOptions carries the per-object settings sent along with an upload.
type PutOptions struct {
	ContentType string
	PublicRead  bool
}

// ObjectClient defines interactions with S3 or any object storage.
// One client serves one bucket; keys are passed through verbatim.
//
// Failures are returned as *StorageError so callers can branch on KindOf.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data []byte, opts PutOptions) (url string, err error)
	GetFile(ctx context.Context, key string) ([]byte, error)
	// DeleteFile succeeds when the key does not exist.
	DeleteFile(ctx context.Context, key string) error

	ObjectURL(key string) string
	Ping(ctx context.Context) error
}
