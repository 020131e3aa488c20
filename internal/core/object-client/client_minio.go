package objectclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"

	cfg "github.com/markdave123-py/storagegate/internal/config"
	"github.com/markdave123-py/storagegate/internal/core"
)

// minioAPI is the slice of *minio.Client the gateway uses, narrowed so that
// reads come back as bytes.
type minioAPI interface {
	Put(ctx context.Context, bucket, key string, data []byte, opts minio.PutObjectOptions) error
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Remove(ctx context.Context, bucket, key string) error
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket, region string) error
}

type MinioClient struct {
	api        minioAPI
	bucket     string
	publicHost string
	timeout    time.Duration
}

func NewMinioClient(ctx context.Context, conf *cfg.Config) (*MinioClient, error) {
	if strings.TrimSpace(conf.BucketName) == "" {
		return nil, fmt.Errorf("minio bucket name not set")
	}
	endpoint, secure, err := parseEndpoint(conf.MinioEndpoint, conf.MinioUseSSL)
	if err != nil {
		return nil, err
	}

	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(conf.AwsAccessKey, conf.AwsSecretKey, ""),
		Secure: secure,
		Region: conf.AwsRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	publicHost := conf.PublicURLHost
	if publicHost == "" {
		publicHost = endpoint
	}

	client := &MinioClient{
		api:        &minioAdapter{client: mc},
		bucket:     conf.BucketName,
		publicHost: publicHost,
		timeout:    conf.StorageTimeout,
	}
	if conf.MinioAutoCreateBucket {
		if err := client.ensureBucket(ctx, conf.AwsRegion); err != nil {
			return nil, err
		}
	}

	log.WithFields(log.Fields{
		"bucket":   conf.BucketName,
		"endpoint": endpoint,
	}).Info("MinIO client initialized")
	return client, nil
}

func (m *MinioClient) UploadFile(ctx context.Context, key string, data []byte, opts core.PutOptions) (string, error) {
	if key == "" {
		return "", core.NewStorageError(core.KindInvalidInput, "minio put", key, errEmptyKey)
	}

	putOpts := minio.PutObjectOptions{ContentType: opts.ContentType}
	if putOpts.ContentType == "" {
		putOpts.ContentType = "application/octet-stream"
	}
	if opts.PublicRead {
		putOpts.UserMetadata = map[string]string{"x-amz-acl": "public-read"}
	}

	ctxPut, cancel := withTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.api.Put(ctxPut, m.bucket, key, data, putOpts); err != nil {
		return "", classifyMinioError("minio put", key, err)
	}
	return m.ObjectURL(key), nil
}

func (m *MinioClient) GetFile(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, core.NewStorageError(core.KindInvalidInput, "minio get", key, errEmptyKey)
	}

	ctxGet, cancel := withTimeout(ctx, m.timeout)
	defer cancel()

	data, err := m.api.Get(ctxGet, m.bucket, key)
	if err != nil {
		return nil, classifyMinioError("minio get", key, err)
	}
	return data, nil
}

func (m *MinioClient) DeleteFile(ctx context.Context, key string) error {
	if key == "" {
		return core.NewStorageError(core.KindInvalidInput, "minio delete", key, errEmptyKey)
	}

	ctxDel, cancel := withTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.api.Remove(ctxDel, m.bucket, key); err != nil {
		classified := classifyMinioError("minio delete", key, err)
		if core.IsNotFound(classified) {
			return nil
		}
		return classified
	}
	return nil
}

func (m *MinioClient) ObjectURL(key string) string {
	return publicURL(m.bucket, m.publicHost, key)
}

func (m *MinioClient) Ping(ctx context.Context) error {
	ctxPing, cancel := withTimeout(ctx, m.timeout)
	defer cancel()

	exists, err := m.api.BucketExists(ctxPing, m.bucket)
	if err != nil {
		return classifyMinioError("minio bucket exists", m.bucket, err)
	}
	if !exists {
		return core.NewStorageError(core.KindNotFound, "minio bucket exists", m.bucket, errors.New("bucket does not exist"))
	}
	return nil
}

// ensureBucket creates the bucket if it doesn't exist
func (m *MinioClient) ensureBucket(ctx context.Context, region string) error {
	exists, err := m.api.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.api.MakeBucket(ctx, m.bucket, region); err != nil {
		return fmt.Errorf("create bucket %q: %w", m.bucket, err)
	}
	log.WithField("bucket", m.bucket).Info("Created bucket")
	return nil
}

func classifyMinioError(op, key string, err error) error {
	return core.NewStorageError(minioErrorKind(err), op, key, err)
}

func minioErrorKind(err error) core.ErrorKind {
	var response minio.ErrorResponse
	if errors.As(err, &response) {
		switch response.Code {
		case "NoSuchBucket":
			return core.KindUnknown
		case "NoSuchKey", "NotFound":
			return core.KindNotFound
		case "InvalidArgument", "KeyTooLongError", "XMinioInvalidObjectName":
			return core.KindInvalidInput
		case "SlowDown", "ServiceUnavailable", "InternalError", "XMinioServerNotInitialized":
			return core.KindUpstreamUnavailable
		}
		if response.StatusCode >= 500 {
			return core.KindUpstreamUnavailable
		}
	}
	return core.KindOf(err)
}

func parseEndpoint(raw string, useSSL bool) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("minio endpoint is required")
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		parsed, err := url.Parse(raw)
		if err != nil {
			return "", false, fmt.Errorf("parse endpoint URL: %w", err)
		}
		if parsed.Host == "" {
			return "", false, fmt.Errorf("endpoint host is required")
		}
		if parsed.Scheme == "https" {
			return parsed.Host, true, nil
		}
		return parsed.Host, useSSL, nil
	}
	return raw, useSSL, nil
}

type minioAdapter struct {
	client *minio.Client
}

func (a *minioAdapter) Put(ctx context.Context, bucket, key string, data []byte, opts minio.PutObjectOptions) error {
	_, err := a.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), opts)
	return err
}

func (a *minioAdapter) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := a.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

func (a *minioAdapter) Remove(ctx context.Context, bucket, key string) error {
	return a.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
}

func (a *minioAdapter) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return a.client.BucketExists(ctx, bucket)
}

func (a *minioAdapter) MakeBucket(ctx context.Context, bucket, region string) error {
	return a.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
}
