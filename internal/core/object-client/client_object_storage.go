package objectclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	log "github.com/sirupsen/logrus"

	cfg "github.com/markdave123-py/storagegate/internal/config"
	"github.com/markdave123-py/storagegate/internal/core"
)

type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type S3Client struct {
	api        s3API
	uploader   uploader
	bucket     string
	publicHost string
	timeout    time.Duration
}

func NewS3Client(ctx context.Context, cfg *cfg.Config) (*S3Client, error) {
	if (cfg.AwsAccessKey == "") != (cfg.AwsSecretKey == "") {
		return nil, fmt.Errorf("AWS credentials incomplete: set both access key and secret key")
	}
	if cfg.AwsRegion == "" {
		return nil, fmt.Errorf("AWS_REGION not set")
	}
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("S3 bucket name not set")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AwsRegion)}
	if cfg.AwsAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AwsAccessKey, cfg.AwsSecretKey, ""),
		))
	} else {
		log.Info("No static AWS credentials configured, using the default credential chain")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3PathStyle
	})

	publicHost := cfg.PublicURLHost
	if publicHost == "" {
		publicHost = fmt.Sprintf("s3.%s.amazonaws.com", cfg.AwsRegion)
	}

	log.WithFields(log.Fields{
		"bucket": cfg.BucketName,
		"region": cfg.AwsRegion,
	}).Info("Connected to AWS S3 successfully")

	return &S3Client{
		api:        client,
		uploader:   manager.NewUploader(client),
		bucket:     cfg.BucketName,
		publicHost: publicHost,
		timeout:    cfg.StorageTimeout,
	}, nil
}

// UploadFile uploads a file to S3 and returns the public URL.
func (c *S3Client) UploadFile(ctx context.Context, key string, data []byte, opts core.PutOptions) (string, error) {
	if key == "" {
		return "", core.NewStorageError(core.KindInvalidInput, "s3 put", key, errEmptyKey)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if opts.PublicRead {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	ctxUpload, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.uploader.Upload(ctxUpload, input); err != nil {
		return "", classifyS3Error("s3 put", key, err)
	}
	return c.ObjectURL(key), nil
}

func (c *S3Client) DeleteFile(ctx context.Context, key string) error {
	if key == "" {
		return core.NewStorageError(core.KindInvalidInput, "s3 delete", key, errEmptyKey)
	}

	ctxDel, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.api.DeleteObject(ctxDel, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		classified := classifyS3Error("s3 delete", key, err)
		if core.IsNotFound(classified) {
			return nil
		}
		return classified
	}
	return nil
}

func (c *S3Client) GetFile(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, core.NewStorageError(core.KindInvalidInput, "s3 get", key, errEmptyKey)
	}

	ctxGet, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.GetObject(ctxGet, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classifyS3Error("s3 get", key, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.WithFields(log.Fields{
				"op":  "get",
				"key": key,
			}).Warning("Could not close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyS3Error("s3 read body", key, err)
	}
	return body, nil
}

func (c *S3Client) ObjectURL(key string) string {
	return publicURL(c.bucket, c.publicHost, key)
}

// Ping checks the bucket is reachable with the configured credentials.
func (c *S3Client) Ping(ctx context.Context) error {
	ctxHead, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.api.HeadBucket(ctxHead, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)}); err != nil {
		return classifyS3Error("s3 head bucket", c.bucket, err)
	}
	return nil
}
