package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// fileConfig is the TOML layout accepted in GATEWAY_CONFIG. Unset keys leave
// the defaults alone; environment variables still win over the file.
type fileConfig struct {
	Port    string      `toml:"port"`
	Storage storageFile `toml:"storage"`
	HTTP    httpFile    `toml:"http"`
	Log     logFile     `toml:"log"`
}

type storageFile struct {
	Backend         string `toml:"backend"`
	AccessKey       string `toml:"access_key"`
	SecretKey       string `toml:"secret_key"`
	Region          string `toml:"region"`
	Bucket          string `toml:"bucket"`
	Endpoint        string `toml:"endpoint"`
	PathStyle       *bool  `toml:"path_style"`
	PublicURLHost   string `toml:"public_url_host"`
	VideoPublicRead *bool  `toml:"video_public_read"`
	Timeout         string `toml:"timeout"`

	Minio minioFile `toml:"minio"`
}

type minioFile struct {
	Endpoint         string `toml:"endpoint"`
	UseSSL           *bool  `toml:"use_ssl"`
	AutoCreateBucket *bool  `toml:"auto_create_bucket"`
}

type httpFile struct {
	RequestTimeout       string   `toml:"request_timeout"`
	ShutdownTimeout      string   `toml:"shutdown_timeout"`
	MaxUploadBytes       *int64   `toml:"max_upload_bytes"`
	MultipartMemoryBytes *int64   `toml:"multipart_memory_bytes"`
	CorsAllowedOrigins   []string `toml:"cors_allowed_origins"`
}

type logFile struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func applyFile(cfg *Config, path string) error {
	var f fileConfig
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return fmt.Errorf("decode config file %q: %w", path, err)
	}

	setString(&cfg.Port, f.Port)
	setString(&cfg.StorageBackend, strings.ToLower(f.Storage.Backend))
	setString(&cfg.AwsAccessKey, f.Storage.AccessKey)
	setString(&cfg.AwsSecretKey, f.Storage.SecretKey)
	setString(&cfg.AwsRegion, f.Storage.Region)
	setString(&cfg.BucketName, f.Storage.Bucket)
	setString(&cfg.S3Endpoint, f.Storage.Endpoint)
	setBool(&cfg.S3PathStyle, f.Storage.PathStyle)
	setString(&cfg.PublicURLHost, f.Storage.PublicURLHost)
	setBool(&cfg.VideoPublicRead, f.Storage.VideoPublicRead)
	setString(&cfg.MinioEndpoint, f.Storage.Minio.Endpoint)
	setBool(&cfg.MinioUseSSL, f.Storage.Minio.UseSSL)
	setBool(&cfg.MinioAutoCreateBucket, f.Storage.Minio.AutoCreateBucket)
	setString(&cfg.LogLevel, f.Log.Level)
	setString(&cfg.LogFormat, f.Log.Format)

	if f.HTTP.MaxUploadBytes != nil {
		cfg.MaxUploadBytes = *f.HTTP.MaxUploadBytes
	}
	if f.HTTP.MultipartMemoryBytes != nil {
		cfg.MultipartMemoryBytes = *f.HTTP.MultipartMemoryBytes
	}
	if len(f.HTTP.CorsAllowedOrigins) > 0 {
		cfg.CorsAllowedOrigins = f.HTTP.CorsAllowedOrigins
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"storage.timeout", f.Storage.Timeout, &cfg.StorageTimeout},
		{"http.request_timeout", f.HTTP.RequestTimeout, &cfg.RequestTimeout},
		{"http.shutdown_timeout", f.HTTP.ShutdownTimeout, &cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("config file %q: %s: %w", path, d.name, err)
		}
		*d.dst = parsed
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
