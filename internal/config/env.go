package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	BackendS3     = "s3"
	BackendMinio  = "minio"
	BackendMemory = "memory"
)

type Config struct {
	Port string

	StorageBackend string
	AwsAccessKey   string
	AwsSecretKey   string
	AwsRegion      string
	BucketName     string
	S3Endpoint     string
	S3PathStyle    bool

	MinioEndpoint         string
	MinioUseSSL           bool
	MinioAutoCreateBucket bool

	PublicURLHost   string
	VideoPublicRead bool

	StorageTimeout  time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	MaxUploadBytes       int64
	MultipartMemoryBytes int64

	CorsAllowedOrigins []string

	LogLevel  string
	LogFormat string
}

// LookupFunc matches os.LookupEnv so tests can feed their own environment.
type LookupFunc func(string) (string, bool)

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port:                 "8080",
		StorageBackend:       BackendS3,
		AwsRegion:            "us-east-2",
		MinioEndpoint:        "localhost:9000",
		StorageTimeout:       30 * time.Second,
		RequestTimeout:       60 * time.Second,
		ShutdownTimeout:      15 * time.Second,
		MultipartMemoryBytes: 32 << 20,
		CorsAllowedOrigins:   []string{"*"},
		LogLevel:             "info",
		LogFormat:            "text",
	}
}

// LoadConfig loads the environment variables and return config
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()
	return Load(os.LookupEnv)
}

// Load builds the config from defaults, then the optional TOML file named by
// GATEWAY_CONFIG, then the environment.
func Load(lookup LookupFunc) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg := Default()

	if path := getEnv(lookup, "GATEWAY_CONFIG", ""); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	env := envReader{lookup: lookup}
	cfg.Port = env.str(cfg.Port, "PORT")
	cfg.StorageBackend = strings.ToLower(env.str(cfg.StorageBackend, "STORAGE_BACKEND"))
	cfg.AwsAccessKey = env.str(cfg.AwsAccessKey, "ACCESS_KEY_ID", "AWS_ACCESS_KEY")
	cfg.AwsSecretKey = env.str(cfg.AwsSecretKey, "SECRET_ACCESS_KEY", "AWS_SECRET_KEY")
	cfg.AwsRegion = env.str(cfg.AwsRegion, "AWS_REGION")
	cfg.BucketName = env.str(cfg.BucketName, "AWS_BUCKET_NAME", "BUCKET_NAME")
	cfg.S3Endpoint = env.str(cfg.S3Endpoint, "S3_ENDPOINT")
	cfg.S3PathStyle = env.boolean(cfg.S3PathStyle, "S3_FORCE_PATH_STYLE")
	cfg.MinioEndpoint = env.str(cfg.MinioEndpoint, "MINIO_ENDPOINT")
	cfg.MinioUseSSL = env.boolean(cfg.MinioUseSSL, "MINIO_USE_SSL")
	cfg.MinioAutoCreateBucket = env.boolean(cfg.MinioAutoCreateBucket, "MINIO_AUTO_CREATE_BUCKET")
	cfg.PublicURLHost = env.str(cfg.PublicURLHost, "PUBLIC_URL_HOST")
	cfg.VideoPublicRead = env.boolean(cfg.VideoPublicRead, "VIDEO_PUBLIC_READ")
	cfg.StorageTimeout = env.duration(cfg.StorageTimeout, "STORAGE_TIMEOUT")
	cfg.RequestTimeout = env.duration(cfg.RequestTimeout, "REQUEST_TIMEOUT")
	cfg.ShutdownTimeout = env.duration(cfg.ShutdownTimeout, "SHUTDOWN_TIMEOUT")
	cfg.MaxUploadBytes = env.int64(cfg.MaxUploadBytes, "MAX_UPLOAD_BYTES")
	cfg.MultipartMemoryBytes = env.int64(cfg.MultipartMemoryBytes, "MULTIPART_MEMORY_BYTES")
	cfg.CorsAllowedOrigins = env.list(cfg.CorsAllowedOrigins, "CORS_ALLOWED_ORIGINS")
	cfg.LogLevel = env.str(cfg.LogLevel, "LOG_LEVEL")
	cfg.LogFormat = env.str(cfg.LogFormat, "LOG_FORMAT")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendS3, BackendMinio:
		if strings.TrimSpace(c.BucketName) == "" {
			return fmt.Errorf("AWS_BUCKET_NAME not set")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (want s3, minio or memory)", c.StorageBackend)
	}
	if c.Port == "" {
		return fmt.Errorf("PORT not set")
	}
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must not be negative")
	}
	if c.MultipartMemoryBytes <= 0 {
		return fmt.Errorf("MULTIPART_MEMORY_BYTES must be positive")
	}
	if c.StorageTimeout < 0 || c.RequestTimeout < 0 || c.ShutdownTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	// the storage call has to give up first so its error reaches the client
	if c.RequestTimeout > 0 && c.StorageTimeout >= c.RequestTimeout {
		return fmt.Errorf("STORAGE_TIMEOUT (%s) must be shorter than REQUEST_TIMEOUT (%s)", c.StorageTimeout, c.RequestTimeout)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q (want text or json)", c.LogFormat)
	}
	return nil
}

// Helper to read environment variables with a default fallback
func getEnv(lookup LookupFunc, key, fallback string) string {
	if value, exists := lookup(key); exists {
		return value
	}
	return fallback
}

// envReader reads the first set key out of a list of aliases. Malformed
// values keep the current setting and log a warning.
type envReader struct {
	lookup LookupFunc
}

func (e envReader) raw(keys ...string) (string, string, bool) {
	for _, key := range keys {
		if v, ok := e.lookup(key); ok && strings.TrimSpace(v) != "" {
			return key, strings.TrimSpace(v), true
		}
	}
	return "", "", false
}

func (e envReader) str(def string, keys ...string) string {
	if _, v, ok := e.raw(keys...); ok {
		return v
	}
	return def
}

func (e envReader) boolean(def bool, keys ...string) bool {
	key, v, ok := e.raw(keys...)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warnf("%s=%q not a bool, using default %t", key, v, def)
		return def
	}
	return b
}

func (e envReader) int64(def int64, keys ...string) int64 {
	key, v, ok := e.raw(keys...)
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Warnf("%s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func (e envReader) duration(def time.Duration, keys ...string) time.Duration {
	key, v, ok := e.raw(keys...)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warnf("%s=%q not a duration, using default %s", key, v, def)
		return def
	}
	return d
}

func (e envReader) list(def []string, keys ...string) []string {
	_, v, ok := e.raw(keys...)
	if !ok {
		return def
	}
	return splitList(v)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
