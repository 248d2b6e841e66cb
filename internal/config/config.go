// Package config reads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"fitdiary/internal/models"
)

const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"

	SinkFile = "file"
	SinkS3   = "s3"
)

type Config struct {
	Port      string
	JWTSecret string

	DatabaseURL   string
	RecordBackend string
	MongoURI      string
	MongoDB       string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	EntryValidation models.ValidationPolicy

	ExportSink          string
	ExportDir           string
	S3Bucket            string
	S3Region            string
	S3Prefix            string
	ExportRatePerMinute int

	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	RemindersEnabled bool
}

// Load reads .env when present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv and validates it.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	var errs []error
	getInt := func(key string, fallback int) int {
		v := get(key, "")
		if v == "" {
			return fallback
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return fallback
		}
		return n
	}
	getBool := func(key string, fallback bool) bool {
		v := get(key, "")
		if v == "" {
			return fallback
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return fallback
		}
		return b
	}

	cfg := Config{
		Port:                get("PORT", "8080"),
		JWTSecret:           get("JWT_SECRET", ""),
		DatabaseURL:         get("DATABASE_URL", ""),
		RecordBackend:       strings.ToLower(get("RECORD_BACKEND", BackendPostgres)),
		MongoURI:            get("MONGO_URI", ""),
		MongoDB:             get("MONGO_DB", "fitdiary"),
		RedisAddr:           get("REDIS_ADDR", ""),
		RedisPassword:       get("REDIS_PASSWORD", ""),
		RedisDB:             getInt("REDIS_DB", 0),
		ExportSink:          strings.ToLower(get("EXPORT_SINK", SinkFile)),
		ExportDir:           get("EXPORT_DIR", "./exports"),
		S3Bucket:            get("S3_BUCKET", ""),
		S3Region:            get("S3_REGION", "us-east-1"),
		S3Prefix:            get("S3_PREFIX", "exports"),
		ExportRatePerMinute: getInt("EXPORT_RATE_PER_MINUTE", 10),
		LogLevel:            strings.ToLower(get("LOG_LEVEL", "info")),
		LogPath:             get("LOG_PATH", ""),
		LogMaxSizeMB:        getInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups:       getInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays:       getInt("LOG_MAX_AGE_DAYS", 7),
		RemindersEnabled:    getBool("REMINDERS_ENABLED", true),
	}

	ttl, err := time.ParseDuration(get("CACHE_TTL", "5m"))
	if err != nil {
		errs = append(errs, fmt.Errorf("CACHE_TTL: %w", err))
	}
	cfg.CacheTTL = ttl

	policy, ok := models.ParsePolicy(get("ENTRY_VALIDATION", string(models.PolicyStrict)))
	if !ok {
		errs = append(errs, fmt.Errorf("ENTRY_VALIDATION: unknown policy %q", getenv("ENTRY_VALIDATION")))
	}
	cfg.EntryValidation = policy

	if err := cfg.validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.RecordBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	case BackendMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo backend"))
		}
		// user ids key persisted records, so users must persist as well
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the mongo backend"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("RECORD_BACKEND: unknown backend %q", c.RecordBackend))
	}
	switch c.ExportSink {
	case SinkFile:
	case SinkS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for the s3 export sink"))
		}
	default:
		errs = append(errs, fmt.Errorf("EXPORT_SINK: unknown sink %q", c.ExportSink))
	}
	if c.ExportRatePerMinute <= 0 {
		errs = append(errs, errors.New("EXPORT_RATE_PER_MINUTE must be positive"))
	}
	return errors.Join(errs...)
}
