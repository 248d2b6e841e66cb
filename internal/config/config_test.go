package config

import (
	"strings"
	"testing"
	"time"

	"fitdiary/internal/models"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"JWT_SECRET":   "s3cret",
		"DATABASE_URL": "postgres://localhost/fitdiary",
	}))
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.RecordBackend != BackendPostgres || cfg.ExportSink != SinkFile {
		t.Errorf("backend/sink = %q/%q", cfg.RecordBackend, cfg.ExportSink)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.EntryValidation != models.PolicyStrict {
		t.Errorf("EntryValidation = %q", cfg.EntryValidation)
	}
	if cfg.ExportRatePerMinute != 10 || !cfg.RemindersEnabled {
		t.Errorf("rate/reminders = %d/%v", cfg.ExportRatePerMinute, cfg.RemindersEnabled)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"JWT_SECRET":        "s3cret",
		"RECORD_BACKEND":    "MEMORY",
		"CACHE_TTL":         "30s",
		"ENTRY_VALIDATION":  "permissive",
		"EXPORT_SINK":       "s3",
		"S3_BUCKET":         "diary-exports",
		"REDIS_DB":          "2",
		"REMINDERS_ENABLED": "false",
	}))
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.RecordBackend != BackendMemory {
		t.Errorf("RecordBackend = %q", cfg.RecordBackend)
	}
	if cfg.CacheTTL != 30*time.Second || cfg.RedisDB != 2 {
		t.Errorf("CacheTTL/RedisDB = %v/%d", cfg.CacheTTL, cfg.RedisDB)
	}
	if cfg.EntryValidation != models.PolicyPermissive {
		t.Errorf("EntryValidation = %q", cfg.EntryValidation)
	}
	if cfg.ExportSink != SinkS3 || cfg.S3Bucket != "diary-exports" {
		t.Errorf("sink = %q %q", cfg.ExportSink, cfg.S3Bucket)
	}
	if cfg.RemindersEnabled {
		t.Error("RemindersEnabled = true")
	}
}

func TestFromEnv_MongoWithUsersDB(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"JWT_SECRET":     "x",
		"RECORD_BACKEND": "mongo",
		"MONGO_URI":      "mongodb://localhost",
		"DATABASE_URL":   "postgres://localhost/fitdiary",
	}))
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.RecordBackend != BackendMongo {
		t.Errorf("RecordBackend = %q", cfg.RecordBackend)
	}
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{"RECORD_BACKEND": "memory"}, "JWT_SECRET"},
		{"postgres without url", map[string]string{"JWT_SECRET": "x"}, "DATABASE_URL"},
		{"mongo without uri", map[string]string{"JWT_SECRET": "x", "RECORD_BACKEND": "mongo"}, "MONGO_URI"},
		{"mongo without users db", map[string]string{"JWT_SECRET": "x", "RECORD_BACKEND": "mongo", "MONGO_URI": "mongodb://localhost"}, "DATABASE_URL"},
		{"unknown backend", map[string]string{"JWT_SECRET": "x", "RECORD_BACKEND": "sqlite"}, "RECORD_BACKEND"},
		{"s3 without bucket", map[string]string{"JWT_SECRET": "x", "RECORD_BACKEND": "memory", "EXPORT_SINK": "s3"}, "S3_BUCKET"},
		{"bad ttl", map[string]string{"JWT_SECRET": "x", "RECORD_BACKEND": "memory", "CACHE_TTL": "soon"}, "CACHE_TTL"},
		{"bad policy", map[string]string{"JWT_SECRET": "x", "RECORD_BACKEND": "memory", "ENTRY_VALIDATION": "lenient"}, "ENTRY_VALIDATION"},
		{"bad int", map[string]string{"JWT_SECRET": "x", "RECORD_BACKEND": "memory", "REDIS_DB": "one"}, "REDIS_DB"},
		{"zero rate", map[string]string{"JWT_SECRET": "x", "RECORD_BACKEND": "memory", "EXPORT_RATE_PER_MINUTE": "0"}, "EXPORT_RATE_PER_MINUTE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(envOf(tt.env))
			if err == nil {
				t.Fatal("FromEnv() error = nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("FromEnv() error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}
