package config

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

func clearSettingsEnv(t *testing.T) {
	for _, key := range []string{
		"PORT", "STORAGE_PROVIDER", "ARTIFACT_DIR", "ARTIFACT_TTL_SECONDS", "GCS_BUCKET",
		"REDIS_ADDRESS", "MAX_UPLOAD_MB", "LEDGER_SORT_MODE", "LEDGER_OUTPUT_FORMAT",
		"AUTH_REQUIRED", "API_SECRET", "SERIALIZE_RUNS", "LEDGER_EVENTS_TOPIC",
		"SHUTDOWN_TIMEOUT_SECONDS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadSettings_Defaults(t *testing.T) {
	clearSettingsEnv(t)

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.Port != "8080" {
		t.Fatalf("expected port 8080, got %q", s.Port)
	}
	if s.StorageProvider != StorageProviderLocal {
		t.Fatalf("expected local provider without redis, got %q", s.StorageProvider)
	}
	if s.MaxUploadBytes() != 25<<20 {
		t.Fatalf("expected 25MB upload cap, got %d", s.MaxUploadBytes())
	}
	if s.SortMode != "chronological" || s.OutputFormat != "csv" {
		t.Fatalf("unexpected defaults sort=%q format=%q", s.SortMode, s.OutputFormat)
	}
	if s.ArtifactTTL().Seconds() != 3600 {
		t.Fatalf("expected 1h artifact ttl, got %s", s.ArtifactTTL())
	}
}

func TestLoadSettings_RedisAddressSelectsRedis(t *testing.T) {
	clearSettingsEnv(t)
	t.Setenv("REDIS_ADDRESS", "localhost:6379")

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.StorageProvider != StorageProviderRedis {
		t.Fatalf("expected redis provider, got %q", s.StorageProvider)
	}
}

func TestLoadSettings_Rejects(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"unknown provider", map[string]string{"STORAGE_PROVIDER": "s3"}},
		{"gcs without bucket", map[string]string{"STORAGE_PROVIDER": "gcs"}},
		{"bad sort", map[string]string{"LEDGER_SORT_MODE": "random"}},
		{"bad format", map[string]string{"LEDGER_OUTPUT_FORMAT": "json"}},
		{"auth without secret", map[string]string{"AUTH_REQUIRED": "true"}},
		{"zero upload cap", map[string]string{"MAX_UPLOAD_MB": "0"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearSettingsEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadSettings(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLogLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	if got := logLevelFromEnv(); got != logrus.DebugLevel {
		t.Fatalf("expected debug, got %s", got)
	}
	t.Setenv("LOG_LEVEL", "nonsense")
	if got := logLevelFromEnv(); got != logrus.InfoLevel {
		t.Fatalf("expected info fallback, got %s", got)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("SERIALIZE_RUNS", "Yes")
	if !SerializeRuns() {
		t.Fatalf("expected SERIALIZE_RUNS=Yes to enable serialization")
	}
	t.Setenv("REDIS_POOL_SIZE", "abc")
	if got := intFromEnv("REDIS_POOL_SIZE", 7); got != 7 {
		t.Fatalf("expected default for non-numeric value, got %d", got)
	}
}
