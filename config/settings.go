package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StorageProviderRedis  = "redis"
	StorageProviderGCS    = "gcs"
	StorageProviderLocal  = "local"
	StorageProviderMemory = "memory"
)

// Settings is the validated runtime configuration of the ledger service.
type Settings struct {
	Port               string `validate:"required,numeric"`
	StorageProvider    string `validate:"oneof=redis gcs local memory"`
	ArtifactDir        string `validate:"required_if=StorageProvider local"`
	ArtifactTTLSeconds int    `validate:"min=0"`
	GcsBucket          string `validate:"required_if=StorageProvider gcs"`
	RedisAddress       string
	MaxUploadMB        int    `validate:"min=1,max=1024"`
	SortMode           string `validate:"oneof=chronological lexical"`
	OutputFormat       string `validate:"oneof=csv xlsx sqlite"`
	AuthRequired       bool
	ApiSecret          string `validate:"required_if=AuthRequired true"`
	SerializeRuns      bool
	LedgerEventsTopic  string
	ShutdownSeconds    int `validate:"min=1"`
}

var validate = validator.New()

func init() {
	// Load env from .env
	godotenv.Load()
}

// LoadSettings reads the environment and validates the result.
func LoadSettings() (*Settings, error) {
	s := &Settings{
		Port:               envString("PORT", "8080"),
		StorageProvider:    defaultStorageProvider(),
		ArtifactDir:        envString("ARTIFACT_DIR", os.TempDir()),
		ArtifactTTLSeconds: intFromEnv("ARTIFACT_TTL_SECONDS", 3600),
		GcsBucket:          strings.TrimSpace(os.Getenv("GCS_BUCKET")),
		RedisAddress:       strings.TrimSpace(os.Getenv("REDIS_ADDRESS")),
		MaxUploadMB:        intFromEnv("MAX_UPLOAD_MB", 25),
		SortMode:           strings.ToLower(envString("LEDGER_SORT_MODE", "chronological")),
		OutputFormat:       strings.ToLower(envString("LEDGER_OUTPUT_FORMAT", "csv")),
		AuthRequired:       AuthRequired(),
		ApiSecret:          os.Getenv("API_SECRET"),
		SerializeRuns:      SerializeRuns(),
		LedgerEventsTopic:  strings.TrimSpace(os.Getenv("LEDGER_EVENTS_TOPIC")),
		ShutdownSeconds:    intFromEnv("SHUTDOWN_TIMEOUT_SECONDS", 10),
	}
	if err := validate.Struct(s); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

func (s *Settings) ArtifactTTL() time.Duration {
	return time.Duration(s.ArtifactTTLSeconds) * time.Second
}

func (s *Settings) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}

// STORAGE_PROVIDER wins; otherwise redis when REDIS_ADDRESS is set, else local disk.
func defaultStorageProvider() string {
	if p := strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_PROVIDER"))); p != "" {
		return p
	}
	if strings.TrimSpace(os.Getenv("REDIS_ADDRESS")) != "" {
		return StorageProviderRedis
	}
	return StorageProviderLocal
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
