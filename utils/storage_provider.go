package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mmdatafocus/sales_ledger/config"
	"github.com/mmdatafocus/sales_ledger/models"
)

const (
	artifactPrefix    = "ledgers/"
	LatestArtifactKey = artifactPrefix + "latest"
)

// ArtifactStore keeps the ledger produced by each run so it can be downloaded later.
type ArtifactStore interface {
	Put(ctx context.Context, key string, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, string, error)
}

// NewArtifactStore builds the store selected by settings.StorageProvider.
func NewArtifactStore(ctx context.Context, settings *config.Settings) (ArtifactStore, error) {
	switch settings.StorageProvider {
	case config.StorageProviderRedis:
		return NewRedisArtifactStore(settings.ArtifactTTL()), nil
	case config.StorageProviderGCS:
		return NewGCSArtifactStore(ctx, settings.GcsBucket)
	case config.StorageProviderLocal:
		return NewLocalArtifactStore(settings.ArtifactDir)
	case config.StorageProviderMemory:
		return NewMemoryArtifactStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", settings.StorageProvider)
	}
}

func ArtifactKey(runId string, format models.OutputFormat) string {
	return artifactPrefix + runId + format.Extension()
}

// SaveLedgerArtifact stores one run's ledger under its own key and moves the
// latest pointer to it.
func SaveLedgerArtifact(ctx context.Context, store ArtifactStore, runId string, format models.OutputFormat, data []byte) (string, error) {
	key := ArtifactKey(runId, format)
	if err := store.Put(ctx, key, format.ContentType(), data); err != nil {
		return "", fmt.Errorf("store artifact %s: %w", key, err)
	}
	if err := store.Put(ctx, LatestArtifactKey, "text/plain", []byte(key)); err != nil {
		return "", fmt.Errorf("update latest artifact pointer: %w", err)
	}
	return key, nil
}

// LoadLatestArtifact follows the latest pointer. It returns the artifact key as well.
func LoadLatestArtifact(ctx context.Context, store ArtifactStore) (string, []byte, string, error) {
	pointer, _, err := store.Get(ctx, LatestArtifactKey)
	if err != nil {
		return "", nil, "", err
	}
	key := strings.TrimSpace(string(pointer))
	data, contentType, err := store.Get(ctx, key)
	if err != nil {
		return "", nil, "", err
	}
	return key, data, contentType, nil
}

// LoadRunArtifact finds a run's ledger whatever format it was written in.
func LoadRunArtifact(ctx context.Context, store ArtifactStore, runId string) (string, []byte, string, error) {
	for _, format := range []models.OutputFormat{models.OutputFormatCSV, models.OutputFormatXLSX, models.OutputFormatSQLite} {
		key := ArtifactKey(runId, format)
		data, contentType, err := store.Get(ctx, key)
		if err == nil {
			return key, data, contentType, nil
		}
		if !errors.Is(err, ErrArtifactNotFound) {
			return "", nil, "", err
		}
	}
	return "", nil, "", ErrArtifactNotFound
}

type memoryArtifact struct {
	contentType string
	data        []byte
}

// MemoryArtifactStore is a process-local store used by tests and single-instance runs.
type MemoryArtifactStore struct {
	mu    sync.RWMutex
	items map[string]memoryArtifact
}

func NewMemoryArtifactStore() *MemoryArtifactStore {
	return &MemoryArtifactStore{items: map[string]memoryArtifact{}}
}

func (m *MemoryArtifactStore) Put(_ context.Context, key string, contentType string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = memoryArtifact{contentType: contentType, data: append([]byte(nil), data...)}
	return nil
}

func (m *MemoryArtifactStore) Get(_ context.Context, key string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[key]
	if !ok {
		return nil, "", ErrArtifactNotFound
	}
	return append([]byte(nil), item.data...), item.contentType, nil
}
