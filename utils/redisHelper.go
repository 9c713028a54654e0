package utils

import (
	"context"
	"time"

	"github.com/mmdatafocus/sales_ledger/config"
)

const contentTypeSuffix = ":content-type"

// RedisArtifactStore keeps ledgers in redis with an expiry, which suits
// short-lived download links.
type RedisArtifactStore struct {
	ttl time.Duration
}

func NewRedisArtifactStore(ttl time.Duration) *RedisArtifactStore {
	return &RedisArtifactStore{ttl: ttl}
}

func (r *RedisArtifactStore) Put(ctx context.Context, key string, contentType string, data []byte) error {
	if err := config.SetRedisBytes(ctx, key, data, r.ttl); err != nil {
		return err
	}
	return config.SetRedisValue(ctx, key+contentTypeSuffix, contentType, r.ttl)
}

func (r *RedisArtifactStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	data, ok, err := config.GetRedisBytes(ctx, key)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", ErrArtifactNotFound
	}
	contentType, _, err := config.GetRedisValue(ctx, key+contentTypeSuffix)
	if err != nil {
		return nil, "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}
