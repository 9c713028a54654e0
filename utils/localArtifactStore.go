package utils

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalArtifactStore writes each artifact to its own file under dir.
type LocalArtifactStore struct {
	dir string
}

func NewLocalArtifactStore(dir string) (*LocalArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalArtifactStore{dir: dir}, nil
}

func (l *LocalArtifactStore) path(key string) (string, error) {
	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	return filepath.Join(l.dir, rel), nil
}

func (l *LocalArtifactStore) Put(_ context.Context, key string, contentType string, data []byte) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	// write then rename so a concurrent download never sees a partial file
	tmp, err := os.CreateTemp(filepath.Dir(p), filepath.Base(p)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.WriteFile(p+contentTypeSuffix, []byte(contentType), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

func (l *LocalArtifactStore) Get(_ context.Context, key string) ([]byte, string, error) {
	p, err := l.path(key)
	if err != nil {
		return nil, "", ErrArtifactNotFound
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", ErrArtifactNotFound
		}
		return nil, "", err
	}
	contentType := "application/octet-stream"
	if ct, err := os.ReadFile(p + contentTypeSuffix); err == nil && len(ct) > 0 {
		contentType = string(ct)
	}
	return data, contentType, nil
}
