package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type LocalObjectStore struct {
	baseDir string
}

var _ ObjectStore = (*LocalObjectStore)(nil)

func NewLocalObjectStore(dir string) (*LocalObjectStore, error) {
	baseDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", dir, err)
	}

	if err := os.MkdirAll(baseDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", baseDir, err)
	}

	return &LocalObjectStore{baseDir: baseDir}, nil
}

func (s *LocalObjectStore) fullpath(key string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(strings.TrimPrefix(key, "/")))
}

func (s *LocalObjectStore) PutObject(ctx context.Context, key string, data io.Reader) error {
	path := s.fullpath(key)
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory for %s/%s: %w", s.baseDir, key, err)
	}

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s/%s: %w", s.baseDir, key, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, data); err != nil {
		return fmt.Errorf("failed to write file %s/%s: %w", s.baseDir, key, err)
	}

	return nil
}

func (s *LocalObjectStore) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	file, err := os.Open(s.fullpath(key))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s/%s: %w", s.baseDir, key, err)
	}
	return file, nil
}
