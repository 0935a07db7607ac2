package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestObjectStore(t *testing.T) (*LocalObjectStore, string) {
	t.Helper()
	dir := t.TempDir()
	objectStore, err := NewLocalObjectStore(dir)
	require.NoError(t, err)
	return objectStore, dir
}

func TestLocalObjectStore_PutObject(t *testing.T) {
	objectStore, baseDir := setupTestObjectStore(t)

	key := "bills/abc123.jpg"
	content := []byte{0xFF, 0xD8, 0xFF, 0xE0}

	err := objectStore.PutObject(context.Background(), key, bytes.NewReader(content))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(baseDir, "bills", "abc123.jpg"))
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestLocalObjectStore_GetObject(t *testing.T) {
	objectStore, _ := setupTestObjectStore(t)

	key := "bills/get-test.png"
	content := []byte("not really a png")
	require.NoError(t, objectStore.PutObject(context.Background(), key, bytes.NewReader(content)))

	reader, err := objectStore.GetObject(context.Background(), key)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestLocalObjectStore_GetObjectMissing(t *testing.T) {
	objectStore, _ := setupTestObjectStore(t)

	_, err := objectStore.GetObject(context.Background(), "bills/nope.jpg")
	assert.Error(t, err)
}
