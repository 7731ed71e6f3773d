package objectstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalObjectStore_PutFile(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalObjectStore(root)
	require.NoError(t, err)

	sourceDir := t.TempDir()
	sourcePath := filepath.Join(sourceDir, "report.json")
	require.NoError(t, os.WriteFile(sourcePath, []byte(`{"ok":true}`), 0644))

	stored, err := store.PutFile(sourcePath, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "report.json"), stored)

	contents, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(contents))
}

func TestLocalObjectStore_PutFile_MissingSource(t *testing.T) {
	store, err := NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.PutFile(filepath.Join(t.TempDir(), "missing.json"), "")
	assert.Error(t, err)
}

func TestLocalObjectStore_PutJSON_GeneratesName(t *testing.T) {
	store, err := NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)

	path, err := store.PutJSON(map[string]int{"count": 3}, "")
	require.NoError(t, err)
	assert.True(t, filepath.Ext(path) == ".json")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":3}`, string(raw))
}

func TestLocalObjectStore_PutJSON_ExplicitName(t *testing.T) {
	store, err := NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)

	path, err := store.PutJSON(map[string]string{"k": "v"}, "fixed.json")
	require.NoError(t, err)
	assert.Equal(t, "fixed.json", filepath.Base(path))
}
