package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStoragePutOverwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	store := NewFileStorage(dir)

	require.NoError(t, store.Put("pools.json", []int{1, 2, 3}))
	require.NoError(t, store.Put("pools.json", []int{4}))

	data, err := os.ReadFile(filepath.Join(dir, "pools.json"))
	require.NoError(t, err)
	require.Equal(t, "[4]", string(data))
}

func TestReadJSONMissingFile(t *testing.T) {
	var v map[string]int
	found, err := ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &v)
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, v)
}

func TestReadJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.json")
	require.NoError(t, WriteJSON(path, map[string]int{"a": 1}))

	var v map[string]int
	found, err := ReadJSON(path, &v)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, map[string]int{"a": 1}, v)
}

func TestReadJSONCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	var v map[string]int
	_, err := ReadJSON(path, &v)
	require.Error(t, err)
}
