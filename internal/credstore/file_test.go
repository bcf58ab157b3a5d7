package credstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreFirstRun(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "credentials.json"))

	require.NoError(t, store.Load(context.Background()))

	_, ok := store.Get("VK_TOKEN")
	assert.False(t, ok, "a fresh store holds nothing")
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	store := NewFileStore(path)
	require.NoError(t, store.Load(context.Background()))
	store.Set("VK_TOKEN", "abc")
	store.Set("TELEGRAM_TOKEN", "def")
	require.NoError(t, store.Flush(context.Background()))

	reopened := NewFileStore(path)
	require.NoError(t, reopened.Load(context.Background()))

	value, ok := reopened.Get("VK_TOKEN")
	require.True(t, ok)
	assert.Equal(t, "abc", value)

	value, ok = reopened.Get("TELEGRAM_TOKEN")
	require.True(t, ok)
	assert.Equal(t, "def", value)
}

func TestFileStoreLastWriterWins(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "credentials.json"))

	store.Set("KEY", "first")
	store.Set("KEY", "second")

	value, _ := store.Get("KEY")
	assert.Equal(t, "second", value)
}

func TestFileStoreRejectsMalformedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	store := NewFileStore(path)
	assert.Error(t, store.Load(context.Background()))
}
