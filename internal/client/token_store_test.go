package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTokenStore(t *testing.T) {
	store := NewMemoryTokenStore()

	token, err := store.Token()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.SetToken("abc"))
	token, _ = store.Token()
	assert.Equal(t, "abc", token)

	require.NoError(t, store.Clear())
	token, _ = store.Token()
	assert.Empty(t, token)
}

func TestFileTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	store := NewFileTokenStore(path)

	token, err := store.Token()
	require.NoError(t, err)
	assert.Empty(t, token, "missing file means no token")

	require.NoError(t, store.SetToken("abc"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err = NewFileTokenStore(path).Token()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	require.NoError(t, store.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, store.Clear(), "clearing twice is fine")
}

func TestFileTokenStore_TightensExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, NewFileTokenStore(path).SetToken("new"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
