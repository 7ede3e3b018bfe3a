package storage

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	rel, err := store.SaveBytes([]byte("schedule"), "recognition_RC-1.xlsx", "exports")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rel, "exports"+string(filepath.Separator)))
	assert.True(t, strings.HasPrefix(filepath.Base(rel), "recognition_RC-1_"))
	assert.Equal(t, ".xlsx", filepath.Ext(rel))
	assert.True(t, store.Exists(rel))

	f, err := store.Open(rel)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, f.Close())
	require.NoError(t, err)
	assert.Equal(t, "schedule", string(data))

	require.NoError(t, store.Delete(rel))
	assert.False(t, store.Exists(rel))
}

func TestLocalStorage_PathsStayInsideBase(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "etc", "passwd"), store.GetFullPath("../../etc/passwd"))
}
