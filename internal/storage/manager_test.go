// manager_test.go - Tests for storage layer
package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *LocalStore {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates output directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "downloads")

		store, err := NewLocalStore(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, store.Dir())

		stat, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, stat.IsDir())
	})
}

func TestLocalStore_Save(t *testing.T) {
	store := createTestStore(t)

	info, err := store.Save("scan_ocr.docx", "http://srv/downloads/scan_ocr.docx", strings.NewReader("docx bytes"))
	require.NoError(t, err)

	assert.Equal(t, "scan_ocr.docx", info.Name)
	assert.Equal(t, int64(10), info.Size)
	assert.Equal(t, "http://srv/downloads/scan_ocr.docx", info.SourceURL)

	data, err := os.ReadFile(info.Path)
	require.NoError(t, err)
	assert.Equal(t, "docx bytes", string(data))
	assert.WithinDuration(t, time.Now(), info.SavedAt, time.Minute)
}

func TestLocalStore_NeverOverwrites(t *testing.T) {
	store := createTestStore(t)

	first, err := store.Save("result.docx", "", strings.NewReader("one"))
	require.NoError(t, err)
	second, err := store.Save("result.docx", "", strings.NewReader("two"))
	require.NoError(t, err)
	third, err := store.Save("result.docx", "", strings.NewReader("three"))
	require.NoError(t, err)

	assert.Equal(t, "result.docx", first.Name)
	assert.Equal(t, "result (1).docx", second.Name)
	assert.Equal(t, "result (2).docx", third.Name)

	data, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

func TestLocalStore_SanitizesNames(t *testing.T) {
	store := createTestStore(t)

	info, err := store.Save("../../etc/passwd", "", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "passwd", info.Name)
	assert.Equal(t, store.Dir(), filepath.Dir(info.Path))

	info, err = store.Save(`..\..\evil.docx`, "", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "evil.docx", info.Name)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestLocalStore_SaveFailureRemovesPartialFile(t *testing.T) {
	store := createTestStore(t)

	_, err := store.Save("broken.docx", "", failingReader{})
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(store.Dir(), "broken.docx"))
	assert.True(t, os.IsNotExist(statErr))

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStore_FailedSaveFreesName(t *testing.T) {
	store := createTestStore(t)

	_, err := store.Save("result.docx", "", failingReader{})
	require.Error(t, err)

	info, err := store.Save("result.docx", "", strings.NewReader("ok"))
	require.NoError(t, err)
	assert.Equal(t, "result.docx", info.Name)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "download", SanitizeName(""))
	assert.Equal(t, "download", SanitizeName(".."))
	assert.Equal(t, "download", SanitizeName("/"))
	assert.Equal(t, "a.pdf", SanitizeName(" dir/a.pdf "))
}
