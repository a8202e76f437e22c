package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-planner/internal/config"
)

// pngHeader is the 8-byte PNG signature followed by an IHDR chunk start.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func TestSaveImageWritesFile(t *testing.T) {
	dir := t.TempDir()
	a, err := NewAssets(config.AssetConfig{Dir: dir, BaseURL: "/uploads", MaxBytes: 1024})
	require.NoError(t, err)

	url, err := a.SaveImage(bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/event-images/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, Folder, filepath.Base(url)))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
}

func TestSaveImageRejectsNonImages(t *testing.T) {
	a, err := NewAssets(config.AssetConfig{Dir: t.TempDir(), BaseURL: "/uploads"})
	require.NoError(t, err)
	_, err = a.SaveImage(strings.NewReader("just some text"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestSaveImageEnforcesLimit(t *testing.T) {
	dir := t.TempDir()
	a, err := NewAssets(config.AssetConfig{Dir: dir, BaseURL: "/uploads", MaxBytes: 32})
	require.NoError(t, err)

	big := append(append([]byte{}, pngHeader...), make([]byte, 64)...)
	_, err = a.SaveImage(bytes.NewReader(big))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(filepath.Join(dir, Folder))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewAssetsDefaults(t *testing.T) {
	dir := t.TempDir()
	a, err := NewAssets(config.AssetConfig{Dir: dir, BaseURL: "/uploads"})
	require.NoError(t, err)
	assert.Equal(t, int64(5<<20), a.MaxBytes())
	assert.Equal(t, dir, a.Dir())
	assert.Equal(t, "/uploads", a.BaseURL())

	info, err := os.Stat(filepath.Join(dir, Folder))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
