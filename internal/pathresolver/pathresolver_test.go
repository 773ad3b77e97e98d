package pathresolver

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/islero/historyvault/internal/interval"
)

func TestMonthPath_UsesShortCodeAndPaddedMonth(t *testing.T) {
	r := New("/vault-root")
	path := r.MonthPath(Local, "BTC.USD", interval.Hour1, 2025, 6, false)
	assert.Equal(t, filepath.Join("/vault-root", "BTC.USD", "1h", "2025", "06.bin"), path)
}

func TestMonthPath_CompressedExtension(t *testing.T) {
	r := New("/vault-root")
	path := r.MonthPath(Local, "ETH.USD", interval.Minute1, 2025, 12, true)
	assert.Equal(t, filepath.Join("/vault-root", "ETH.USD", "1m", "2025", "12.bin.gz"), path)
}

func TestSanitize_ReplacesIllegalChars(t *testing.T) {
	assert.Equal(t, "BTC_USD", Sanitize("BTC/USD"))
	assert.NotContains(t, Sanitize("a\x00b"), "\x00")
}

func TestListFiles_PrefersCompressedOnCollision(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)

	monthDir := filepath.Join(dir, "BTC.USD", "1h", "2025")
	require.NoError(t, os.MkdirAll(monthDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(monthDir, "06.bin"), []byte("stale"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(monthDir, "06.bin.gz"), []byte("fresh"), 0o644))

	files, err := r.ListFiles(Local, "BTC.USD", interval.Hour1)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, files[0].Compressed)
}

func TestListFiles_SortedChronologically(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)

	for _, month := range []struct {
		year, month int
	}{{2025, 3}, {2024, 12}, {2025, 1}} {
		monthDir := filepath.Join(dir, "BTC.USD", "1h", fmt.Sprintf("%04d", month.year))
		require.NoError(t, os.MkdirAll(monthDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(monthDir, fmt.Sprintf("%02d.bin", month.month)), []byte("x"), 0o644))
	}

	files, err := r.ListFiles(Local, "BTC.USD", interval.Hour1)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, 2024, files[0].Year)
	assert.Equal(t, 2025, files[1].Year)
	assert.Equal(t, 1, files[1].Month)
	assert.Equal(t, 3, files[2].Month)
}

func TestListFiles_NoDirectoryReturnsEmpty(t *testing.T) {
	r := New(t.TempDir())
	files, err := r.ListFiles(Local, "NOPE", interval.Hour1)
	require.NoError(t, err)
	assert.Empty(t, files)
}

