package importer

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveUpload(t *testing.T) {
	dir := t.TempDir()

	upload, err := SaveUpload(dir, "orders.csv", strings.NewReader("name\nA\n"))
	require.NoError(t, err)
	assert.FileExists(t, upload.Path)
	assert.Equal(t, "orders.csv", upload.Name)
	assert.True(t, strings.HasSuffix(upload.Path, ".csv"))

	f, err := upload.Open()
	require.NoError(t, err)
	content, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "name\nA\n", string(content))
}

func TestUpload_Release(t *testing.T) {
	t.Run("removes the file once", func(t *testing.T) {
		upload, err := SaveUpload(t.TempDir(), "orders.csv", strings.NewReader("name\n"))
		require.NoError(t, err)

		calls := 0
		upload.remove = func(path string) error {
			calls++
			return nil
		}

		require.NoError(t, upload.Release())
		require.NoError(t, upload.Release())
		assert.Equal(t, 1, calls)
	})

	t.Run("missing file is not an error", func(t *testing.T) {
		upload := NewUpload("/nonexistent/import-123.csv", "orders.csv")
		assert.NoError(t, upload.Release())
	})

	t.Run("remove error is kept", func(t *testing.T) {
		upload := NewUpload("/tmp/import-1.csv", "orders.csv")
		upload.remove = func(string) error { return errors.New("permission denied") }

		err := upload.Release()
		assert.ErrorContains(t, err, "permission denied")
		assert.Equal(t, err, upload.Release())
	})
}
