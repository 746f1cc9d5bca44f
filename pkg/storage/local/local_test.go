package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-condenser/pkg/logger"
)

func newStorage(t *testing.T) (*LocalStorage, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "store")
	s, err := New(root, logger.NewNop())
	require.NoError(t, err)
	return s, root
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	s, root := newStorage(t)
	ctx := context.Background()

	key, err := s.Store(ctx, strings.NewReader("condensed"), "jobs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "jobs/a.txt", key)
	assert.FileExists(t, filepath.Join(root, "jobs", "a.txt"))

	rc, err := s.Get(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "condensed", string(data))

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key), "deleting twice is fine")
	_, err = s.Get(ctx, key)
	assert.Error(t, err)
}

func TestLocalStorage_GeneratesKey(t *testing.T) {
	s, _ := newStorage(t)

	key, err := s.Store(context.Background(), strings.NewReader("x"), "")
	require.NoError(t, err)
	assert.Len(t, key, 36)
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	s, _ := newStorage(t)
	ctx := context.Background()

	for _, key := range []string{"../outside", "/etc/passwd"} {
		_, err := s.Store(ctx, strings.NewReader("x"), key)
		assert.ErrorContains(t, err, "invalid storage key")
		_, err = s.Get(ctx, key)
		assert.ErrorContains(t, err, "invalid storage key")
	}
}

func TestLocalStorage_CleanupBefore(t *testing.T) {
	s, root := newStorage(t)
	ctx := context.Background()

	_, err := s.Store(ctx, strings.NewReader("old"), "old.txt")
	require.NoError(t, err)
	_, err = s.Store(ctx, strings.NewReader("new"), "new.txt")
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "old.txt"), past, past))

	require.NoError(t, s.CleanupBefore(ctx, time.Now().Add(-24*time.Hour)))
	assert.NoFileExists(t, filepath.Join(root, "old.txt"))
	assert.FileExists(t, filepath.Join(root, "new.txt"))
}

func TestNew_RequiresDirectory(t *testing.T) {
	_, err := New("", logger.NewNop())
	assert.Error(t, err)
}
