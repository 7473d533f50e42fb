package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "workflow_tasks/2025-11-09.yaml", []byte("tasks: {}\n")))

	exists, err := s.Exists(ctx, "workflow_tasks/2025-11-09.yaml")
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := s.Read(ctx, "workflow_tasks/2025-11-09.yaml")
	require.NoError(t, err)
	assert.Equal(t, "tasks: {}\n", string(data))

	paths, err := s.List(ctx, "workflow_tasks")
	require.NoError(t, err)
	assert.Equal(t, []string{"workflow_tasks/2025-11-09.yaml"}, paths)

	require.NoError(t, s.Delete(ctx, "workflow_tasks/2025-11-09.yaml"))
	_, err = s.Read(ctx, "workflow_tasks/2025-11-09.yaml")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "workflow_tasks/2025-11-09.yaml"), ErrNotFound)
}

func TestLocalStorage_ListMissingDir(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	paths, err := s.List(context.Background(), "lyrics")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestOpen_DefaultsToLocal(t *testing.T) {
	s, err := Open(context.Background(), Options{Type: "", BaseDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)
}

func TestLocalStorage_RejectsEscapingPaths(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.ErrorIs(t, s.Write(ctx, "../outside.yaml", []byte("x")), ErrInvalidPath)
	_, err = s.Read(ctx, "sermons/../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, err = s.List(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestLocalStorage_ListSkipsTempFiles(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewLocalStorage(base)
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "lyrics/2025-11-09/b.yaml", []byte("b")))
	require.NoError(t, s.Write(ctx, "lyrics/2025-11-09/a.yaml", []byte("a")))
	require.NoError(t, os.WriteFile(filepath.Join(base, "lyrics", "2025-11-09", ".a.yaml.123"), []byte("partial"), 0o644))

	paths, err := s.List(ctx, "lyrics/2025-11-09")
	require.NoError(t, err)
	assert.Equal(t, []string{"lyrics/2025-11-09/a.yaml", "lyrics/2025-11-09/b.yaml"}, paths)
}
