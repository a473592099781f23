package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore checks the behaviour every ArtifactStore must share.
func exerciseStore(t *testing.T, s ArtifactStore) {
	t.Helper()
	ctx := context.Background()

	ok, err := s.Exists(ctx, "a.csv")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Open(ctx, "a.csv")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "a.csv"), ErrNotFound)

	payload := []byte("location,value\nx,1\n")
	require.NoError(t, s.Put(ctx, "a.csv", payload))
	payload[0] = 'X'

	ok, err = s.Exists(ctx, "a.csv")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Open(ctx, "a.csv")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "location,value\nx,1\n", string(got))

	objs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "a.csv", objs[0].Name)
	assert.Equal(t, int64(len(payload)), objs[0].Size)

	require.NoError(t, s.Delete(ctx, "a.csv"))
	ok, err = s.Exists(ctx, "a.csv")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, s.Delete(ctx, "a.csv"), ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(nil))
}

func TestMemoryStore_ListOldestFirst(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	s := NewMemoryStore(clock)
	ctx := context.Background()

	start := clock.Now()
	require.NoError(t, s.Put(ctx, "z-first.csv", []byte("a")))
	clock.Advance(time.Minute)
	require.NoError(t, s.Put(ctx, "a-second.csv", []byte("b")))

	objs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "z-first.csv", objs[0].Name)
	assert.Equal(t, start, objs[0].CreatedAt)
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "downloads"))
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStore_RejectsPathsAndHidesTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, tempPrefix+"123"), []byte("half"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(dir), "outside.csv"), []byte("secret"), 0o644))

	for _, name := range []string{"../outside.csv", `..\outside.csv`, "..", "", tempPrefix + "123"} {
		_, err := s.Open(ctx, name)
		assert.ErrorIs(t, err, ErrNotFound, name)
	}
	assert.Error(t, s.Put(ctx, "../escape.csv", []byte("x")))

	objs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, objs)
}

func TestSanitizeEndpoint(t *testing.T) {
	tests := map[string]string{
		"https://abc.r2.cloudflarestorage.com":     "abc.r2.cloudflarestorage.com",
		"http://localhost:9000/":                   "localhost:9000",
		" minio:9000 ":                             "minio:9000",
		"https://s3.example.com/bucket/prefix?x=1": "s3.example.com",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeEndpoint(in), in)
	}
}
