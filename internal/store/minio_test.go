package store

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-odds/pkg/logger"
)

// fakeBucket answers the HEAD and DELETE object calls of the S3 API for a
// single bucket.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]bool
	deletes []string
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/exports/")
	b.mu.Lock()
	defer b.mu.Unlock()

	switch r.Method {
	case http.MethodHead:
		if !b.objects[key] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("ETag", `"0123456789abcdef"`)
		w.Header().Set("Content-Length", "4")
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Last-Modified", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		b.deletes = append(b.deletes, key)
		delete(b.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newFakeObjectStore(t *testing.T, objects ...string) (*ObjectStore, *fakeBucket) {
	t.Helper()
	bucket := &fakeBucket{objects: map[string]bool{}}
	for _, o := range objects {
		bucket.objects[o] = true
	}
	srv := httptest.NewServer(bucket)
	t.Cleanup(srv.Close)

	s, err := NewObjectStore(ObjectStoreConfig{
		Endpoint:  srv.URL,
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "exports",
		Region:    "us-east-1",
	}, logger.Discard())
	require.NoError(t, err)
	return s, bucket
}

func TestObjectStore_DeleteMissingIsNotFound(t *testing.T) {
	s, bucket := newFakeObjectStore(t)

	err := s.Delete(t.Context(), "gone.csv")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, bucket.deletes)
}

func TestObjectStore_DeleteRemovesStoredObject(t *testing.T) {
	s, bucket := newFakeObjectStore(t, "a.csv")

	require.NoError(t, s.Delete(t.Context(), "a.csv"))
	assert.Equal(t, []string{"a.csv"}, bucket.deletes)

	require.ErrorIs(t, s.Delete(t.Context(), "a.csv"), ErrNotFound)
}
