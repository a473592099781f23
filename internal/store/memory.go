package store

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type memoryObject struct {
	data      []byte
	createdAt time.Time
}

// MemoryStore is a concurrency-safe in-memory artifact store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: artifact name
	data  map[string]memoryObject
	clock clockwork.Clock
}

// NewMemoryStore creates an empty MemoryStore. A nil clock uses real time.
func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		data:  make(map[string]memoryObject),
		clock: clock,
	}
}

// Put stores a private copy of data under name.
func (s *MemoryStore) Put(_ context.Context, name string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = memoryObject{data: buf, createdAt: s.clock.Now()}
	return nil
}

// Open returns a reader over the stored bytes.
func (s *MemoryStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.data[name]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete removes name; deleting a missing artifact reports ErrNotFound.
func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[name]; !ok {
		return ErrNotFound
	}
	delete(s.data, name)
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[name]
	return ok, nil
}

// List returns all artifacts, oldest first.
func (s *MemoryStore) List(_ context.Context) ([]ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ObjectInfo, 0, len(s.data))
	for name, obj := range s.data {
		out = append(out, ObjectInfo{Name: name, Size: int64(len(obj.data)), CreatedAt: obj.createdAt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

var _ ArtifactStore = (*MemoryStore)(nil)
