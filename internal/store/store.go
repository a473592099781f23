package store

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrNotFound is returned when no artifact exists under a name.
	ErrNotFound = errors.New("artifact not found")
)

// ObjectInfo describes a stored artifact without its content.
type ObjectInfo struct {
	Name      string
	Size      int64
	CreatedAt time.Time
}

// ArtifactStore is a key to bytes map. Put must publish the content
// atomically: a reader never observes a partially written artifact. Open
// and Delete return ErrNotFound for names that are not stored.
type ArtifactStore interface {
	Put(ctx context.Context, name string, data []byte) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]ObjectInfo, error)
}
