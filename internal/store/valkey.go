package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/valkey-io/valkey-go"
)

const (
	fieldData    = "data"
	fieldCreated = "created"
)

// ValkeyStore keeps each artifact as a hash of content and creation time.
// HSET of both fields is a single command, so publication is atomic.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	clock  clockwork.Clock
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string, clock clockwork.Clock) *ValkeyStore {
	if prefix == "" {
		prefix = "artifact"
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ValkeyStore{client: client, prefix: prefix, clock: clock}
}

// NewValkeyClient dials addr, which is either host:port or a valkey:// URL.
func NewValkeyClient(addr string) (valkey.Client, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(addr, "://") {
		opt, err = valkey.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse valkey url: %w", err)
		}
	} else {
		opt = valkey.ClientOption{InitAddress: []string{addr}}
	}
	return valkey.NewClient(opt)
}

func (s *ValkeyStore) key(name string) string {
	return s.prefix + ":" + name
}

func (s *ValkeyStore) Put(ctx context.Context, name string, data []byte) error {
	created := strconv.FormatInt(s.clock.Now().UnixMilli(), 10)
	cmd := s.client.B().Hset().Key(s.key(name)).FieldValue().
		FieldValue(fieldData, valkey.BinaryString(data)).
		FieldValue(fieldCreated, created).
		Build()
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	resp := s.client.Do(ctx, s.client.B().Hget().Key(s.key(name)).Field(fieldData).Build())
	payload, err := resp.AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(payload)), nil
}

func (s *ValkeyStore) Delete(ctx context.Context, name string) error {
	n, err := s.client.Do(ctx, s.client.B().Del().Key(s.key(name)).Build()).AsInt64()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ValkeyStore) Exists(ctx context.Context, name string) (bool, error) {
	n, err := s.client.Do(ctx, s.client.B().Exists().Key(s.key(name)).Build()).AsInt64()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *ValkeyStore) List(ctx context.Context) ([]ObjectInfo, error) {
	var (
		out    []ObjectInfo
		cursor uint64
	)
	for {
		entry, err := s.client.Do(ctx, s.client.B().Scan().Cursor(cursor).Match(s.prefix+":*").Count(100).Build()).AsScanEntry()
		if err != nil {
			return nil, err
		}
		for _, k := range entry.Elements {
			info, err := s.describe(ctx, k)
			if err != nil {
				if err == ErrNotFound {
					continue
				}
				return nil, err
			}
			out = append(out, info)
		}
		cursor = entry.Cursor
		if cursor == 0 {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *ValkeyStore) describe(ctx context.Context, key string) (ObjectInfo, error) {
	created, err := s.client.Do(ctx, s.client.B().Hget().Key(key).Field(fieldCreated).Build()).AsInt64()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return ObjectInfo{}, ErrNotFound
		}
		return ObjectInfo{}, err
	}
	size, err := s.client.Do(ctx, s.client.B().Hstrlen().Key(key).Field(fieldData).Build()).AsInt64()
	if err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{
		Name:      strings.TrimPrefix(key, s.prefix+":"),
		Size:      size,
		CreatedAt: time.UnixMilli(created),
	}, nil
}

var _ ArtifactStore = (*ValkeyStore)(nil)
