package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weather-odds/internal/observability"
	"github.com/i474232898/weather-odds/internal/store"
	"github.com/i474232898/weather-odds/internal/weather"
	apperrors "github.com/i474232898/weather-odds/pkg/errors"
)

const (
	// Anonymous namespaces artifacts of callers without an identity.
	Anonymous = "anonymous"

	namePrefix    = "nasa_weather_query_"
	nameExtension = ".csv"
	maxRequester  = 64
	deleteTimeout = 5 * time.Second
)

// Artifact is a stored export awaiting its single download.
type Artifact struct {
	Name      string
	Content   []byte
	Rows      int
	CreatedAt time.Time
}

// Manager creates export artifacts and hands each out for one successful
// download.
type Manager struct {
	store   store.ArtifactStore
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
	token   func() string

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewManager wires a Manager to an artifact store. A nil clock uses real time.
func NewManager(st store.ArtifactStore, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		store:    st,
		clock:    clock,
		logger:   logger.With("component", "export.manager"),
		metrics:  metrics,
		token:    func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:12] },
		inflight: make(map[string]struct{}),
	}
}

// CreateArtifact serializes rows and publishes them under a fresh name
// derived from requester, the current time and a random token.
func (m *Manager) CreateArtifact(ctx context.Context, requester string, rows []weather.ExportRow) (Artifact, error) {
	data, err := EncodeCSV(rows)
	if err != nil {
		m.logger.Error("export serialization failed", "requester", requester, "rows", len(rows), "error", err)
		return Artifact{}, err
	}

	now := m.clock.Now().UTC()
	name := fmt.Sprintf("%s%s_%d_%s%s", namePrefix, sanitizeRequester(requester), now.UnixMilli(), m.token(), nameExtension)
	if err := m.store.Put(ctx, name, data); err != nil {
		m.logger.Error("artifact write failed", "artifact", name, "error", err)
		return Artifact{}, apperrors.Wrap(apperrors.KindInternal, "failed to store export", err)
	}

	m.metrics.ArtifactsCreated.Inc()
	m.metrics.ArtifactBytes.Observe(float64(len(data)))
	m.logger.Info("artifact created", "artifact", name, "rows", len(rows), "bytes", len(data))
	return Artifact{Name: name, Content: data, Rows: len(rows), CreatedAt: now}, nil
}

// Checkout claims name for delivery. Until the returned Delivery finishes,
// other checkouts of the same name fail with ErrArtifactBusy.
func (m *Manager) Checkout(ctx context.Context, name string) (*Delivery, error) {
	if !ValidName(name) {
		return nil, ErrArtifactNotFound
	}
	if !m.claim(name) {
		return nil, ErrArtifactBusy
	}

	body, err := m.store.Open(ctx, name)
	if err != nil {
		m.release(name)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrArtifactNotFound
		}
		m.logger.Error("artifact open failed", "artifact", name, "error", err)
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to open export", err)
	}
	return &Delivery{manager: m, name: name, body: body}, nil
}

// ServeAndRetire streams name to w and deletes it once fully written.
func (m *Manager) ServeAndRetire(ctx context.Context, name string, w io.Writer) (int64, error) {
	d, err := m.Checkout(ctx, name)
	if err != nil {
		return 0, err
	}
	return d.Deliver(ctx, w)
}

// Exists reports whether name is still awaiting download.
func (m *Manager) Exists(ctx context.Context, name string) (bool, error) {
	if !ValidName(name) {
		return false, nil
	}
	return m.store.Exists(ctx, name)
}

// Pending lists artifacts that have not been downloaded yet.
func (m *Manager) Pending(ctx context.Context) ([]store.ObjectInfo, error) {
	return m.store.List(ctx)
}

func (m *Manager) claim(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inflight[name]; busy {
		return false
	}
	m.inflight[name] = struct{}{}
	return true
}

func (m *Manager) release(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inflight, name)
}

// Delivery is a claimed artifact ready to stream.
type Delivery struct {
	manager *Manager
	name    string
	body    io.ReadCloser
	once    sync.Once
}

// Name is the artifact name, suitable as a download filename.
func (d *Delivery) Name() string { return d.name }

// Deliver copies the artifact to w, flushing w when it supports it, and
// deletes the artifact only after the copy succeeded. On failure the
// artifact is kept.
func (d *Delivery) Deliver(ctx context.Context, w io.Writer) (int64, error) {
	var (
		n   int64
		err = errors.New("delivery already finished")
	)
	d.once.Do(func() {
		n, err = d.deliver(ctx, w)
	})
	return n, err
}

// Abort releases the claim without streaming.
func (d *Delivery) Abort() {
	d.once.Do(func() {
		d.body.Close()
		d.manager.release(d.name)
	})
}

func (d *Delivery) deliver(ctx context.Context, w io.Writer) (int64, error) {
	m := d.manager
	defer m.release(d.name)
	defer d.body.Close()

	n, err := io.Copy(w, d.body)
	if err == nil {
		if f, ok := w.(interface{ Flush() error }); ok {
			err = f.Flush()
		}
	}
	if err != nil {
		m.metrics.DeliveryFailures.Inc()
		m.logger.Warn("artifact delivery failed; artifact retained", "artifact", d.name, "bytes_written", n, "error", err)
		return n, fmt.Errorf("deliver %s: %w", d.name, err)
	}

	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deleteTimeout)
	defer cancel()
	if delErr := m.store.Delete(delCtx, d.name); delErr != nil {
		m.metrics.ArtifactsOrphaned.Inc()
		m.logger.Error("artifact delivered but not deleted", "artifact", d.name, "error", delErr)
	} else {
		m.metrics.ArtifactsServed.Inc()
		m.logger.Info("artifact delivered and retired", "artifact", d.name, "bytes", n)
	}
	return n, nil
}

// ValidName reports whether name has the shape of a generated artifact name.
func ValidName(name string) bool {
	if !strings.HasPrefix(name, namePrefix) || !strings.HasSuffix(name, nameExtension) {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}

// sanitizeRequester keeps names filesystem and URL safe.
func sanitizeRequester(requester string) string {
	if requester == "" {
		return Anonymous
	}
	var b strings.Builder
	for _, r := range requester {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
		if b.Len() >= maxRequester {
			break
		}
	}
	return b.String()
}
