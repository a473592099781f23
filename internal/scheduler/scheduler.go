package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weather-odds/internal/observability"
	"github.com/i474232898/weather-odds/internal/store"
)

// PendingLister lists artifacts that are still awaiting download.
type PendingLister interface {
	Pending(ctx context.Context) ([]store.ObjectInfo, error)
}

// AuditReport is the outcome of one audit run.
type AuditReport struct {
	Pending int
	Stale   []store.ObjectInfo
}

// Scheduler periodically audits the artifact store for downloads that never
// happened. It reports; it never deletes.
type Scheduler struct {
	scheduler *gocron.Scheduler
	lister    PendingLister
	interval  time.Duration
	maxAge    time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a new Scheduler.
func New(lister PendingLister, interval, maxAge time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		lister:    lister,
		interval:  interval,
		maxAge:    maxAge,
		clock:     clock,
		logger:    logger.With("component", "scheduler"),
		metrics:   metrics,
	}
}

// Start schedules the periodic audit and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("artifact audit disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := s.Audit(ctx); err != nil {
			s.logger.Error("artifact audit failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Audit lists pending artifacts, logs those older than maxAge and updates
// the pending/stale gauges.
func (s *Scheduler) Audit(ctx context.Context) (AuditReport, error) {
	pending, err := s.lister.Pending(ctx)
	if err != nil {
		return AuditReport{}, err
	}

	report := AuditReport{Pending: len(pending)}
	cutoff := s.clock.Now().Add(-s.maxAge)
	for _, obj := range pending {
		if s.maxAge > 0 && obj.CreatedAt.Before(cutoff) {
			report.Stale = append(report.Stale, obj)
			s.logger.Warn("artifact never downloaded", "artifact", obj.Name, "created_at", obj.CreatedAt, "bytes", obj.Size)
		}
	}

	s.metrics.ArtifactsPending.Set(float64(report.Pending))
	s.metrics.StaleArtifactCount.Set(float64(len(report.Stale)))
	s.logger.Debug("artifact audit completed", "pending", report.Pending, "stale", len(report.Stale))
	return report, nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
