// Package scheduler drives the periodic archival work: sweeping bills
// whose receipt PDF is still missing and exporting aged revenue to a
// spreadsheet on a weekly cadence.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	archivedomain "github.com/muralikrishna41140/cakeraft-sub001/internal/archive/domain"
	billingdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/billing/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/clock"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/config"
	obsmetrics "github.com/muralikrishna41140/cakeraft-sub001/internal/observability/metrics"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/ratelimit"
)

const (
	jobArchiveSweep = "archive_sweep"
	jobExportAged   = "export_aged"

	sweepTimeout  = 30 * time.Second
	exportTimeout = 10 * time.Minute

	// sweepLockTTL outlives the sweep timeout so a crashed replica's
	// lease expires instead of blocking the job forever.
	sweepLockTTL = 2 * time.Minute
)

var ErrInvalidConfig = errors.New("scheduler dependencies missing")

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	ArchiveSvc archivedomain.Service
	Locker     *ratelimit.Locker `optional:"true"`
	AppConfig  config.Config
	Config     Config `optional:"true"`
}

// Scheduler runs the job table once per tick. One goroutine owns it, so
// the export cadence state needs no locking.
type Scheduler struct {
	db         *gorm.DB
	log        *zap.Logger
	cfg        Config
	appCfg     config.Config
	clock      clock.Clock
	archiveSvc archivedomain.Service
	locker     *ratelimit.Locker

	nextExportAt time.Time
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.ArchiveSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:         p.DB,
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        p.Config.withDefaults(),
		appCfg:     p.AppConfig,
		clock:      p.Clock,
		archiveSvc: p.ArchiveSvc,
		locker:     p.Locker,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	ctx = s.withJobContext(ctx)

	log := s.logger(ctx).With(zap.String("job", name))
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	start := time.Now()
	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, time.Since(start))
	if err == nil {
		return nil
	}

	// A deadline is a soft failure: the batch stays where it stopped and
	// the next tick resumes it.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		schedMetrics.IncJobTimeout(name)
		schedMetrics.IncJobError(name, err)
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	schedMetrics.IncJobError(name, err)
	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce executes every due job and joins their errors. The archive
// sweep runs each tick; the aged export only when its cadence says so.
func (s *Scheduler) RunOnce(parent context.Context) error {
	err := s.runJob(parent, jobArchiveSweep, sweepTimeout, s.ArchiveSweepJob)

	if s.exportDue() {
		exportErr := s.runJob(parent, jobExportAged, exportTimeout, s.ExportAgedJob)
		if exportErr == nil {
			s.nextExportAt = s.clock.Now().Add(s.cfg.ExportInterval)
		}
		err = errors.Join(err, exportErr)
	}

	return err
}

// RunForever ticks at cfg.RunInterval until the context is canceled.
func (s *Scheduler) RunForever(ctx context.Context) {
	s.seedExportCadence(ctx)

	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		runLag := s.clock.Now().Sub(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ArchiveSweepJob retries bills whose receipt is still pending or whose
// last attempt failed. The redis lease keeps replicas from rendering
// the same receipts twice; without redis the sweep runs unguarded.
func (s *Scheduler) ArchiveSweepJob(ctx context.Context) error {
	return s.runLocked(ctx, jobArchiveSweep, sweepLockTTL, func(ctx context.Context) error {
		archived, err := s.archiveSvc.SweepPending(ctx, s.cfg.SweepBatchSize)
		if archived > 0 {
			obsmetrics.Scheduler().AddBatchProcessed(jobArchiveSweep, "bills", archived)
			s.logger(ctx).Info("archive sweep finished", zap.Int("archived", archived))
		}
		return err
	})
}

// ExportAgedJob exports unexported bills older than the configured age.
// The export lock lives inside the archive service, shared with the
// manual trigger, so a concurrent export is not an error here.
func (s *Scheduler) ExportAgedJob(ctx context.Context) error {
	cutoff := s.clock.Now().UTC().AddDate(0, 0, -s.appCfg.ExportMaxAgeDays)
	result, err := s.archiveSvc.ExportAged(ctx, cutoff)
	if errors.Is(err, archivedomain.ErrExportLocked) {
		s.logger(ctx).Info("aged export already running elsewhere")
		return nil
	}
	if err != nil {
		return err
	}
	if result.BillCount > 0 {
		obsmetrics.Scheduler().AddBatchProcessed(jobExportAged, "bills", result.BillCount)
	}
	return nil
}

func (s *Scheduler) runLocked(ctx context.Context, name string, ttl time.Duration, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}

	key := "scheduler:" + name
	token, ok, err := s.locker.TryLock(ctx, key, ttl)
	if err != nil {
		// Redis trouble must not stop archival; run unguarded instead.
		s.logger(ctx).Warn("job lock unavailable, running unguarded",
			zap.String("job", name),
			zap.Error(err),
		)
		return fn(ctx)
	}
	if !ok {
		s.logger(ctx).Debug("job held by another replica", zap.String("job", name))
		return nil
	}
	defer func() {
		if err := s.locker.Release(ctx, key, token); err != nil {
			s.logger(ctx).Warn("could not release job lock",
				zap.String("job", name),
				zap.Error(err),
			)
		}
	}()

	return fn(ctx)
}

func (s *Scheduler) exportDue() bool {
	if s.cfg.ExportInterval <= 0 {
		return false
	}
	return !s.clock.Now().Before(s.nextExportAt)
}

// seedExportCadence aligns the export schedule with the newest
// exported_at on record so a restart does not re-export early. With no
// prior export the first tick exports immediately.
func (s *Scheduler) seedExportCadence(ctx context.Context) {
	var bill billingdomain.Bill
	err := s.db.WithContext(ctx).
		Where("exported_at IS NOT NULL").
		Order("exported_at DESC").
		First(&bill).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return
	}
	if err != nil {
		s.log.Warn("could not read last export time", zap.Error(err))
		return
	}

	next := bill.ExportedAt.Add(s.cfg.ExportInterval)
	if next.After(s.clock.Now()) {
		s.nextExportAt = next
	}
}
