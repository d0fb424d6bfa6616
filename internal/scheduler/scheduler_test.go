package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	archivedomain "github.com/muralikrishna41140/cakeraft-sub001/internal/archive/domain"
	billingdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/billing/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/clock"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/config"
	"github.com/muralikrishna41140/cakeraft-sub001/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeArchiveService struct {
	sweepCalls  int
	lastLimit   int
	sweepReturn int
	sweepErr    error

	exportCalls int
	exportCuts  []time.Time
	exportErr   error
}

func (f *fakeArchiveService) ArchiveBill(context.Context, int64) error { return nil }

func (f *fakeArchiveService) SweepPending(_ context.Context, limit int) (int, error) {
	f.sweepCalls++
	f.lastLimit = limit
	return f.sweepReturn, f.sweepErr
}

func (f *fakeArchiveService) ExportAged(_ context.Context, olderThan time.Time) (*archivedomain.ExportResult, error) {
	f.exportCalls++
	f.exportCuts = append(f.exportCuts, olderThan)
	if f.exportErr != nil {
		return nil, f.exportErr
	}
	return &archivedomain.ExportResult{BillCount: 2, ItemCount: 4, OlderThan: olderThan}, nil
}

func newTestScheduler(t *testing.T, archive archivedomain.Service, clk clock.Clock) (*Scheduler, *gorm.DB) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&billingdomain.Bill{}, &billingdomain.BillItem{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	sched, err := New(Params{
		DB:         dbConn,
		Log:        zap.NewNop(),
		Clock:      clk,
		ArchiveSvc: archive,
		AppConfig:  config.Config{ExportMaxAgeDays: 90},
		Config: Config{
			RunInterval:    time.Minute,
			SweepBatchSize: 10,
			ExportInterval: 7 * 24 * time.Hour,
		},
	})
	if err != nil {
		t.Fatalf("failed to build scheduler: %v", err)
	}
	return sched, dbConn
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop(), Clock: clock.New(), ArchiveSvc: &fakeArchiveService{}})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRunOnceSweepsEveryTick(t *testing.T) {
	archive := &fakeArchiveService{}
	clk := clock.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	sched, _ := newTestScheduler(t, archive, clk)
	sched.nextExportAt = clk.Now().Add(time.Hour)

	for i := 0; i < 3; i++ {
		if err := sched.RunOnce(context.Background()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	if archive.sweepCalls != 3 {
		t.Fatalf("expected 3 sweeps, got %d", archive.sweepCalls)
	}
	if archive.lastLimit != 10 {
		t.Fatalf("expected configured sweep batch, got %d", archive.lastLimit)
	}
	if archive.exportCalls != 0 {
		t.Fatalf("expected no export before cadence, got %d", archive.exportCalls)
	}
}

func TestRunOnceExportsWhenDue(t *testing.T) {
	archive := &fakeArchiveService{}
	clk := clock.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	sched, _ := newTestScheduler(t, archive, clk)

	if err := sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if archive.exportCalls != 1 {
		t.Fatalf("expected one export, got %d", archive.exportCalls)
	}
	wantCutoff := clk.Now().UTC().AddDate(0, 0, -90)
	if !archive.exportCuts[0].Equal(wantCutoff) {
		t.Fatalf("expected cutoff %v, got %v", wantCutoff, archive.exportCuts[0])
	}

	// Cadence advanced: the next tick must not export again.
	if err := sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if archive.exportCalls != 1 {
		t.Fatalf("expected export cadence to hold, got %d exports", archive.exportCalls)
	}
}

func TestRunOnceJoinsJobErrors(t *testing.T) {
	archive := &fakeArchiveService{
		sweepErr:  errors.New("render broke"),
		exportErr: errors.New("disk full"),
	}
	clk := clock.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	sched, _ := newTestScheduler(t, archive, clk)

	err := sched.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected joined error")
	}
	if !strings.Contains(err.Error(), "archive_sweep") || !strings.Contains(err.Error(), "export_aged") {
		t.Fatalf("expected both job names in error, got %v", err)
	}
}

func TestFailedExportRetriesNextTick(t *testing.T) {
	archive := &fakeArchiveService{exportErr: errors.New("disk full")}
	clk := clock.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	sched, _ := newTestScheduler(t, archive, clk)

	if err := sched.RunOnce(context.Background()); err == nil {
		t.Fatal("expected export error")
	}

	archive.exportErr = nil
	if err := sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("retry run: %v", err)
	}
	if archive.exportCalls != 2 {
		t.Fatalf("expected failed export to retry, got %d calls", archive.exportCalls)
	}
}

func TestExportLockedCountsAsDone(t *testing.T) {
	archive := &fakeArchiveService{exportErr: archivedomain.ErrExportLocked}
	clk := clock.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	sched, _ := newTestScheduler(t, archive, clk)

	if err := sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	// Another holder exported; this replica waits a full interval.
	archive.exportErr = nil
	if err := sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if archive.exportCalls != 1 {
		t.Fatalf("expected locked export to advance cadence, got %d calls", archive.exportCalls)
	}
}

func TestRunJobTreatsDeadlineAsSoftTimeout(t *testing.T) {
	archive := &fakeArchiveService{}
	clk := clock.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	sched, _ := newTestScheduler(t, archive, clk)

	err := sched.runJob(context.Background(), "archive_sweep", time.Second, func(context.Context) error {
		return context.DeadlineExceeded
	})
	if err != nil {
		t.Fatalf("expected deadline to be swallowed, got %v", err)
	}

	err = sched.runJob(context.Background(), "archive_sweep", time.Second, func(context.Context) error {
		return errors.New("render broke")
	})
	if err == nil || !strings.Contains(err.Error(), "archive_sweep") {
		t.Fatalf("expected named job error, got %v", err)
	}
}
