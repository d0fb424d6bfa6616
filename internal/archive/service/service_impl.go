// Package service archives bills as PDF receipts. Checkout enqueues
// bill IDs onto a bounded queue drained by a background worker; the
// scheduler sweep catches anything the queue dropped or that failed.
package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/muralikrishna41140/cakeraft-sub001/internal/archive/domain"
	billingdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/billing/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/clock"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/config"
	obsmetrics "github.com/muralikrishna41140/cakeraft-sub001/internal/observability/metrics"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/providers/pdf"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/ratelimit"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/storemetrics"
	"github.com/muralikrishna41140/cakeraft-sub001/pkg/money"
)

const (
	queueSize         = 64
	archiveTimeout    = 30 * time.Second
	defaultSweepBatch = 25
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Cfg     config.Config
	Clock   clock.Clock
	Bills   billingdomain.Repository
	PDF     pdf.Provider
	Sink    domain.Sink
	Locker  *ratelimit.Locker   `optional:"true"`
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type service struct {
	db      *gorm.DB
	log     *zap.Logger
	cfg     config.Config
	clock   clock.Clock
	bills   billingdomain.Repository
	pdf     pdf.Provider
	sink    domain.Sink
	locker  *ratelimit.Locker
	metrics *obsmetrics.Metrics

	queue chan int64
	stop  chan struct{}
	wg    sync.WaitGroup
}

func New(p Params) (domain.Service, billingdomain.Archiver) {
	s := &service{
		db:      p.DB,
		log:     p.Log.Named("archive.service"),
		cfg:     p.Cfg,
		clock:   p.Clock,
		bills:   p.Bills,
		pdf:     p.PDF,
		sink:    p.Sink,
		locker:  p.Locker,
		metrics: p.Metrics,
		queue:   make(chan int64, queueSize),
		stop:    make(chan struct{}),
	}
	return s, s
}

// Register starts the archive worker with the application lifecycle.
func Register(lc fx.Lifecycle, svc domain.Service) {
	s, ok := svc.(*service)
	if !ok {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.start()
			return nil
		},
		OnStop: func(context.Context) error {
			s.shutdown()
			return nil
		},
	})
}

// Enqueue hands a bill to the worker without blocking checkout. A full
// queue leaves the bill pending for the sweep.
func (s *service) Enqueue(billID int64) {
	select {
	case s.queue <- billID:
	default:
		s.log.Warn("archive queue full, leaving bill pending", zap.Int64("bill_id", billID))
	}
}

func (s *service) start() {
	s.wg.Add(1)
	go s.run()
}

func (s *service) shutdown() {
	close(s.stop)
	s.wg.Wait()
}

func (s *service) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stop:
			return
		case billID := <-s.queue:
			ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
			_ = s.ArchiveBill(ctx, billID)
			cancel()
		}
	}
}

func (s *service) ArchiveBill(ctx context.Context, billID int64) error {
	bill, err := s.bills.FindBillByID(ctx, s.db, billID)
	if err != nil {
		return err
	}
	if bill == nil {
		return domain.ErrBillNotFound
	}
	if bill.ArchiveStatus == billingdomain.ArchiveStatusArchived && bill.ArchiveURL != nil {
		return nil
	}

	receipt, err := s.pdf.GenerateReceipt(ctx, buildReceipt(s.cfg.Store, bill))
	if err != nil {
		s.markFailed(ctx, bill, "render", err)
		return err
	}

	url, err := s.sink.Store(ctx, bill, receipt)
	if err != nil {
		s.markFailed(ctx, bill, "store", err)
		return err
	}

	if err := s.db.WithContext(ctx).Model(&billingdomain.Bill{}).
		Where("id = ?", bill.ID).
		Updates(map[string]any{
			"archive_status": string(billingdomain.ArchiveStatusArchived),
			"archive_url":    url,
			"updated_at":     s.clock.Now(),
		}).Error; err != nil {
		s.markFailed(ctx, bill, "mark", err)
		return err
	}

	s.metrics.RecordArchiveAttempt(ctx, "archived")
	s.log.Info("bill archived",
		zap.String("bill_number", bill.BillNumber),
		zap.String("archive_url", url),
	)
	return nil
}

func (s *service) markFailed(ctx context.Context, bill *billingdomain.Bill, stage string, cause error) {
	s.metrics.RecordArchiveAttempt(ctx, "failed")
	storemetrics.RecordArchiveFailure(stage)
	s.log.Error("archival error",
		zap.String("bill_number", bill.BillNumber),
		zap.String("stage", stage),
		zap.Error(cause),
	)

	if err := s.db.WithContext(ctx).Model(&billingdomain.Bill{}).
		Where("id = ?", bill.ID).
		Updates(map[string]any{
			"archive_status": string(billingdomain.ArchiveStatusFailed),
			"updated_at":     s.clock.Now(),
		}).Error; err != nil {
		s.log.Error("could not mark bill archive failed",
			zap.String("bill_number", bill.BillNumber),
			zap.Error(err),
		)
	}
}

func (s *service) SweepPending(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = defaultSweepBatch
	}

	var ids []int64
	if err := s.db.WithContext(ctx).
		Model(&billingdomain.Bill{}).
		Where("archive_status IN ?", []string{
			string(billingdomain.ArchiveStatusPending),
			string(billingdomain.ArchiveStatusFailed),
		}).
		Order("created_at asc").
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}

	archived := 0
	for _, id := range ids {
		if err := s.ArchiveBill(ctx, id); err != nil {
			continue // already logged and marked failed
		}
		archived++
	}
	return archived, nil
}

func buildReceipt(store config.StoreConfig, bill *billingdomain.Bill) pdf.ReceiptData {
	items := make([]pdf.ReceiptItem, 0, len(bill.Items))
	for _, item := range bill.Items {
		items = append(items, pdf.ReceiptItem{
			Description: item.DisplayName,
			Qty:         item.Quantity,
			UnitPrice:   money.FormatINR(item.UnitPriceMinor),
			Amount:      money.FormatINR(item.TotalMinor),
		})
	}

	data := pdf.ReceiptData{
		StoreName:     store.Name,
		StoreAddress:  store.Address,
		StorePhone:    store.Phone,
		BillNumber:    bill.BillNumber,
		BillDate:      bill.CreatedAt.UTC().Format("02 Jan 2006 15:04"),
		CustomerName:  bill.CustomerName,
		CustomerPhone: bill.CustomerPhone,
		Items:         items,
		Subtotal:      money.FormatINR(bill.SubtotalMinor),
		Total:         money.FormatINR(bill.TotalMinor),
	}
	if bill.TotalDiscountMinor > 0 {
		data.Discount = money.FormatINR(bill.TotalDiscountMinor)
	}
	if decision := bill.LoyaltyInfo.Data(); decision.Applied {
		data.LoyaltyMessage = decision.Message
	}
	return data
}
