package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/muralikrishna41140/cakeraft-sub001/internal/archive/domain"
	billingdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/billing/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/pkg/money"
)

const (
	exportLockKey = "export:aged"
	exportLockTTL = 10 * time.Minute
	exportBatch   = 200
	markChunk     = 500

	billsSheet = "Bills"
	itemsSheet = "Items"
)

// ExportAged streams unexported bills older than the cutoff into a
// workbook. The redis lock keeps concurrent replicas from producing
// duplicate exports; without redis the export runs unguarded.
func (s *service) ExportAged(ctx context.Context, olderThan time.Time) (*domain.ExportResult, error) {
	if s.locker != nil {
		token, ok, err := s.locker.TryLock(ctx, exportLockKey, exportLockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrExportLocked
		}
		defer func() {
			if err := s.locker.Release(ctx, exportLockKey, token); err != nil {
				s.log.Warn("could not release export lock", zap.Error(err))
			}
		}()
	}

	result := &domain.ExportResult{OlderThan: olderThan}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", billsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(billsSheet, "A1", &[]any{
		"Bill Number", "Date", "Customer", "Phone",
		"Subtotal", "Discount", "Total", "Has Cake Items", "Loyalty Applied",
	}); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(itemsSheet, "A1", &[]any{
		"Bill Number", "Item", "Category", "Is Cake",
		"Quantity", "Weight (kg)", "Unit Price", "Discount", "Amount",
	}); err != nil {
		return nil, err
	}

	var (
		ids     []int64
		billRow = 1
		itemRow = 1
		bills   []*billingdomain.Bill
	)
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("created_at < ? AND exported_at IS NULL", olderThan).
		FindInBatches(&bills, exportBatch, func(_ *gorm.DB, _ int) error {
			for _, bill := range bills {
				billRow++
				cell, err := excelize.CoordinatesToCellName(1, billRow)
				if err != nil {
					return err
				}
				decision := bill.LoyaltyInfo.Data()
				if err := f.SetSheetRow(billsSheet, cell, &[]any{
					bill.BillNumber,
					bill.CreatedAt.UTC().Format("2006-01-02 15:04"),
					bill.CustomerName,
					bill.CustomerPhone,
					money.ToRupees(bill.SubtotalMinor),
					money.ToRupees(bill.TotalDiscountMinor),
					money.ToRupees(bill.TotalMinor),
					bill.HasCakeItems,
					decision.Applied,
				}); err != nil {
					return err
				}

				for _, item := range bill.Items {
					itemRow++
					cell, err := excelize.CoordinatesToCellName(1, itemRow)
					if err != nil {
						return err
					}
					var weight any
					if item.Weight != nil {
						weight = *item.Weight
					}
					if err := f.SetSheetRow(itemsSheet, cell, &[]any{
						bill.BillNumber,
						item.DisplayName,
						item.CategoryName,
						item.IsCake,
						item.Quantity,
						weight,
						money.ToRupees(item.UnitPriceMinor),
						money.ToRupees(item.DiscountMinor),
						money.ToRupees(item.TotalMinor),
					}); err != nil {
						return err
					}
					result.ItemCount++
				}

				ids = append(ids, bill.ID)
				result.BillCount++
			}
			return nil
		}).Error
	if err != nil {
		return nil, err
	}

	if result.BillCount == 0 {
		s.log.Info("no aged bills to export", zap.Time("older_than", olderThan))
		return result, nil
	}

	if err := os.MkdirAll(s.cfg.ExportDir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(s.cfg.ExportDir, fmt.Sprintf("aged-bills-%s.xlsx", s.clock.Now().UTC().Format("20060102-150405")))
	if err := f.SaveAs(path); err != nil {
		return nil, err
	}
	result.Path = path

	if err := s.markExported(ctx, ids); err != nil {
		// The workbook exists; the next run re-exports these bills.
		s.log.Error("could not mark bills exported", zap.Error(err))
		return nil, err
	}

	s.log.Info("aged bills exported",
		zap.String("path", path),
		zap.Int("bills", result.BillCount),
		zap.Int("items", result.ItemCount),
	)
	return result, nil
}

func (s *service) markExported(ctx context.Context, ids []int64) error {
	now := s.clock.Now()
	for start := 0; start < len(ids); start += markChunk {
		end := start + markChunk
		if end > len(ids) {
			end = len(ids)
		}
		if err := s.db.WithContext(ctx).Model(&billingdomain.Bill{}).
			Where("id IN ?", ids[start:end]).
			Updates(map[string]any{"exported_at": now, "updated_at": now}).Error; err != nil {
			return err
		}
	}
	return nil
}
