// Package repository implements bill persistence and report aggregates.
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/muralikrishna41140/cakeraft-sub001/internal/billing/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/pkg/db/option"
	"github.com/muralikrishna41140/cakeraft-sub001/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CreateBill(ctx context.Context, tx *gorm.DB, bill *domain.Bill) error {
	// Items ride along through the association.
	return tx.WithContext(ctx).Create(bill).Error
}

func (r *repo) FindBillByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Bill, error) {
	var bill domain.Bill
	err := db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		Limit(1).
		Find(&bill).Error
	if err != nil {
		return nil, err
	}
	if bill.ID == 0 {
		return nil, nil
	}
	return &bill, nil
}

func (r *repo) FindBillByNumber(ctx context.Context, db *gorm.DB, number string) (*domain.Bill, error) {
	var bill domain.Bill
	err := db.WithContext(ctx).
		Preload("Items").
		Where("bill_number = ?", number).
		Limit(1).
		Find(&bill).Error
	if err != nil {
		return nil, err
	}
	if bill.ID == 0 {
		return nil, nil
	}
	return &bill, nil
}

func (r *repo) ListBills(ctx context.Context, db *gorm.DB, filter domain.ListBillsFilter, page pagination.Pagination) ([]*domain.Bill, error) {
	stmt := db.WithContext(ctx).Model(&domain.Bill{}).Preload("Items")
	if filter.Phone != "" {
		stmt = stmt.Where("customer_phone = ?", filter.Phone)
	}
	if filter.From != nil {
		stmt = stmt.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		stmt = stmt.Where("created_at < ?", *filter.To)
	}

	stmt = option.ApplyPagination(page).Apply(stmt)

	var bills []*domain.Bill
	if err := stmt.Order("created_at desc, id desc").Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}

func (r *repo) RevenueTotals(ctx context.Context, db *gorm.DB, from, to *time.Time) (*domain.RevenueTotalsRow, error) {
	stmt := db.WithContext(ctx).Model(&domain.Bill{}).
		Select(`COUNT(*) AS bill_count,
			COALESCE(SUM(subtotal_minor), 0) AS gross_minor,
			COALESCE(SUM(total_discount_minor), 0) AS total_discount_minor,
			COALESCE(SUM(total_minor), 0) AS net_minor`)
	stmt = applyRange(stmt, "created_at", from, to)

	var row domain.RevenueTotalsRow
	if err := stmt.Scan(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repo) ItemTotals(ctx context.Context, db *gorm.DB, from, to *time.Time) (*domain.ItemTotalsRow, error) {
	stmt := db.WithContext(ctx).Table("bill_items i").
		Joins("JOIN bills b ON b.id = i.bill_id").
		Select(`COALESCE(SUM(i.discount_minor), 0) AS item_discount_minor,
			COALESCE(SUM(CASE WHEN i.is_cake THEN i.total_minor ELSE 0 END), 0) AS cake_revenue_minor,
			COALESCE(SUM(CASE WHEN i.is_cake THEN 0 ELSE i.total_minor END), 0) AS non_cake_revenue_minor`)
	stmt = applyRange(stmt, "b.created_at", from, to)

	var row domain.ItemTotalsRow
	if err := stmt.Scan(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repo) TopProducts(ctx context.Context, db *gorm.DB, from, to *time.Time, limit int) ([]*domain.TopProductRow, error) {
	stmt := db.WithContext(ctx).Table("bill_items i").
		Joins("JOIN bills b ON b.id = i.bill_id").
		Joins("JOIN products p ON p.id = i.product_id").
		Select(`i.product_id, p.name, SUM(i.quantity) AS quantity, SUM(i.total_minor) AS revenue_minor`).
		Group("i.product_id, p.name").
		Order("quantity DESC, revenue_minor DESC").
		Limit(limit)
	stmt = applyRange(stmt, "b.created_at", from, to)

	var rows []*domain.TopProductRow
	if err := stmt.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func applyRange(stmt *gorm.DB, column string, from, to *time.Time) *gorm.DB {
	if from != nil {
		stmt = stmt.Where(column+" >= ?", *from)
	}
	if to != nil {
		stmt = stmt.Where(column+" < ?", *to)
	}
	return stmt
}
