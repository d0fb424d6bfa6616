package domain

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/muralikrishna41140/cakeraft-sub001/pkg/db/pagination"
)

type Repository interface {
	CreateBill(ctx context.Context, tx *gorm.DB, bill *Bill) error
	FindBillByID(ctx context.Context, db *gorm.DB, id int64) (*Bill, error)
	FindBillByNumber(ctx context.Context, db *gorm.DB, number string) (*Bill, error)
	ListBills(ctx context.Context, db *gorm.DB, filter ListBillsFilter, page pagination.Pagination) ([]*Bill, error)
	RevenueTotals(ctx context.Context, db *gorm.DB, from, to *time.Time) (*RevenueTotalsRow, error)
	ItemTotals(ctx context.Context, db *gorm.DB, from, to *time.Time) (*ItemTotalsRow, error)
	TopProducts(ctx context.Context, db *gorm.DB, from, to *time.Time, limit int) ([]*TopProductRow, error)
}

type ListBillsFilter struct {
	Phone string
	From  *time.Time
	To    *time.Time
}

// RevenueTotalsRow aggregates over bills in range.
type RevenueTotalsRow struct {
	BillCount          int64
	GrossMinor         int64
	TotalDiscountMinor int64
	NetMinor           int64
}

// ItemTotalsRow aggregates over bill lines in range. Cake and non-cake
// revenue are line totals net of item discounts, before loyalty.
type ItemTotalsRow struct {
	ItemDiscountMinor   int64
	CakeRevenueMinor    int64
	NonCakeRevenueMinor int64
}

type TopProductRow struct {
	ProductID    int64
	Name         string
	Quantity     int64
	RevenueMinor int64
}
