// Package repository implements the loyalty read model over bills.
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/muralikrishna41140/cakeraft-sub001/internal/loyalty/domain"
)

type repo struct{}

// Provide returns the loyalty repository.
func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CountQualifyingBills(ctx context.Context, db *gorm.DB, phone string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Raw(`SELECT COUNT(*) FROM bills WHERE customer_phone = ? AND has_cake_items = ?`, phone, true).
		Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) ListQualifyingBills(ctx context.Context, db *gorm.DB, phone string) ([]*domain.QualifyingBill, error) {
	var rows []*domain.QualifyingBill
	// The cake subtotal is reconstructed from the lines' extended prices,
	// before item discounts, matching what Evaluate saw at checkout time.
	err := db.WithContext(ctx).
		Raw(`
			SELECT b.id AS bill_id,
			       b.bill_number,
			       b.created_at AS bill_date,
			       b.loyalty_info,
			       COALESCE(SUM(CASE WHEN i.is_cake THEN i.line_subtotal_minor ELSE 0 END), 0) AS cake_subtotal_minor
			FROM bills b
			LEFT JOIN bill_items i ON i.bill_id = b.id
			WHERE b.customer_phone = ? AND b.has_cake_items = ?
			GROUP BY b.id, b.bill_number, b.created_at, b.loyalty_info
			ORDER BY b.created_at ASC, b.id ASC`, phone, true).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
