package domain

import (
	"context"

	"gorm.io/gorm"
)

// Repository reads a customer's qualifying purchase history. A bill
// qualifies when it was persisted with has_cake_items = true for the
// exact (trimmed) phone.
type Repository interface {
	CountQualifyingBills(ctx context.Context, db *gorm.DB, phone string) (int64, error)
	ListQualifyingBills(ctx context.Context, db *gorm.DB, phone string) ([]*QualifyingBill, error)
}
