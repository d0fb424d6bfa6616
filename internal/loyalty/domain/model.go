// Package domain defines the loyalty engine's types and contracts.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Decision is the outcome of evaluating the reward cadence for a single
// checkout. It is snapshotted onto the bill as written, so a later config
// change never rewrites what the customer was told at the counter.
type Decision struct {
	Applied         bool   `json:"applied"`
	PurchaseNumber  int64  `json:"purchase_number"`
	DiscountPercent int    `json:"discount_percent"`
	DiscountMinor   int64  `json:"discount_minor"`
	Message         string `json:"message"`
}

// QualifyingBill is one persisted bill that advanced a customer's
// purchase counter, joined with its cake-only subtotal.
type QualifyingBill struct {
	BillID            int64
	BillNumber        string
	BillDate          time.Time
	CakeSubtotalMinor int64
	LoyaltyInfo       datatypes.JSON
}
