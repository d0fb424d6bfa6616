package domain

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidPhone = errors.New("invalid_phone")

// Service evaluates the bakery's reward cadence: every Nth qualifying
// cake purchase earns a percentage off the cake-only subtotal.
type Service interface {
	// CheckStatus reports where a phone stands in the cadence without
	// changing anything. A prospective cake subtotal > 0 additionally
	// previews the discount the next purchase would earn on it.
	CheckStatus(ctx context.Context, phone string, prospectiveCakeSubtotalMinor int64) (*Status, error)

	// Evaluate decides the discount for a checkout in flight, counting
	// the purchase being made as priorQualifying + 1.
	Evaluate(ctx context.Context, phone string, cakeSubtotalMinor int64) (Decision, error)

	// History lists the phone's qualifying purchases oldest first.
	History(ctx context.Context, phone string) ([]*HistoryEntry, error)
}

type Status struct {
	Phone              string `json:"phone"`
	PurchaseCount      int64  `json:"purchase_count"`
	NextPurchaseNumber int64  `json:"next_purchase_number"`
	WillEarnReward     bool   `json:"will_earn_reward"`
	// PurchasesUntilReward counts the milestone purchase itself: a
	// brand-new customer on a five-purchase cadence sees 5, and so does
	// a customer who just redeemed.
	PurchasesUntilReward int    `json:"purchases_until_reward"`
	Message              string `json:"message"`
	// PotentialDiscount is the rupee discount the next purchase would
	// earn on the prospective cake subtotal passed to CheckStatus. Nil
	// when no subtotal was supplied.
	PotentialDiscount *float64 `json:"potential_discount,omitempty"`
}

type HistoryEntry struct {
	BillNumber     string    `json:"bill_number"`
	BillDate       time.Time `json:"bill_date"`
	CakeSubtotal   float64   `json:"cake_subtotal"`
	PurchaseNumber int       `json:"purchase_number"`
	RewardApplied  bool      `json:"reward_applied"`
	DiscountAmount float64   `json:"discount_amount"`
}
