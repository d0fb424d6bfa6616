// Package domain contains the billing models, contracts and DTOs.
package domain

import (
	"time"

	"gorm.io/datatypes"

	loyaltydomain "github.com/muralikrishna41140/cakeraft-sub001/internal/loyalty/domain"
)

// ArchiveStatus tracks the PDF archival lifecycle of a bill.
type ArchiveStatus string

const (
	ArchiveStatusPending  ArchiveStatus = "pending"
	ArchiveStatusArchived ArchiveStatus = "archived"
	ArchiveStatusFailed   ArchiveStatus = "failed"
	ArchiveStatusSkipped  ArchiveStatus = "skipped"
)

// DiscountKind is the per-line discount flavor accepted at checkout.
type DiscountKind string

const (
	DiscountKindPercentage DiscountKind = "percentage"
	DiscountKindFixed      DiscountKind = "fixed"
)

// Bill is a finalized sale. Amounts are stored in minor units (paise);
// LoyaltyInfo snapshots the reward decision exactly as announced at the
// counter.
type Bill struct {
	ID                 int64                                      `json:"id" gorm:"primaryKey"`
	BillNumber         string                                     `json:"bill_number" gorm:"type:text;not null;uniqueIndex:ux_bills_number"`
	CustomerName       string                                     `json:"customer_name" gorm:"type:text;not null"`
	CustomerPhone      string                                     `json:"customer_phone" gorm:"type:text;not null;index:ix_bills_phone"`
	SubtotalMinor      int64                                      `json:"subtotal_minor" gorm:"not null"`
	TotalDiscountMinor int64                                      `json:"total_discount_minor" gorm:"not null"`
	TotalMinor         int64                                      `json:"total_minor" gorm:"not null"`
	HasCakeItems       bool                                       `json:"has_cake_items" gorm:"not null;default:false;index:ix_bills_phone"`
	LoyaltyInfo        datatypes.JSONType[loyaltydomain.Decision] `json:"loyalty_info"`
	ArchiveStatus      ArchiveStatus                              `json:"archive_status" gorm:"type:text;not null;default:'pending'"`
	ArchiveURL         *string                                    `json:"archive_url,omitempty" gorm:"type:text"`
	ExportedAt         *time.Time                                 `json:"exported_at,omitempty"`
	CreatedAt          time.Time                                  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP;index:ix_bills_created"`
	UpdatedAt          time.Time                                  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	Items []BillItem `json:"items,omitempty" gorm:"foreignKey:BillID"`
}

func (Bill) TableName() string { return "bills" }

// BillItem is one line on a bill. UnitPriceMinor snapshots the catalog
// price at sale time; DisplayName carries the weight suffix for
// weighed goods (e.g. "Black Forest (1.5kg)").
type BillItem struct {
	ID                int64        `json:"id" gorm:"primaryKey"`
	BillID            int64        `json:"bill_id" gorm:"not null;index:ix_bill_items_bill"`
	ProductID         int64        `json:"product_id" gorm:"not null"`
	DisplayName       string       `json:"display_name" gorm:"type:text;not null"`
	CategoryName      string       `json:"category_name" gorm:"type:text;not null"`
	IsCake            bool         `json:"is_cake" gorm:"not null;default:false"`
	Quantity          int          `json:"quantity" gorm:"not null"`
	Weight            *float64     `json:"weight,omitempty"`
	UnitPriceMinor    int64        `json:"unit_price_minor" gorm:"not null"`
	LineSubtotalMinor int64        `json:"line_subtotal_minor" gorm:"not null"`
	DiscountMinor     int64        `json:"discount_minor" gorm:"not null;default:0"`
	DiscountKind      DiscountKind `json:"discount_kind,omitempty" gorm:"type:text"`
	TotalMinor        int64        `json:"total_minor" gorm:"not null"`
	CreatedAt         time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (BillItem) TableName() string { return "bill_items" }

// BillSequence is the per-date counter behind bill numbering. SeqDate
// is the store-local day formatted YYYYMMDD.
type BillSequence struct {
	SeqDate string `gorm:"type:text;primaryKey"`
	Seq     int64  `gorm:"not null;default:0"`
}

func (BillSequence) TableName() string { return "bill_sequences" }
