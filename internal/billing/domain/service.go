package domain

import (
	"context"
	"errors"
	"time"

	"github.com/muralikrishna41140/cakeraft-sub001/pkg/db/pagination"
)

type Service interface {
	// Checkout re-prices the request from the catalog, applies item and
	// loyalty discounts and persists the bill atomically.
	Checkout(ctx context.Context, req CheckoutRequest) (*BillResponse, error)

	GetBill(ctx context.Context, id string) (*BillResponse, error)
	GetBillByNumber(ctx context.Context, number string) (*BillResponse, error)
	ListBills(ctx context.Context, req ListBillsRequest) (*ListBillsResponse, error)
	RevenueSummary(ctx context.Context, req RevenueSummaryRequest) (*RevenueSummaryResponse, error)
}

// Archiver receives committed bills for post-checkout PDF archival.
// Failures there never fail a checkout.
type Archiver interface {
	Enqueue(billID int64)
}

type DiscountRequest struct {
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
}

type CheckoutItemRequest struct {
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Weight    *float64         `json:"weight"`
	Discount  *DiscountRequest `json:"discount"`
}

type CheckoutRequest struct {
	CustomerName  string                `json:"customer_name"`
	CustomerPhone string                `json:"customer_phone"`
	Items         []CheckoutItemRequest `json:"items"`
}

type ListBillsRequest struct {
	Phone string
	From  string
	To    string
	Page  pagination.Pagination
}

type RevenueSummaryRequest struct {
	From string
	To   string
}

type BillItemResponse struct {
	ProductID    string   `json:"product_id"`
	DisplayName  string   `json:"display_name"`
	CategoryName string   `json:"category_name"`
	IsCake       bool     `json:"is_cake"`
	Quantity     int      `json:"quantity"`
	Weight       *float64 `json:"weight,omitempty"`
	UnitPrice    float64  `json:"unit_price"`
	LineSubtotal float64  `json:"line_subtotal"`
	Discount     float64  `json:"discount"`
	Total        float64  `json:"total"`
}

type BillLoyaltyResponse struct {
	Applied         bool    `json:"applied"`
	PurchaseNumber  int64   `json:"purchase_number"`
	DiscountPercent int     `json:"discount_percent"`
	Discount        float64 `json:"discount"`
	Message         string  `json:"message"`
}

type BillResponse struct {
	ID            string               `json:"id"`
	BillNumber    string               `json:"bill_number"`
	CustomerName  string               `json:"customer_name"`
	CustomerPhone string               `json:"customer_phone"`
	Subtotal      float64              `json:"subtotal"`
	TotalDiscount float64              `json:"total_discount"`
	Total         float64              `json:"total"`
	HasCakeItems  bool                 `json:"has_cake_items"`
	Loyalty       *BillLoyaltyResponse `json:"loyalty,omitempty"`
	ArchiveStatus string               `json:"archive_status"`
	ArchiveURL    *string              `json:"archive_url,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	Items         []BillItemResponse   `json:"items"`
}

type ListBillsResponse struct {
	Bills []BillResponse `json:"bills"`
	pagination.PageInfo
}

type TopProductResponse struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int64   `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

type RevenueSummaryResponse struct {
	From            *time.Time           `json:"from,omitempty"`
	To              *time.Time           `json:"to,omitempty"`
	BillCount       int64                `json:"bill_count"`
	Gross           float64              `json:"gross"`
	ItemDiscount    float64              `json:"item_discount"`
	LoyaltyDiscount float64              `json:"loyalty_discount"`
	Net             float64              `json:"net"`
	CakeRevenue     float64              `json:"cake_revenue"`
	NonCakeRevenue  float64              `json:"non_cake_revenue"`
	TopProducts     []TopProductResponse `json:"top_products"`
}

var (
	ErrInvalidCustomer = errors.New("invalid_customer")
	ErrNoItems         = errors.New("no_items")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrInvalidDiscount = errors.New("invalid_discount")
	ErrInvalidWeight   = errors.New("invalid_weight")
	ErrWeightRequired  = errors.New("weight_required")
	ErrProductNotFound = errors.New("product_not_found")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidRange    = errors.New("invalid_range")
	ErrNotFound        = errors.New("not_found")
	ErrTransaction     = errors.New("transaction_error")
)
