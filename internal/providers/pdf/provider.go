// Package pdf renders printable bill receipts.
package pdf

import (
	"context"
	"io"
)

type Provider interface {
	GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error)
}

type ReceiptData struct {
	StoreName    string
	StoreAddress string
	StorePhone   string

	BillNumber string
	BillDate   string

	CustomerName  string
	CustomerPhone string

	Items []ReceiptItem

	Subtotal       string
	Discount       string
	LoyaltyMessage string
	Total          string
}

type ReceiptItem struct {
	Description string
	Qty         int
	UnitPrice   string
	Amount      string
}
