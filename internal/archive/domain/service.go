// Package domain defines bill archival: receipt rendering, storage and
// the aged-bill spreadsheet export.
package domain

import (
	"context"
	"errors"
	"io"
	"time"

	billingdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/billing/domain"
)

type Service interface {
	// ArchiveBill renders the bill's receipt, stores it and marks the
	// bill archived. Failures mark the bill failed so the sweep can
	// retry it.
	ArchiveBill(ctx context.Context, billID int64) error

	// SweepPending re-archives up to limit pending or failed bills and
	// reports how many were archived.
	SweepPending(ctx context.Context, limit int) (int, error)

	// ExportAged writes bills created before olderThan that have not
	// been exported yet into a spreadsheet and marks them exported.
	ExportAged(ctx context.Context, olderThan time.Time) (*ExportResult, error)
}

// Sink persists a rendered receipt and returns a URL it can be fetched
// from later.
type Sink interface {
	Store(ctx context.Context, bill *billingdomain.Bill, receipt io.Reader) (string, error)
}

type ExportResult struct {
	Path      string    `json:"path,omitempty"`
	BillCount int       `json:"bill_count"`
	ItemCount int       `json:"item_count"`
	OlderThan time.Time `json:"older_than"`
}

var (
	ErrBillNotFound = errors.New("bill_not_found")
	ErrExportLocked = errors.New("export_locked")
)
