// Package numbering allocates bill numbers of the form
// BILL-<YYYYMMDD>-<seq>. The sequence is an atomic increment-and-fetch
// against a per-date counter row so concurrent checkouts can never
// share a number.
package numbering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	pkgdb "github.com/muralikrishna41140/cakeraft-sub001/pkg/db"
)

const (
	numberPrefix = "BILL"
	maxAttempts  = 10
	backoffBase  = 25 * time.Millisecond
)

var errSequenceMissing = errors.New("bill sequence row missing")

type Params struct {
	fx.In

	Log *zap.Logger
}

// Allocator hands out bill numbers. Increments commit independently of
// the bill insert: a failed checkout burns its number, so a duplicate
// on insert always resolves to a fresh number on the next attempt.
type Allocator struct {
	log *zap.Logger
}

func New(p Params) *Allocator {
	return &Allocator{log: p.Log.Named("billing.numbering")}
}

// Next increments the counter for the day of at and returns the
// formatted number. Single attempt; the caller owns the retry budget.
func (a *Allocator) Next(ctx context.Context, db *gorm.DB, at time.Time) (string, error) {
	seqDate := at.Format("20060102")

	if err := db.WithContext(ctx).Exec(
		`INSERT INTO bill_sequences (seq_date, seq) VALUES (?, 0) ON CONFLICT (seq_date) DO NOTHING`,
		seqDate,
	).Error; err != nil {
		return "", err
	}

	var seq int64
	if err := db.WithContext(ctx).
		Raw(`UPDATE bill_sequences SET seq = seq + 1 WHERE seq_date = ? RETURNING seq`, seqDate).
		Scan(&seq).Error; err != nil {
		return "", err
	}
	if seq == 0 {
		return "", errSequenceMissing
	}

	return fmt.Sprintf("%s-%s-%04d", numberPrefix, seqDate, seq), nil
}

// Fallback derives a number from the wall clock for when the counter
// stays unreachable across the whole retry budget. Uniqueness then
// rests on the bills.bill_number index alone.
func (a *Allocator) Fallback(at time.Time) string {
	suffix := at.UnixMilli() % 1_000_000
	number := fmt.Sprintf("%s-%s-%06d", numberPrefix, at.Format("20060102"), suffix)
	a.log.Warn("bill numbering fell back to timestamp suffix", zap.String("bill_number", number))
	return number
}

// Backoff is the allocation retry budget: jittered constant backoff,
// ten attempts in total.
func (a *Allocator) Backoff() retry.Backoff {
	return retry.WithMaxRetries(maxAttempts-1, retry.WithJitter(backoffBase/2, retry.NewConstant(backoffBase)))
}

// IsRetryable reports whether a failed allocation or bill insert is
// worth re-entering the budget: duplicate numbers, serialization
// failures and lock timeouts all are.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errSequenceMissing) {
		return true
	}
	if pkgdb.IsDuplicateKeyErr(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
	}
	return false
}
