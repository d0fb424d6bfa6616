package storemetrics

import (
	"strings"
	"sync"
)

// Recorder accumulates business counters. The billing and archive
// services record through the package-level facade so tests run
// without a registry.
type Recorder interface {
	RecordBill(totalMinor, discountMinor int64, loyaltyApplied bool)
	RecordArchiveFailure(stage string)
}

type recorder struct {
	metrics *metrics
}

type noopRecorder struct{}

func (noopRecorder) RecordBill(int64, int64, bool) {}
func (noopRecorder) RecordArchiveFailure(string)   {}

var (
	activeRecorder Recorder = noopRecorder{}
	recorderMu     sync.RWMutex
)

func setRecorder(rec Recorder) {
	if rec == nil {
		return
	}
	recorderMu.Lock()
	activeRecorder = rec
	recorderMu.Unlock()
}

// RecordBill counts one finalized bill with its money movement.
func RecordBill(totalMinor, discountMinor int64, loyaltyApplied bool) {
	recorderMu.RLock()
	rec := activeRecorder
	recorderMu.RUnlock()
	rec.RecordBill(totalMinor, discountMinor, loyaltyApplied)
}

// RecordArchiveFailure counts a failed archival stage (render, store, mark).
func RecordArchiveFailure(stage string) {
	recorderMu.RLock()
	rec := activeRecorder
	recorderMu.RUnlock()
	rec.RecordArchiveFailure(stage)
}

func (r *recorder) RecordBill(totalMinor, discountMinor int64, loyaltyApplied bool) {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.bills.Inc()
	if totalMinor > 0 {
		r.metrics.revenueMinor.Add(float64(totalMinor))
	}
	if discountMinor > 0 {
		r.metrics.discountMinor.Add(float64(discountMinor))
	}
	if loyaltyApplied {
		r.metrics.loyaltyRewards.Inc()
	}
}

func (r *recorder) RecordArchiveFailure(stage string) {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.archiveFailures.WithLabelValues(normalizeLabel(stage)).Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}
