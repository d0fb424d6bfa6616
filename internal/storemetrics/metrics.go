// Package storemetrics accumulates the bakery's business counters on a
// dedicated prometheus registry and pushes them to a configured
// aggregation endpoint. Recording never blocks checkout.
package storemetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	bills           prometheus.Counter
	revenueMinor    prometheus.Counter
	discountMinor   prometheus.Counter
	loyaltyRewards  prometheus.Counter
	archiveFailures *prometheus.CounterVec
}

func newMetrics(registry *prometheus.Registry) *metrics {
	m := &metrics{
		bills: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cakeraft_store_bills_total",
			Help: "Bills finalized at checkout.",
		}),
		revenueMinor: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cakeraft_store_revenue_minor_total",
			Help: "Billed revenue in minor units (paise).",
		}),
		discountMinor: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cakeraft_store_discount_minor_total",
			Help: "Discounts granted in minor units (paise).",
		}),
		loyaltyRewards: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cakeraft_store_loyalty_rewards_total",
			Help: "Checkouts where the loyalty reward applied.",
		}),
		archiveFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cakeraft_store_archive_failures_total",
			Help: "Bill PDF archival failures by stage.",
		}, []string{"stage"}),
	}
	registry.MustRegister(m.bills, m.revenueMinor, m.discountMinor, m.loyaltyRewards, m.archiveFailures)
	return m
}
