package ledger

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Registry holds the ledger's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	withdrawalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "withdrawals_total",
			Help:      "Withdrawal requests by outcome.",
		},
		[]string{"result"},
	)

	withdrawalDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "withdrawal_decisions_total",
			Help:      "Admin withdrawal status changes.",
		},
		[]string{"status"},
	)

	depositDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "deposit_decisions_total",
			Help:      "Admin deposit status changes.",
		},
		[]string{"status"},
	)

	commissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "commissions_total",
			Help:      "Referral commission attempts by outcome.",
		},
		[]string{"result"},
	)

	earningsFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "external_earnings_fallbacks_total",
			Help:      "External earnings lookups that fell back to zero.",
		},
	)

	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Duration of ledger operations.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"op"},
	)
)

func init() {
	Registry.MustRegister(
		withdrawalRequests,
		withdrawalDecisions,
		depositDecisions,
		commissions,
		earningsFallbacks,
		operationDuration,
	)
}

func observe(op string, start time.Time) {
	operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}

	return string(KindOf(err))
}
