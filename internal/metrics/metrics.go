package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ledger"

var (
	LedgerRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Ledger computations by outcome.",
		},
		[]string{"account", "status"}, // status: ok/structural/invariant/error
	)

	DroppedRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_records_total",
			Help:      "Order records dropped during normalization.",
		},
		[]string{"account", "reason"},
	)

	MatchedPairs = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "matched_pairs",
			Help:      "Matched buy/sell pairs in the latest ledger.",
		},
		[]string{"account"},
	)

	OpenLegs = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_legs",
			Help:      "Unmatched legs in the latest ledger.",
		},
		[]string{"account"},
	)

	NetPnL = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "net_pnl",
			Help:      "Net realized PnL of the latest ledger.",
		},
		[]string{"account"},
	)

	GatewayRejectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_rejects_total",
			Help:      "Gateway calls rejected by the circuit breaker or rate limiter.",
		},
		[]string{"method", "reason"},
	)
)

var registerOnce sync.Once

// MustRegister registers every collector with the default registry once.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(LedgerRunsTotal, DroppedRecordsTotal, MatchedPairs, OpenLegs, NetPnL, GatewayRejectsTotal)
	})
}
