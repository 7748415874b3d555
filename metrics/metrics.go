package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	BetsPlaced = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "redblack_bets_placed_total",
		Help: "Bets accepted by the roulette contract",
	}, []string{"token", "color"})

	BetsResolved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "redblack_bets_resolved_total",
		Help: "Bets resolved by the oracle",
	}, []string{"token", "outcome"})

	Withdrawals = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "redblack_withdrawals_total",
		Help: "withdrawFunds calls that succeeded",
	}, []string{"trigger"})

	PollErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "redblack_poll_errors_total",
		Help: "Failed result polls",
	})

	ActivePollers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "redblack_active_pollers",
		Help: "Wallets currently polled for a result",
	})

	CallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "redblack_contract_call_duration_seconds",
		Help:    "Duration of contract calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)

func init() {
	prometheus.MustRegister(BetsPlaced, BetsResolved, Withdrawals, PollErrors, ActivePollers, CallDuration)
}

// ObserveCall records the time since start for a contract method.
func ObserveCall(method string, start time.Time) {
	CallDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
