package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons used with OrdersRejectedTotal
const (
	ReasonDuplicateID = "duplicate_id"
	ReasonNoMatch     = "ioc_no_match"
	ReasonCannotFill  = "fok_cannot_fill"
	ReasonValidation  = "validation"
)

var (
	// Counter: Total orders submitted to the book
	OrdersSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_submitted_total",
			Help: "Total number of orders submitted to the matching engine",
		},
		[]string{"side", "type"}, // Labels: buy/sell, time-in-force
	)

	// Counter: Total orders rejected before insertion
	OrdersRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_rejected_total",
			Help: "Total number of orders rejected without touching the book",
		},
		[]string{"reason"},
	)

	// Counter: Total orders cancelled (explicit cancels and post-match sweeps)
	OrdersCancelledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_cancelled_total",
			Help: "Total number of orders removed from the book by cancellation",
		},
		[]string{"side"},
	)

	// Counter: Total trades executed
	TradesExecutedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trades_executed_total",
			Help: "Total number of trades executed",
		},
	)

	// Counter: Total quantity traded
	TradedVolumeTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "traded_volume_total",
			Help: "Total quantity traded",
		},
	)

	// Counter: Events emitted through the observer hook
	EventsEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_emitted_total",
			Help: "Total number of book events emitted",
		},
		[]string{"type"}, // add/cancel/trade/modify
	)

	// Histogram: Operation latency as measured by the bench harness
	OperationLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "operation_latency_seconds",
			Help:    "Time taken to run one book operation end to end",
			Buckets: prometheus.ExponentialBuckets(0.0000001, 2, 18), // 100ns to ~13ms
		},
		[]string{"op"}, // add/cancel/modify/match/query
	)

	// Gauge: Orders currently resting per side
	CurrentBookDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "current_book_depth",
			Help: "Current number of resting orders per side",
		},
		[]string{"side"},
	)

	// Gauge: Best bid/ask prices in ticks
	BestBidPrice = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "best_bid_price",
			Help: "Current best bid price in ticks",
		},
	)

	BestAskPrice = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "best_ask_price",
			Help: "Current best ask price in ticks",
		},
	)

	// Gauge: Spread (best ask minus best bid) in ticks
	BookSpread = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "book_spread",
			Help: "Current spread between best ask and best bid in ticks",
		},
	)

	// Histogram: Trade size distribution
	TradeSizeDistribution = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trade_size_distribution",
			Help:    "Distribution of trade quantities",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1 to ~4096
		},
	)
)

// RecordOrderSubmitted increments the orders_submitted_total counter
func RecordOrderSubmitted(side, orderType string) {
	OrdersSubmittedTotal.WithLabelValues(side, orderType).Inc()
}

// RecordOrderRejected increments the orders_rejected_total counter
func RecordOrderRejected(reason string) {
	OrdersRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordOrderCancelled increments the orders_cancelled_total counter
func RecordOrderCancelled(side string) {
	OrdersCancelledTotal.WithLabelValues(side).Inc()
}

// RecordEventEmitted increments the events_emitted_total counter
func RecordEventEmitted(eventType string) {
	EventsEmittedTotal.WithLabelValues(eventType).Inc()
}

// RecordOperationLatency records the time taken by one book operation
func RecordOperationLatency(op string, seconds float64) {
	OperationLatencySeconds.WithLabelValues(op).Observe(seconds)
}

// RecordTrade records a trade execution
func RecordTrade(quantity float64) {
	TradesExecutedTotal.Inc()
	TradedVolumeTotal.Add(quantity)
	TradeSizeDistribution.Observe(quantity)
}

// UpdateBookDepth updates the per-side resting order gauges
func UpdateBookDepth(bidOrders, askOrders float64) {
	CurrentBookDepth.WithLabelValues("buy").Set(bidOrders)
	CurrentBookDepth.WithLabelValues("sell").Set(askOrders)
}

// UpdateBestPrices updates best bid/ask and spread gauges. Sides with
// no resting orders leave their gauges untouched.
func UpdateBestPrices(bestBid, bestAsk float64, haveBid, haveAsk bool) {
	if haveBid {
		BestBidPrice.Set(bestBid)
	}
	if haveAsk {
		BestAskPrice.Set(bestAsk)
	}
	if haveBid && haveAsk {
		BookSpread.Set(bestAsk - bestBid)
	}
}
