package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Business metrics
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carttalk_turns_total",
		Help: "Processed conversation turns by outcome",
	}, []string{"status"})

	DecodeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carttalk_decode_failures_total",
		Help: "DATA sections that failed every decode strategy",
	})

	OrdersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carttalk_orders_total",
		Help: "Orders committed",
	})

	OrderLinesSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carttalk_order_lines_skipped_total",
		Help: "Cart lines skipped at commit for insufficient stock or unknown product",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "carttalk_active_sessions",
		Help: "Call sessions currently held in memory",
	})

	// Infrastructure metrics
	ModelLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "carttalk_model_latency_seconds",
		Help:    "Latency of model generate calls",
		Buckets: prometheus.DefBuckets,
	})
)
