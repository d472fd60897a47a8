package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempedge_upstream_calls_total",
			Help: "Total calls to upstream weather and market APIs",
		},
		[]string{"host", "status"},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tempedge_upstream_latency_seconds",
			Help:    "Upstream API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host"},
	)

	CyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tempedge_scan_cycles_total",
			Help: "Total completed scan cycles",
		},
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tempedge_scan_cycle_duration_seconds",
			Help:    "Wall time of one pass over all targets",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 80},
		},
	)

	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempedge_evaluations_total",
			Help: "Per-target evaluations by outcome",
		},
		[]string{"target", "outcome"},
	)

	ReachProbability = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tempedge_reach_probability",
			Help: "Latest reach probability per target (0-100)",
		},
		[]string{"target"},
	)

	SignalState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tempedge_signal",
			Help: "Set to 1 for the current signal of each target",
		},
		[]string{"target", "signal"},
	)

	AlertsFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempedge_alerts_fired_total",
			Help: "Alerts fired by tier",
		},
		[]string{"target", "tier"},
	)
)
