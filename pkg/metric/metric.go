// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all bidder metrics, registered on their own registry so
// multiple engine instances can expose independent series.
type Metrics struct {
	registry *prometheus.Registry

	// Decision metrics
	RequestsReceived   prometheus.Counter
	BidsEmitted        prometheus.Counter
	NoBids             *prometheus.CounterVec
	PredictionFailures prometheus.Counter

	// Budget metrics
	SpendCurrent prometheus.Gauge
	BidCount     prometheus.Gauge

	// Performance metrics
	DecisionDuration prometheus.Histogram
	PredictedCTR     prometheus.Histogram
	TmaxExceeded     prometheus.Counter
}

// New creates a metrics instance for one bidder strategy.
func New(strategy string) *Metrics {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"strategy": strategy}

	m := &Metrics{registry: registry}

	m.RequestsReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "bidder",
		Name:        "requests_received_total",
		Help:        "Total bid requests received",
		ConstLabels: labels,
	})

	m.BidsEmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "bidder",
		Name:        "bids_emitted_total",
		Help:        "Total bids emitted",
		ConstLabels: labels,
	})

	m.NoBids = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "bidder",
		Name:        "nobids_total",
		Help:        "Impressions not bid on, by reason",
		ConstLabels: labels,
	}, []string{"reason"})

	m.PredictionFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "bidder",
		Name:        "prediction_failures_total",
		Help:        "CTR predictions that fell back to the default",
		ConstLabels: labels,
	})

	m.SpendCurrent = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "bidder",
		Name:        "budget_spent",
		Help:        "Budget spent so far today",
		ConstLabels: labels,
	})

	m.BidCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "bidder",
		Name:        "budget_bid_count",
		Help:        "Bids placed so far today",
		ConstLabels: labels,
	})

	m.DecisionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   "bidder",
		Name:        "decision_duration_seconds",
		Help:        "Time to decide a bid request",
		ConstLabels: labels,
		Buckets:     prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	m.PredictedCTR = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   "bidder",
		Name:        "predicted_ctr",
		Help:        "Predicted CTR of emitted bids",
		ConstLabels: labels,
		Buckets:     prometheus.LinearBuckets(0, 0.005, 12),
	})

	m.TmaxExceeded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "bidder",
		Name:        "tmax_exceeded_total",
		Help:        "Decisions that ran past the request tmax",
		ConstLabels: labels,
	})

	registry.MustRegister(
		m.RequestsReceived,
		m.BidsEmitted,
		m.NoBids,
		m.PredictionFailures,
		m.SpendCurrent,
		m.BidCount,
		m.DecisionDuration,
		m.PredictedCTR,
		m.TmaxExceeded,
	)

	return m
}

// Gatherer returns the prometheus gatherer for metrics export.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
