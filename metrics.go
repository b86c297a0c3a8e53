// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Metrics records build/apply outcomes and durations for callers that want
// operational visibility into a fleet of delta operations. A nil *Metrics
// (the zero value obtained by not calling NewMetrics) is safe to use
// everywhere — every method no-ops.
type Metrics struct {
	once            sync.Once
	buildDuration   prom.Histogram
	applyDuration   prom.Histogram
	fileResults     *prom.CounterVec
	buildOutcomes   *prom.CounterVec
	applyOutcomes   *prom.CounterVec
	fileRetries     prom.Counter
	retryExhausted  prom.Counter
	checksumFailure prom.Counter
}

// NewMetrics constructs and registers this engine's Prometheus metrics
// against reg (idempotent per *Metrics instance). A nil reg allocates a
// fresh, unregistered registry.
func NewMetrics(reg *prom.Registry) *Metrics {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	m := &Metrics{}
	m.once.Do(func() {
		m.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "deltapkg",
			Name:      "build_duration_seconds",
			Help:      "Total duration of DeltaBuilder.Build calls",
			Buckets:   prom.DefBuckets,
		})
		m.applyDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "deltapkg",
			Name:      "apply_duration_seconds",
			Help:      "Total duration of DeltaApplier.Apply calls",
			Buckets:   prom.DefBuckets,
		})
		m.fileResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "deltapkg",
			Name:      "file_results_total",
			Help:      "Per-file build classification counts",
		}, []string{"classification"})
		m.buildOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "deltapkg",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		m.applyOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "deltapkg",
			Name:      "apply_outcomes_total",
			Help:      "Apply outcomes by final status",
		}, []string{"outcome"})
		m.fileRetries = prom.NewCounter(prom.CounterOpts{
			Namespace: "deltapkg",
			Name:      "file_retries_total",
			Help:      "Per-file build operation retries",
		})
		m.retryExhausted = prom.NewCounter(prom.CounterOpts{
			Namespace: "deltapkg",
			Name:      "file_retry_exhausted_total",
			Help:      "Per-file build operations that exhausted all retries",
		})
		m.checksumFailure = prom.NewCounter(prom.CounterOpts{
			Namespace: "deltapkg",
			Name:      "checksum_failures_total",
			Help:      "Apply-side post-patch checksum verification failures",
		})

		reg.MustRegister(
			m.buildDuration, m.applyDuration, m.fileResults,
			m.buildOutcomes, m.applyOutcomes, m.fileRetries,
			m.retryExhausted, m.checksumFailure,
		)
	})

	return m
}

func (m *Metrics) observeBuildDuration(d time.Duration) {
	if m == nil || m.buildDuration == nil {
		return
	}
	m.buildDuration.Observe(d.Seconds())
}

func (m *Metrics) observeApplyDuration(d time.Duration) {
	if m == nil || m.applyDuration == nil {
		return
	}
	m.applyDuration.Observe(d.Seconds())
}

func (m *Metrics) incFileResult(c Classification) {
	if m == nil || m.fileResults == nil {
		return
	}
	m.fileResults.WithLabelValues(c.String()).Inc()
}

func (m *Metrics) incBuildOutcome(outcome string) {
	if m == nil || m.buildOutcomes == nil {
		return
	}
	m.buildOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) incApplyOutcome(outcome string) {
	if m == nil || m.applyOutcomes == nil {
		return
	}
	m.applyOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) incFileRetry() {
	if m == nil || m.fileRetries == nil {
		return
	}
	m.fileRetries.Inc()
}

func (m *Metrics) incRetryExhausted() {
	if m == nil || m.retryExhausted == nil {
		return
	}
	m.retryExhausted.Inc()
}

func (m *Metrics) incChecksumFailure() {
	if m == nil || m.checksumFailure == nil {
		return
	}
	m.checksumFailure.Inc()
}
