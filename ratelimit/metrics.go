/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/acronis/go-crptapi/internal/libinfo"
)

// MetricsCollector collects metrics of WindowLimiter.
type MetricsCollector interface {
	// IncGrants increments the number of granted permits. queued reports whether the caller had to wait.
	IncGrants(queued bool)

	// ObserveWaitDuration records how long a queued caller waited for its permit.
	ObserveWaitDuration(d time.Duration)

	// SetWaiting sets the current length of the wait queue.
	SetWaiting(n int)

	// IncShutdownRejections increments the number of Acquire calls failed with ErrShutdown.
	IncShutdownRejections()
}

const metricsLabelQueued = "queued"

const (
	metricsValYes = "yes"
	metricsValNo  = "no"
)

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	// Use it to distinguish several limiters in one process.
	ConstLabels prometheus.Labels

	// WaitDurationBuckets overrides the histogram buckets of the wait duration (in seconds).
	WaitDurationBuckets []float64
}

// PrometheusMetrics is a MetricsCollector that exposes limiter metrics to Prometheus.
type PrometheusMetrics struct {
	GrantsTotal             *prometheus.CounterVec
	WaitDuration            prometheus.Histogram
	Waiting                 prometheus.Gauge
	ShutdownRejectionsTotal prometheus.Counter
}

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	buckets := opts.WaitDurationBuckets
	if buckets == nil {
		buckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
	}
	constLabels := libinfo.AddPrometheusLibVersionLabel(opts.ConstLabels)
	return &PrometheusMetrics{
		GrantsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "rate_limit_grants_total",
			Help:        "Number of permits granted by the rate limiter.",
			ConstLabels: constLabels,
		}, []string{metricsLabelQueued}),
		WaitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "rate_limit_wait_duration_seconds",
			Help:        "Time spent by queued callers waiting for a permit.",
			ConstLabels: constLabels,
			Buckets:     buckets,
		}),
		Waiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "rate_limit_waiting_callers",
			Help:        "Number of callers currently waiting for a permit.",
			ConstLabels: constLabels,
		}),
		ShutdownRejectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "rate_limit_shutdown_rejections_total",
			Help:        "Number of acquire calls rejected because the rate limiter is shut down.",
			ConstLabels: constLabels,
		}),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(
		pm.GrantsTotal,
		pm.WaitDuration,
		pm.Waiting,
		pm.ShutdownRejectionsTotal,
	)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.GrantsTotal)
	prometheus.Unregister(pm.WaitDuration)
	prometheus.Unregister(pm.Waiting)
	prometheus.Unregister(pm.ShutdownRejectionsTotal)
}

// IncGrants increments the number of granted permits.
func (pm *PrometheusMetrics) IncGrants(queued bool) {
	queuedVal := metricsValNo
	if queued {
		queuedVal = metricsValYes
	}
	pm.GrantsTotal.With(prometheus.Labels{metricsLabelQueued: queuedVal}).Inc()
}

// ObserveWaitDuration records how long a queued caller waited for its permit.
func (pm *PrometheusMetrics) ObserveWaitDuration(d time.Duration) {
	pm.WaitDuration.Observe(d.Seconds())
}

// SetWaiting sets the current length of the wait queue.
func (pm *PrometheusMetrics) SetWaiting(n int) {
	pm.Waiting.Set(float64(n))
}

// IncShutdownRejections increments the number of Acquire calls failed with ErrShutdown.
func (pm *PrometheusMetrics) IncShutdownRejections() {
	pm.ShutdownRejectionsTotal.Inc()
}

type disabledMetrics struct{}

func (disabledMetrics) IncGrants(bool)                    {}
func (disabledMetrics) ObserveWaitDuration(time.Duration) {}
func (disabledMetrics) SetWaiting(int)                    {}
func (disabledMetrics) IncShutdownRejections()            {}

var disabledMetricsCollector = disabledMetrics{}
