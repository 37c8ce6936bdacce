/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertSamplesCountInHistogram asserts that passed prometheus.Histogram contains the specified number of samples.
func AssertSamplesCountInHistogram(t assert.TestingT, hist prometheus.Histogram, wantSamplesCount int) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	metric, ok := gatherSingleMetric(t, hist)
	if !ok {
		return false
	}
	return assert.Equal(t, wantSamplesCount, int(metric.GetHistogram().GetSampleCount()))
}

// RequireSamplesCountInHistogram calls AssertSamplesCountInHistogram and fail test immediately in case of error.
func RequireSamplesCountInHistogram(t require.TestingT, hist prometheus.Histogram, wantSamplesCount int) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if AssertSamplesCountInHistogram(t, hist, wantSamplesCount) {
		return
	}
	t.FailNow()
}

// AssertSamplesCountInCounter asserts that passed prometheus.Counter has proper value.
func AssertSamplesCountInCounter(t assert.TestingT, counter prometheus.Counter, wantCount int) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	metric, ok := gatherSingleMetric(t, counter)
	if !ok {
		return false
	}
	return assert.Equal(t, wantCount, int(metric.GetCounter().GetValue()))
}

// RequireSamplesCountInCounter calls AssertSamplesCountInCounter and fail test immediately in case of error.
func RequireSamplesCountInCounter(t require.TestingT, counter prometheus.Counter, wantCount int) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if AssertSamplesCountInCounter(t, counter, wantCount) {
		return
	}
	t.FailNow()
}

// AssertValueInGauge asserts that passed prometheus.Gauge has the specified value.
func AssertValueInGauge(t assert.TestingT, gauge prometheus.Gauge, wantValue float64) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	metric, ok := gatherSingleMetric(t, gauge)
	if !ok {
		return false
	}
	return assert.Equal(t, wantValue, metric.GetGauge().GetValue())
}

// RequireValueInGauge calls AssertValueInGauge and fail test immediately in case of error.
func RequireValueInGauge(t require.TestingT, gauge prometheus.Gauge, wantValue float64) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if AssertValueInGauge(t, gauge, wantValue) {
		return
	}
	t.FailNow()
}

func gatherSingleMetric(t assert.TestingT, collector prometheus.Collector) (*dto.Metric, bool) {
	reg := prometheus.NewPedanticRegistry()
	if !assert.NoError(t, reg.Register(collector)) {
		return nil, false
	}
	families, err := reg.Gather()
	if !assert.NoError(t, err) {
		return nil, false
	}
	if !assert.Equal(t, 1, len(families)) || !assert.Equal(t, 1, len(families[0].GetMetric())) {
		return nil, false
	}
	return families[0].GetMetric()[0], true
}
