/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-crptapi/testutil"
)

func TestMetricsRoundTripper(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()
	serverURL, err := url.Parse(server.URL)
	require.NoError(t, err)

	t.Run("request type from opts", func(t *testing.T) {
		collector := NewPrometheusMetricsCollector("")
		rt := NewMetricsRoundTripperWithOpts(http.DefaultTransport, MetricsRoundTripperOpts{
			RequestType: "test-request",
			Collector:   collector,
		})
		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, server.URL, nil)
		require.NoError(t, err)
		resp, err := (&http.Client{Transport: rt}).Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())

		hist := collector.Durations.With(prometheus.Labels{
			"type":           "test-request",
			"remote_address": serverURL.Host,
			"summary":        "POST test-request",
			"status":         "418",
		}).(prometheus.Histogram)
		testutil.RequireSamplesCountInHistogram(t, hist, 1)
	})

	t.Run("default request type", func(t *testing.T) {
		collector := NewPrometheusMetricsCollector("")
		rt := NewMetricsRoundTripper(http.DefaultTransport, collector)
		req, err := http.NewRequest(http.MethodGet, server.URL, nil)
		require.NoError(t, err)
		resp, err := rt.RoundTrip(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())

		hist := collector.Durations.With(prometheus.Labels{
			"type":           DefaultRequestType,
			"remote_address": serverURL.Host,
			"summary":        "GET " + DefaultRequestType,
			"status":         "418",
		}).(prometheus.Histogram)
		testutil.RequireSamplesCountInHistogram(t, hist, 1)
	})
}
